package peer

import (
	"encoding/json"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/FrameFade/internal/logger"
	"github.com/junsooki/FrameFade/internal/signaling"
)

// ICEServers is the default ICE server configuration.
var ICEServers = []webrtc.ICEServer{
	{URLs: []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"}},
}

var settings webrtc.SettingEngine

// NewPeerConnection creates a configured PeerConnection.
func NewPeerConnection(log *logger.Logger) (*webrtc.PeerConnection, error) {
	cfg := webrtc.Configuration{
		ICEServers: ICEServers,
	}
	api := webrtc.NewAPI(webrtc.WithSettingEngine(settings))
	pc, err := api.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Info().Str("state", state.String()).Msg("peer connection state")
	})
	return pc, nil
}

// candidates holds remote ICE candidates that arrive before the remote
// description.
type candidates struct {
	mu    sync.Mutex
	ready bool
	queue []webrtc.ICECandidateInit
}

func (c *candidates) add(pc *webrtc.PeerConnection, payload json.RawMessage) error {
	var candidate webrtc.ICECandidateInit
	if err := signaling.Unmarshal(payload, &candidate); err != nil {
		return err
	}
	c.mu.Lock()
	if !c.ready {
		c.queue = append(c.queue, candidate)
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return pc.AddICECandidate(candidate)
}

// flush is called once the remote description is set.
func (c *candidates) flush(pc *webrtc.PeerConnection) error {
	c.mu.Lock()
	c.ready = true
	queue := c.queue
	c.queue = nil
	c.mu.Unlock()
	for _, candidate := range queue {
		if err := pc.AddICECandidate(candidate); err != nil {
			return err
		}
	}
	return nil
}
