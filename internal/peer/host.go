package peer

import (
	"encoding/json"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/FrameFade/internal/logger"
	"github.com/junsooki/FrameFade/internal/signaling"
	"github.com/junsooki/FrameFade/internal/transport"
)

// Host manages the frame source side of the WebRTC connection. It answers
// a viewer's offer and adopts the data channels the viewer opened.
type Host struct {
	pc        *webrtc.PeerConnection
	sig       *signaling.Client
	transport *transport.DataChannel
	log       *logger.Logger
	remote    candidates

	mu     sync.Mutex
	peerID string // the viewer we're connected to
}

// NewHost creates a Host peer manager.
func NewHost(sig *signaling.Client, log *logger.Logger) (*Host, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("peer")
	pc, err := NewPeerConnection(log)
	if err != nil {
		return nil, err
	}

	h := &Host{
		pc:        pc,
		sig:       sig,
		transport: transport.NewDataChannel(nil, nil),
		log:       log,
	}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		log.Info().Str("label", dc.Label()).Msg("data channel received")
		switch dc.Label() {
		case transport.FramesLabel:
			h.transport.SetFramesChannel(dc)
		case transport.ControlLabel:
			h.transport.SetControlChannel(dc)
		default:
			log.Warn().Str("label", dc.Label()).Msg("unexpected data channel")
		}
	})

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		peerID := h.peer()
		if c == nil || peerID == "" {
			return
		}
		data, err := signaling.Marshal(c.ToJSON())
		if err != nil {
			log.Warn().Err(err).Msg("marshal ICE candidate")
			return
		}
		_ = sig.SendICECandidate(peerID, data)
	})

	return h, nil
}

// Transport returns the data channel transport for sending frames and
// receiving commands.
func (h *Host) Transport() *transport.DataChannel {
	return h.transport
}

func (h *Host) peer() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.peerID
}

// HandleOffer processes an incoming offer from a viewer.
func (h *Host) HandleOffer(from string, payload json.RawMessage) error {
	h.mu.Lock()
	h.peerID = from
	h.mu.Unlock()

	var offer webrtc.SessionDescription
	if err := signaling.Unmarshal(payload, &offer); err != nil {
		return err
	}

	if err := h.pc.SetRemoteDescription(offer); err != nil {
		return err
	}
	if err := h.remote.flush(h.pc); err != nil {
		return err
	}

	answer, err := h.pc.CreateAnswer(nil)
	if err != nil {
		return err
	}

	if err := h.pc.SetLocalDescription(answer); err != nil {
		return err
	}

	answerJSON, err := signaling.Marshal(answer)
	if err != nil {
		return err
	}

	return h.sig.SendAnswer(from, answerJSON)
}

// HandleICECandidate adds a remote ICE candidate.
func (h *Host) HandleICECandidate(payload json.RawMessage) error {
	return h.remote.add(h.pc, payload)
}

// Close shuts down the peer connection.
func (h *Host) Close() error {
	_ = h.transport.Close()
	return h.pc.Close()
}
