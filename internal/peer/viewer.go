package peer

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/FrameFade/internal/logger"
	"github.com/junsooki/FrameFade/internal/signaling"
	"github.com/junsooki/FrameFade/internal/transport"
)

// Viewer manages the receiving side of the WebRTC connection. It opens
// the data channels and sends the offer.
type Viewer struct {
	pc        *webrtc.PeerConnection
	sig       *signaling.Client
	transport *transport.DataChannel
	hostID    string
	log       *logger.Logger
	remote    candidates
}

// NewViewer creates a Viewer peer manager connecting to hostID.
func NewViewer(sig *signaling.Client, hostID string, log *logger.Logger) (*Viewer, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("peer")
	pc, err := NewPeerConnection(log)
	if err != nil {
		return nil, err
	}

	// frames must arrive in order: display order is arrival order
	ordered := true
	framesDC, err := pc.CreateDataChannel(transport.FramesLabel, &webrtc.DataChannelInit{Ordered: &ordered})
	if err != nil {
		pc.Close()
		return nil, err
	}
	controlDC, err := pc.CreateDataChannel(transport.ControlLabel, &webrtc.DataChannelInit{Ordered: &ordered})
	if err != nil {
		pc.Close()
		return nil, err
	}
	for _, dc := range []*webrtc.DataChannel{framesDC, controlDC} {
		label := dc.Label()
		dc.OnOpen(func() { log.Info().Str("label", label).Msg("data channel open") })
	}

	v := &Viewer{
		pc:        pc,
		sig:       sig,
		transport: transport.NewDataChannel(framesDC, controlDC),
		hostID:    hostID,
		log:       log,
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		data, err := signaling.Marshal(c.ToJSON())
		if err != nil {
			log.Warn().Err(err).Msg("marshal ICE candidate")
			return
		}
		_ = sig.SendICECandidate(hostID, data)
	})

	return v, nil
}

// Transport returns the data channel transport.
func (v *Viewer) Transport() *transport.DataChannel {
	return v.transport
}

// Connect initiates the WebRTC connection by creating and sending an offer.
func (v *Viewer) Connect() error {
	offer, err := v.pc.CreateOffer(nil)
	if err != nil {
		return err
	}

	if err := v.pc.SetLocalDescription(offer); err != nil {
		return err
	}

	offerJSON, err := signaling.Marshal(offer)
	if err != nil {
		return err
	}

	return v.sig.SendOffer(v.hostID, offerJSON)
}

// HandleAnswer processes an incoming SDP answer.
func (v *Viewer) HandleAnswer(payload json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := signaling.Unmarshal(payload, &answer); err != nil {
		return err
	}
	if err := v.pc.SetRemoteDescription(answer); err != nil {
		return err
	}
	return v.remote.flush(v.pc)
}

// HandleICECandidate adds a remote ICE candidate.
func (v *Viewer) HandleICECandidate(payload json.RawMessage) error {
	return v.remote.add(v.pc, payload)
}

// Close shuts down the data channels and the peer connection.
func (v *Viewer) Close() error {
	_ = v.transport.Close()
	return v.pc.Close()
}
