package transport

import (
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/FrameFade/internal/protocol"
)

// Data channel labels.
const (
	FramesLabel  = "frames"
	ControlLabel = "control"
)

var errNoChannel = errors.New("transport: data channel not set")

// DataChannel carries frames and commands over two WebRTC data channels.
// The frames channel flows from source to viewer, the control channel
// carries commands back.
type DataChannel struct {
	mu        sync.Mutex
	framesDC  *webrtc.DataChannel
	controlDC *webrtc.DataChannel

	onPacket  PacketHandler
	onCommand func(cmd protocol.Command)
	onError   func(err error)
}

func NewDataChannel(framesDC, controlDC *webrtc.DataChannel) *DataChannel {
	t := &DataChannel{}
	if framesDC != nil {
		t.SetFramesChannel(framesDC)
	}
	if controlDC != nil {
		t.SetControlChannel(controlDC)
	}
	return t
}

// SetFramesChannel sets or replaces the frames channel, used when the
// channel is opened by the remote peer.
func (t *DataChannel) SetFramesChannel(dc *webrtc.DataChannel) {
	t.mu.Lock()
	t.framesDC = dc
	t.mu.Unlock()
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		t.mu.Lock()
		h := t.onPacket
		t.mu.Unlock()
		if h != nil {
			h(msg.Data, !msg.IsString)
		}
	})
}

// SetControlChannel sets or replaces the control channel.
func (t *DataChannel) SetControlChannel(dc *webrtc.DataChannel) {
	t.mu.Lock()
	t.controlDC = dc
	t.mu.Unlock()
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		t.mu.Lock()
		h, onErr := t.onCommand, t.onError
		t.mu.Unlock()
		if h == nil {
			return
		}
		cmd, err := protocol.ParseCommand(msg.Data)
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return
		}
		h(cmd)
	})
}

func (t *DataChannel) OnPacket(h PacketHandler) {
	t.mu.Lock()
	t.onPacket = h
	t.mu.Unlock()
}

// OnCommand sets the handler for commands arriving on the control channel.
func (t *DataChannel) OnCommand(h func(cmd protocol.Command)) {
	t.mu.Lock()
	t.onCommand = h
	t.mu.Unlock()
}

// OnError reports malformed commands.
func (t *DataChannel) OnError(h func(err error)) {
	t.mu.Lock()
	t.onError = h
	t.mu.Unlock()
}

func (t *DataChannel) SendPacket(data []byte, binary bool) error {
	t.mu.Lock()
	dc := t.framesDC
	t.mu.Unlock()
	if dc == nil {
		return errNoChannel
	}
	if binary {
		return dc.Send(data)
	}
	return dc.SendText(string(data))
}

func (t *DataChannel) Send(cmd protocol.Command) error {
	t.mu.Lock()
	dc := t.controlDC
	t.mu.Unlock()
	if dc == nil {
		return errNoChannel
	}
	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	return dc.SendText(string(data))
}

// Ready reports whether the frames channel is open.
func (t *DataChannel) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.framesDC != nil && t.framesDC.ReadyState() == webrtc.DataChannelStateOpen
}

func (t *DataChannel) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var errs []error
	for _, dc := range []*webrtc.DataChannel{t.framesDC, t.controlDC} {
		if dc != nil {
			errs = append(errs, dc.Close())
		}
	}
	return errors.Join(errs...)
}
