package transport

import "github.com/junsooki/FrameFade/internal/protocol"

// PacketHandler receives one inbound message. Binary packets carry raw
// image bytes, text packets carry protocol JSON.
type PacketHandler func(data []byte, binary bool)

// Source delivers packets from a frame source until closed.
type Source interface {
	OnPacket(h PacketHandler)
	Close() error
}

// CommandSender sends commands back to the frame source.
type CommandSender interface {
	Send(cmd protocol.Command) error
}

// PacketSender pushes packets towards a viewer.
type PacketSender interface {
	SendPacket(data []byte, binary bool) error
}
