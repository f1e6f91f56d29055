// Package source serves frames to viewers: the mock frame source used for
// development and demos.
package source

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/junsooki/FrameFade/internal/capture"
	"github.com/junsooki/FrameFade/internal/encoder"
	"github.com/junsooki/FrameFade/internal/logger"
	"github.com/junsooki/FrameFade/internal/protocol"
	"github.com/junsooki/FrameFade/internal/transport"
)

// Viewer is a connected frame consumer.
type Viewer interface {
	transport.PacketSender
	Close() error
}

// Server fans frames out to every connected viewer and answers their
// explain requests from sidecar metadata files.
type Server struct {
	enc encoder.Encoder
	log *logger.Logger

	mu      sync.Mutex
	viewers map[Viewer]struct{}
}

func NewServer(enc encoder.Encoder, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{enc: enc, log: log.Component("source"), viewers: make(map[Viewer]struct{})}
}

// ServeHTTP accepts a WebSocket viewer and serves it until it leaves.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := transport.Accept(w, r, s.log)
	if err != nil {
		s.log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	ws.OnPacket(func(data []byte, _ bool) { s.handle(ws, data) })
	s.add(ws)
	ws.Start()
	<-ws.Done()
	s.remove(ws)
}

// AddPeer serves a viewer connected over WebRTC data channels.
func (s *Server) AddPeer(dc *transport.DataChannel) {
	dc.OnCommand(func(cmd protocol.Command) { s.reply(dc, cmd) })
	dc.OnError(func(err error) { s.log.Warn().Err(err).Msg("bad command") })
	s.add(dc)
}

// RemovePeer stops sending to a WebRTC viewer.
func (s *Server) RemovePeer(dc *transport.DataChannel) { s.remove(dc) }

func (s *Server) add(v Viewer) {
	s.mu.Lock()
	s.viewers[v] = struct{}{}
	n := len(s.viewers)
	s.mu.Unlock()
	s.log.Info().Int("viewers", n).Msg("viewer joined")
}

func (s *Server) remove(v Viewer) {
	s.mu.Lock()
	delete(s.viewers, v)
	n := len(s.viewers)
	s.mu.Unlock()
	s.log.Info().Int("viewers", n).Msg("viewer left")
}

// Viewers returns the number of connected viewers.
func (s *Server) Viewers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.viewers)
}

func (s *Server) handle(v Viewer, data []byte) {
	cmd, err := protocol.ParseCommand(data)
	if err != nil {
		s.log.Warn().Err(err).Msg("bad command")
		return
	}
	s.reply(v, cmd)
}

func (s *Server) reply(v Viewer, cmd protocol.Command) {
	text, err := capture.Caption(cmd.Path)
	if err != nil {
		s.log.Debug().Err(err).Str("ref", cmd.Path).Msg("no caption")
		text = fmt.Sprintf("No description for %s", filepath.Base(cmd.Path))
	}
	data, err := protocol.Encode(protocol.ExplainResult{Caption: text, ID: cmd.ID, Path: cmd.Path})
	if err != nil {
		s.log.Warn().Err(err).Msg("encode caption")
		return
	}
	if err := v.SendPacket(data, false); err != nil {
		s.log.Warn().Err(err).Msg("send caption")
	}
}

// Broadcast sends one frame to every viewer as an inline new_frame
// message that also carries the image path.
func (s *Server) Broadcast(f *capture.Frame) error {
	img, err := s.enc.Encode(f.Image)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	data, err := protocol.Encode(protocol.NewFrame{
		Data: protocol.DataURL(s.enc.ContentType(), img),
		Path: f.Path,
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	viewers := make([]Viewer, 0, len(s.viewers))
	for v := range s.viewers {
		viewers = append(viewers, v)
	}
	s.mu.Unlock()
	for _, v := range viewers {
		if err := v.SendPacket(data, false); err != nil {
			s.log.Debug().Err(err).Msg("send frame")
		}
	}
	return nil
}

// Stream broadcasts frames until the channel closes or ctx is done.
func (s *Server) Stream(ctx context.Context, frames <-chan *capture.Frame) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			if err := s.Broadcast(f); err != nil {
				s.log.Warn().Err(err).Str("ref", f.Path).Msg("frame skipped")
				continue
			}
			s.log.Debug().Int("seq", f.Seq).Str("ref", f.Path).Msg("frame sent")
		}
	}
}

// Close disconnects every viewer.
func (s *Server) Close() error {
	s.mu.Lock()
	viewers := s.viewers
	s.viewers = make(map[Viewer]struct{})
	s.mu.Unlock()
	for v := range viewers {
		_ = v.Close()
	}
	return nil
}
