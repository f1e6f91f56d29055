package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/spf13/pflag"

	"github.com/junsooki/FrameFade/internal/capture"
	"github.com/junsooki/FrameFade/internal/config"
	"github.com/junsooki/FrameFade/internal/encoder"
	"github.com/junsooki/FrameFade/internal/logger"
	"github.com/junsooki/FrameFade/internal/peer"
	"github.com/junsooki/FrameFade/internal/service"
	"github.com/junsooki/FrameFade/internal/signaling"
	"github.com/junsooki/FrameFade/internal/source"
)

func main() {
	conf, err := config.Load("generator", os.Args[1:], func(c *config.Config, fs *pflag.FlagSet) {
		c.Generator.WithFlags(fs)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	gc := conf.Generator
	log := service.NewLogger(conf.Log, "generator")
	log.Info().Str("addr", gc.Addr).Str("dir", gc.Dir).Int("fps", gc.FPS).Int("quality", gc.Quality).
		Msg("FrameFade generator starting")

	capturer, err := capture.NewDirCapturer(gc.Dir, gc.FPS, gc.Loop, log)
	if err != nil {
		log.Error().Err(err).Msg("capture init")
		os.Exit(1)
	}
	srv := source.NewServer(encoder.NewJPEGEncoder(gc.Quality), log)

	mux := http.NewServeMux()
	mux.Handle("/", srv)
	mux.Handle("/signal", signaling.NewServer(log))
	httpServer := &http.Server{Addr: gc.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("listen")
			os.Exit(1)
		}
	}()

	if gc.Signaling != "" {
		host := newHost(gc, srv, log)
		if err := host.sig.Connect(context.Background()); err != nil {
			log.Error().Err(err).Msg("signaling connect")
		} else {
			defer host.Close()
			log.Info().Str("host", gc.HostID).Msg("Share this ID with viewers")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := capturer.Start(); err != nil {
		log.Error().Err(err).Msg("capture start")
		os.Exit(1)
	}
	go srv.Stream(ctx, capturer.Frames())

	<-service.ExpectTermination()
	log.Info().Msg("Shutting down...")
	cancel()
	capturer.Stop()
	_ = srv.Close()
	shutdown, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	_ = httpServer.Shutdown(shutdown)
}

// webrtcHost answers viewer offers; each offer replaces the previous peer.
type webrtcHost struct {
	sig *signaling.Client
	srv *source.Server
	log *logger.Logger

	mu   sync.Mutex
	peer *peer.Host
}

func newHost(gc config.Generator, srv *source.Server, log *logger.Logger) *webrtcHost {
	h := &webrtcHost{srv: srv, log: log}
	h.sig = signaling.NewClient(gc.Signaling, gc.HostID, signaling.ClientTypeHost, signaling.Handler{
		OnRegistered: func() { log.Info().Msg("Registered with signaling server") },
		OnOffer:      h.offer,
		OnICECandidate: func(_ string, payload json.RawMessage) {
			h.mu.Lock()
			p := h.peer
			h.mu.Unlock()
			if p == nil {
				return
			}
			if err := p.HandleICECandidate(payload); err != nil {
				log.Warn().Err(err).Msg("handle ICE candidate")
			}
		},
		OnError: func(msg string) { log.Warn().Str("error", msg).Msg("signaling error") },
	}, log)
	return h
}

func (h *webrtcHost) offer(from string, payload json.RawMessage) {
	h.log.Info().Str("viewer", from).Msg("Received offer")
	h.drop()
	p, err := peer.NewHost(h.sig, h.log)
	if err != nil {
		h.log.Error().Err(err).Msg("create host peer")
		return
	}
	h.srv.AddPeer(p.Transport())
	h.mu.Lock()
	h.peer = p
	h.mu.Unlock()
	if err := p.HandleOffer(from, payload); err != nil {
		h.log.Warn().Err(err).Msg("handle offer")
	}
}

func (h *webrtcHost) drop() {
	h.mu.Lock()
	p := h.peer
	h.peer = nil
	h.mu.Unlock()
	if p != nil {
		h.srv.RemovePeer(p.Transport())
		_ = p.Close()
	}
}

func (h *webrtcHost) Close() {
	h.drop()
	_ = h.sig.Close()
}
