package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/junsooki/FrameFade/internal/caption"
	"github.com/junsooki/FrameFade/internal/config"
	"github.com/junsooki/FrameFade/internal/display"
	"github.com/junsooki/FrameFade/internal/ingest"
	"github.com/junsooki/FrameFade/internal/logger"
	"github.com/junsooki/FrameFade/internal/monitoring"
	"github.com/junsooki/FrameFade/internal/peer"
	"github.com/junsooki/FrameFade/internal/player"
	"github.com/junsooki/FrameFade/internal/service"
	"github.com/junsooki/FrameFade/internal/signaling"
	"github.com/junsooki/FrameFade/internal/transport"
)

func main() {
	conf, err := config.Load("player", os.Args[1:], func(c *config.Config, fs *pflag.FlagSet) {
		c.Player.WithFlags(fs)
		c.Live.WithFlags(fs)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := service.NewLogger(conf.Log, "player")
	log.Info().Str("transport", conf.Live.Transport).Int("capacity", conf.Player.Capacity).
		Dur("duration", conf.Player.Duration).Msg("FrameFade player starting")

	metrics := monitoring.NewMetrics()
	stopMonitoring := service.StartMonitoring(conf.Monitoring, metrics, log)
	defer stopMonitoring()

	p := player.New(player.Options{
		Capacity:         conf.Player.Capacity,
		Duration:         conf.Player.Duration,
		ResumeCompensate: conf.Player.ResumeCompensate,
		Mode:             caption.Live,
		Width:            conf.Player.Width,
		Height:           conf.Player.Height,
		Log:              log,
		Metrics:          metrics,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adapter := ingest.NewAdapter(p.Mailbox(), p.Generation(), ingest.Options{
		Fetcher: ingest.NewRefFetcher(conf.Live.CacheDir),
		Workers: conf.Live.DecodeWorkers,
		Log:     log,
		Metrics: metrics,
	})
	adapter.Start(ctx)
	p.Attach(closer(func() error { adapter.Close(); return nil }))

	src, err := connect(ctx, conf.Live, log, func(data []byte, binary bool) {
		// failures are logged and counted by the adapter
		_ = adapter.HandlePacket(data, binary)
	})
	if err != nil {
		log.Error().Err(err).Msg("frame source unavailable")
		os.Exit(1)
	}
	p.Attach(src)
	if sender, ok := src.(player.Sender); ok {
		p.SetSender(sender)
	}

	disp := display.NewEbitenDisplay(p, conf.Player, log)
	disp.Handle(display.ActionPause, func() { p.TogglePause() })
	disp.Handle(display.ActionExplain, func() {
		if _, err := p.Explain(); err != nil {
			log.Warn().Err(err).Msg("explain")
		}
	})
	disp.Handle(display.ActionExport, func() {
		if err := p.Export(conf.Player.ExportPath); err != nil {
			log.Warn().Err(err).Msg("export")
		}
	})
	p.Run(disp)

	go func() {
		<-service.ExpectTermination()
		disp.Quit()
	}()

	// Ebitengine RunGame must be on the main goroutine (macOS requirement).
	if err := disp.Run(); err != nil {
		log.Error().Err(err).Msg("display")
	}
	p.Teardown()
	st := adapter.Stats()
	log.Info().Uint64("received", st.Received).Uint64("decoded", st.Decoded).
		Uint64("decode_failures", st.DecodeFailures).Uint64("parse_failures", st.ParseFailures).Msg("player stopped")
}

type closer func() error

func (c closer) Close() error { return c() }

// connect opens the configured frame source and starts delivering packets.
func connect(ctx context.Context, conf config.Live, log *logger.Logger, h transport.PacketHandler) (transport.Source, error) {
	switch conf.Transport {
	case config.TransportWatch:
		w, err := transport.NewWatch(conf.WatchDir, log)
		if err != nil {
			return nil, err
		}
		w.OnPacket(h)
		if err := w.Start(); err != nil {
			_ = w.Close()
			return nil, err
		}
		return w, nil
	case config.TransportWebRTC:
		return connectWebRTC(ctx, conf, log, h)
	default:
		ws, err := transport.DialWebSocket(ctx, conf.Source, log)
		if err != nil {
			return nil, err
		}
		ws.OnPacket(h)
		ws.Start()
		log.Info().Str("url", conf.Source).Msg("connected to frame source")
		return ws, nil
	}
}

// webrtcSource ties the viewer peer to its signaling session.
type webrtcSource struct {
	*transport.DataChannel
	viewer *peer.Viewer
	sig    *signaling.Client
}

func (s *webrtcSource) Close() error {
	err := s.viewer.Close()
	_ = s.sig.Close()
	return err
}

func connectWebRTC(ctx context.Context, conf config.Live, log *logger.Logger, h transport.PacketHandler) (transport.Source, error) {
	if conf.HostID == "" {
		return nil, fmt.Errorf("webrtc transport needs a host id (--host)")
	}
	log.Info().Str("viewer", conf.ViewerID).Str("host", conf.HostID).Str("signaling", conf.Signaling).
		Msg("connecting over WebRTC")

	var viewer *peer.Viewer
	sig := signaling.NewClient(conf.Signaling, conf.ViewerID, signaling.ClientTypeViewer, signaling.Handler{
		OnRegistered: func() {
			log.Info().Msg("Registered with signaling server")
			if err := viewer.Connect(); err != nil {
				log.Error().Err(err).Msg("viewer connect")
			}
		},
		OnAnswer: func(_ string, payload json.RawMessage) {
			if err := viewer.HandleAnswer(payload); err != nil {
				log.Warn().Err(err).Msg("handle answer")
			}
		},
		OnICECandidate: func(_ string, payload json.RawMessage) {
			if err := viewer.HandleICECandidate(payload); err != nil {
				log.Warn().Err(err).Msg("handle ICE candidate")
			}
		},
		OnHostDisconnected: func(id string) {
			if id == conf.HostID {
				log.Warn().Str("host", id).Msg("frame source left, replaying buffer")
			}
		},
		OnError: func(msg string) {
			log.Warn().Str("error", msg).Msg("signaling error")
		},
	}, log)

	viewer, err := peer.NewViewer(sig, conf.HostID, log)
	if err != nil {
		return nil, err
	}
	viewer.Transport().OnPacket(h)
	if err := sig.Connect(ctx); err != nil {
		_ = viewer.Close()
		return nil, err
	}
	return &webrtcSource{DataChannel: viewer.Transport(), viewer: viewer, sig: sig}, nil
}
