package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/junsooki/FrameFade/internal/caption"
	"github.com/junsooki/FrameFade/internal/config"
	"github.com/junsooki/FrameFade/internal/display"
	"github.com/junsooki/FrameFade/internal/ingest"
	"github.com/junsooki/FrameFade/internal/monitoring"
	"github.com/junsooki/FrameFade/internal/player"
	"github.com/junsooki/FrameFade/internal/preload"
	"github.com/junsooki/FrameFade/internal/service"
)

func main() {
	conf, err := config.Load("slideshow", os.Args[1:], func(c *config.Config, fs *pflag.FlagSet) {
		c.Player.WithFlags(fs)
		c.Preload.WithFlags(fs)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := service.NewLogger(conf.Log, "slideshow")
	log.Info().Str("prefix", conf.Preload.Prefix).Int("count", conf.Preload.Count).
		Dur("duration", conf.Player.Duration).Msg("FrameFade slideshow starting")

	metrics := monitoring.NewMetrics()
	stopMonitoring := service.StartMonitoring(conf.Monitoring, metrics, log)
	defer stopMonitoring()

	p := player.New(player.Options{
		// the whole set stays in memory
		Capacity:         max(conf.Player.Capacity, conf.Preload.Count),
		Duration:         conf.Player.Duration,
		ResumeCompensate: conf.Player.ResumeCompensate,
		Mode:             caption.Preloaded,
		Width:            conf.Player.Width,
		Height:           conf.Player.Height,
		Log:              log,
		Metrics:          metrics,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader := preload.New(conf.Preload, ingest.NewRefFetcher(conf.Preload.CacheDir), log, metrics)
	go func() {
		if _, err := loader.Run(ctx, p.Mailbox(), p.Generation()); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("preload")
		}
	}()

	disp := display.NewEbitenDisplay(p, conf.Player, log)
	disp.Handle(display.ActionPause, func() { p.TogglePause() })
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

	if err := disp.Run(); err != nil {
		log.Error().Err(err).Msg("display")
	}
	cancel()
	p.Teardown()
}
