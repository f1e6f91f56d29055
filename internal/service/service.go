// Package service holds the start-up plumbing shared by the binaries.
package service

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/junsooki/FrameFade/internal/config"
	"github.com/junsooki/FrameFade/internal/logger"
	"github.com/junsooki/FrameFade/internal/monitoring"
)

// NewLogger builds the process logger from its config section.
func NewLogger(c config.Log, tag string) *logger.Logger {
	if c.Console {
		return logger.NewConsole(c.Debug, tag, c.NoColor)
	}
	return logger.New(c.Debug)
}

// ExpectTermination signals once on SIGINT or SIGTERM.
func ExpectTermination() chan struct{} {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{}, 1)
	go func() {
		<-signals
		done <- struct{}{}
	}()
	return done
}

// StartMonitoring serves metrics when enabled and returns its shutdown
// function, which is a no-op otherwise.
func StartMonitoring(c config.Monitoring, m *monitoring.Metrics, log *logger.Logger) func() {
	if !c.IsEnabled() {
		return func() {}
	}
	mon := monitoring.New(c, m, log)
	if err := mon.Run(); err != nil {
		log.Error().Err(err).Str("service", mon.String()).Msg("monitoring disabled")
		return func() {}
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mon.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("monitoring shutdown")
		}
	}
}
