package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/junsooki/FrameFade/internal/config"
	"github.com/junsooki/FrameFade/internal/logger"
)

// Monitoring serves the metrics endpoint on a side port.
type Monitoring struct {
	conf   config.Monitoring
	log    *logger.Logger
	server *http.Server
}

// New creates a monitoring service for metrics m.
func New(conf config.Monitoring, m *Metrics, log *logger.Logger) *Monitoring {
	h := http.NewServeMux()
	metricPath := fmt.Sprintf("%s/metrics", conf.URLPrefix)
	h.Handle(metricPath, m.Handler())
	return &Monitoring{
		conf: conf,
		log:  log.Component("monitoring"),
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", conf.Port),
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run listens in the background.
func (m *Monitoring) Run() error {
	ln, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		return err
	}
	m.log.Info().Str("addr", ln.Addr().String()).Msgf("Prometheus metrics at %s/metrics", m.conf.URLPrefix)
	go func() {
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.Error().Err(err).Msg("monitoring server failed")
		}
	}()
	return nil
}

func (m *Monitoring) Shutdown(ctx context.Context) error {
	m.log.Info().Msg("Shutting down monitoring server")
	return m.server.Shutdown(ctx)
}

func (m *Monitoring) String() string {
	return fmt.Sprintf("monitoring::%s:%d", m.conf.URLPrefix, m.conf.Port)
}
