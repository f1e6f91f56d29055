package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "framefade"

// Metrics holds the pipeline counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	reg *prometheus.Registry

	FramesReceived prometheus.Counter
	FramesDecoded  prometheus.Counter
	DecodeFailures prometheus.Counter
	ParseFailures  prometheus.Counter
	Evictions      prometheus.Counter
	Commits        prometheus.Counter
	CaptionUpdates prometheus.Counter
	BufferLength   prometheus.Gauge
}

func NewMetrics() *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}
	m := &Metrics{
		reg:            prometheus.NewRegistry(),
		FramesReceived: counter("frames_received_total", "Frame announcements accepted by ingestion."),
		FramesDecoded:  counter("frames_decoded_total", "Frames decoded successfully."),
		DecodeFailures: counter("decode_failures_total", "Frames dropped because they could not be loaded or decoded."),
		ParseFailures:  counter("parse_failures_total", "Inbound messages rejected by the protocol parser."),
		Evictions:      counter("evictions_total", "Frames evicted from the ring buffer."),
		Commits:        counter("transitions_total", "Completed crossfade transitions."),
		CaptionUpdates: counter("caption_updates_total", "Caption changes."),
		BufferLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "buffer_frames", Help: "Frames held in the ring buffer.",
		}),
	}
	m.reg.MustRegister(m.FramesReceived, m.FramesDecoded, m.DecodeFailures, m.ParseFailures,
		m.Evictions, m.Commits, m.CaptionUpdates, m.BufferLength)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) Received() {
	if m != nil {
		m.FramesReceived.Inc()
	}
}

func (m *Metrics) Decoded() {
	if m != nil {
		m.FramesDecoded.Inc()
	}
}

func (m *Metrics) DecodeFailed() {
	if m != nil {
		m.DecodeFailures.Inc()
	}
}

func (m *Metrics) ParseFailed() {
	if m != nil {
		m.ParseFailures.Inc()
	}
}

func (m *Metrics) Evicted() {
	if m != nil {
		m.Evictions.Inc()
	}
}

func (m *Metrics) Committed() {
	if m != nil {
		m.Commits.Inc()
	}
}

func (m *Metrics) CaptionChanged() {
	if m != nil {
		m.CaptionUpdates.Inc()
	}
}

func (m *Metrics) SetBufferLength(n int) {
	if m != nil {
		m.BufferLength.Set(float64(n))
	}
}
