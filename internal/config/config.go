package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Config holds all runtime configuration.
type Config struct {
	Log        Log
	Player     Player
	Live       Live
	Preload    Preload
	Generator  Generator
	Monitoring Monitoring
}

type Log struct {
	Debug   bool
	Console bool `default:"true"`
	NoColor bool
}

// Player configures the shared render loop.
type Player struct {
	Capacity int           `default:"300"`
	Duration time.Duration `default:"2s"`
	// ResumeCompensate shifts the transition start by the paused time on resume.
	ResumeCompensate bool
	Width            int    `default:"1024"`
	Height           int    `default:"768"`
	Title            string `default:"FrameFade"`
	ExportPath       string `default:"frame_capture.png"`
	Sidebar          bool   `default:"true"`
}

// Live configures the pushed frame source.
type Live struct {
	Transport     string `default:"websocket"`
	Source        string `default:"ws://127.0.0.1:8765"`
	Signaling     string `default:"ws://127.0.0.1:8765/signal"`
	HostID        string
	ViewerID      string
	WatchDir      string
	DecodeWorkers int    `default:"2"`
	CacheDir      string `default:".framefade-cache"`
}

// Preload configures the fixed indexed frame set.
type Preload struct {
	Prefix   string `default:"frames/frame_"`
	Count    int    `default:"80"`
	ImageExt string `default:".jpg"`
	MetaExt  string `default:".json"`
	CacheDir string `default:".framefade-cache"`
}

// Generator configures the mock frame source.
type Generator struct {
	Addr      string `default:":8765"`
	Dir       string `default:"frames"`
	FPS       int    `default:"2"`
	Quality   int    `default:"80"`
	Loop      bool   `default:"true"`
	Signaling string
	HostID    string
}

type Monitoring struct {
	Port          int
	URLPrefix     string
	MetricEnabled bool `fig:"metric_enabled"`
}

func (c *Monitoring) IsEnabled() bool { return c.MetricEnabled && c.Port > 0 }

// Transports accepted by Live.Transport.
const (
	TransportWebsocket = "websocket"
	TransportWebRTC    = "webrtc"
	TransportWatch     = "watch"
)

// Validate checks values that have no usable fallback.
func (c *Config) Validate() error {
	if c.Player.Capacity <= 0 {
		return fmt.Errorf("player capacity must be positive, got %d", c.Player.Capacity)
	}
	if c.Player.Duration <= 0 {
		return fmt.Errorf("player duration must be positive, got %v", c.Player.Duration)
	}
	switch c.Live.Transport {
	case TransportWebsocket, TransportWebRTC, TransportWatch:
	default:
		return fmt.Errorf("unknown transport %q", c.Live.Transport)
	}
	if c.Preload.Count < 0 {
		return fmt.Errorf("preload count must not be negative, got %d", c.Preload.Count)
	}
	return nil
}

func (l *Log) WithFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&l.Debug, "debug", l.Debug, "Enable debug logging")
	fs.BoolVar(&l.Console, "console", l.Console, "Human-readable log output")
}

func (p *Player) WithFlags(fs *pflag.FlagSet) {
	fs.IntVar(&p.Capacity, "capacity", p.Capacity, "Ring buffer capacity in frames")
	fs.DurationVar(&p.Duration, "duration", p.Duration, "Crossfade duration")
	fs.BoolVar(&p.ResumeCompensate, "resume-compensate", p.ResumeCompensate, "Discount paused time from the running transition")
	fs.IntVar(&p.Width, "width", p.Width, "Window width")
	fs.IntVar(&p.Height, "height", p.Height, "Window height")
	fs.StringVar(&p.ExportPath, "export", p.ExportPath, "PNG path written by the save action")
}

func (l *Live) WithFlags(fs *pflag.FlagSet) {
	fs.StringVar(&l.Transport, "transport", l.Transport, "Frame transport: websocket, webrtc or watch")
	fs.StringVar(&l.Source, "source", l.Source, "Frame source WebSocket URL")
	fs.StringVar(&l.Signaling, "signaling", l.Signaling, "Signaling server WebSocket URL (webrtc)")
	fs.StringVar(&l.HostID, "host", l.HostID, "Host ID to connect to (webrtc)")
	fs.StringVar(&l.ViewerID, "id", l.ViewerID, "Viewer ID (auto-generated if empty)")
	fs.StringVar(&l.WatchDir, "watch", l.WatchDir, "Directory to watch for new frames (watch)")
	fs.IntVar(&l.DecodeWorkers, "workers", l.DecodeWorkers, "Concurrent frame decoders")
}

func (p *Preload) WithFlags(fs *pflag.FlagSet) {
	fs.StringVar(&p.Prefix, "prefix", p.Prefix, "Frame path or URL prefix")
	fs.IntVar(&p.Count, "count", p.Count, "Number of frames to preload")
}

func (g *Generator) WithFlags(fs *pflag.FlagSet) {
	fs.StringVar(&g.Addr, "addr", g.Addr, "WebSocket listen address")
	fs.StringVar(&g.Dir, "dir", g.Dir, "Directory of frames to stream")
	fs.IntVar(&g.FPS, "fps", g.FPS, "Frames per second")
	fs.IntVar(&g.Quality, "quality", g.Quality, "JPEG quality (1-100)")
	fs.StringVar(&g.Signaling, "signaling", g.Signaling, "Signaling server WebSocket URL (enables WebRTC)")
	fs.StringVar(&g.HostID, "id", g.HostID, "Host ID (auto-generated if empty)")
}

func (m *Monitoring) WithFlags(fs *pflag.FlagSet) {
	fs.IntVar(&m.Port, "monitoring.port", m.Port, "Monitoring server port")
	fs.BoolVar(&m.MetricEnabled, "metrics", m.MetricEnabled, "Expose Prometheus metrics")
}

// EnsureIDs fills empty peer identifiers.
func (c *Config) EnsureIDs() {
	if c.Live.ViewerID == "" {
		c.Live.ViewerID = fmt.Sprintf("viewer-%s", randomID())
	}
	if c.Generator.HostID == "" {
		c.Generator.HostID = fmt.Sprintf("host-%s", randomID())
	}
}

func randomID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return hex.EncodeToString(b)
}
