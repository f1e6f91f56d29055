package player

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gofrs/uuid"

	"github.com/junsooki/FrameFade/internal/caption"
	"github.com/junsooki/FrameFade/internal/clock"
	"github.com/junsooki/FrameFade/internal/encoder"
	"github.com/junsooki/FrameFade/internal/frame"
	"github.com/junsooki/FrameFade/internal/ingest"
	"github.com/junsooki/FrameFade/internal/logger"
	"github.com/junsooki/FrameFade/internal/monitoring"
	"github.com/junsooki/FrameFade/internal/playback"
	"github.com/junsooki/FrameFade/internal/protocol"
	"github.com/junsooki/FrameFade/internal/render"
	"github.com/junsooki/FrameFade/internal/ring"
)

var (
	ErrNoFrame     = errors.New("player: no frame on screen")
	ErrNoSourceRef = errors.New("player: frame has no source reference")
	ErrNoSender    = errors.New("player: no command channel")
)

// Sender delivers outbound commands to the frame source.
type Sender interface {
	Send(cmd protocol.Command) error
}

type Options struct {
	Capacity         int
	Duration         time.Duration
	ResumeCompensate bool
	Mode             caption.Mode
	// Mailbox is the number of ingestion results that may wait for a tick.
	Mailbox int
	// Width and Height size the exported image.
	Width, Height int
	Log           *logger.Logger
	Metrics       *monitoring.Metrics
	// Now is used by pause bookkeeping. Defaults to time.Now.
	Now func() time.Time
}

// Scene is what the display paints after a tick.
type Scene struct {
	Commands []render.Command
	Caption  caption.Caption
	Paused   bool
	Buffered int
	Index    int
}

// Player owns the ring buffer and playback state.
//
// Every method except Mailbox and Generation must be called from the
// goroutine that runs Tick. Ingestion goroutines only send on the mailbox.
type Player struct {
	buf      *ring.Buffer
	ctrl     *playback.Controller
	captions *caption.Channel
	mailbox  chan ingest.Result
	gen      *ingest.Generation
	sender   Sender
	closers  []io.Closer

	sched  clock.Scheduler
	handle clock.Handle

	scene         Scene
	width, height int
	lastRequest   string
	closed        bool

	log     *logger.Logger
	metrics *monitoring.Metrics
}

func New(opts Options) *Player {
	if opts.Mailbox <= 0 {
		opts.Mailbox = 64
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1024, 768
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	p := &Player{
		buf:      ring.New(opts.Capacity),
		captions: caption.NewChannel(opts.Mode),
		mailbox:  make(chan ingest.Result, opts.Mailbox),
		gen:      &ingest.Generation{},
		width:    opts.Width,
		height:   opts.Height,
		log:      opts.Log.Component("player"),
		metrics:  opts.Metrics,
	}
	p.ctrl = playback.NewController(opts.Duration,
		playback.WithResumeCompensation(opts.ResumeCompensate),
		playback.WithClock(opts.Now),
	)
	p.ctrl.OnCommit = p.onCommit
	return p
}

// Mailbox is where ingestion delivers results.
func (p *Player) Mailbox() chan<- ingest.Result { return p.mailbox }

// Generation stamps results for this player.
func (p *Player) Generation() *ingest.Generation { return p.gen }

// SetSender sets the channel used by Explain.
func (p *Player) SetSender(s Sender) { p.sender = s }

// Attach registers resources closed by Teardown, in reverse order.
func (p *Player) Attach(c ...io.Closer) { p.closers = append(p.closers, c...) }

// Run schedules Tick on s.
func (p *Player) Run(s clock.Scheduler) {
	p.sched = s
	p.handle = s.Schedule(p.Tick)
}

// Tick drains pending ingestion results and advances playback.
func (p *Player) Tick(now time.Time) {
	if p.closed {
		return
	}
	p.drain()
	cmds := p.ctrl.Tick(now, p.buf.Len())
	if cmds != nil {
		p.scene.Commands = cmds
	}
	p.scene.Caption = p.captions.Snapshot()
	p.scene.Paused = p.ctrl.Paused()
	p.scene.Buffered = p.buf.Len()
	p.scene.Index = p.ctrl.CurrentIndex()
	p.metrics.SetBufferLength(p.buf.Len())
}

func (p *Player) drain() {
	for range cap(p.mailbox) {
		select {
		case r := <-p.mailbox:
			p.apply(r)
		default:
			return
		}
	}
}

func (p *Player) apply(r ingest.Result) {
	if !p.gen.Valid(r.Gen) {
		return
	}
	switch {
	case r.Frame != nil:
		evicted, err := p.buf.Push(r.Frame)
		if err != nil {
			p.log.Warn().Err(err).Msg("push failed")
			return
		}
		if evicted != nil {
			p.metrics.Evicted()
		}
		// the first preloaded frame is on screen before any commit
		if p.buf.Len() == 1 && p.captions.Commit(r.Frame) {
			p.metrics.CaptionChanged()
		}
	case r.Caption != nil:
		c := r.Caption
		if c.ID != "" && c.ID != p.lastRequest {
			p.log.Debug().Str("id", c.ID).Str("want", p.lastRequest).Msg("caption for an earlier request")
		}
		if p.captions.Deliver(c.Caption, c.Path, c.ID) {
			p.metrics.CaptionChanged()
		}
	}
}

func (p *Player) onCommit(index int) {
	p.metrics.Committed()
	f, ok := p.buf.Get(index)
	if ok && p.captions.Commit(f) {
		p.metrics.CaptionChanged()
	}
}

// Scene returns the result of the last tick. While paused it keeps the
// commands of the last drawn tick.
func (p *Player) Scene() Scene { return p.scene }

// Frame resolves a command index against the ring buffer.
func (p *Player) Frame(i int) (*frame.Frame, bool) { return p.buf.Get(i) }

func (p *Player) TogglePause() bool {
	paused := p.ctrl.TogglePause()
	p.scene.Paused = paused
	p.log.Info().Bool("paused", paused).Int("index", p.ctrl.CurrentIndex()).Msg("playback toggled")
	return paused
}

func (p *Player) Paused() bool { return p.ctrl.Paused() }

func (p *Player) CurrentIndex() int { return p.ctrl.CurrentIndex() }

func (p *Player) Caption() string { return p.captions.Text() }

// Current returns the fully visible frame.
func (p *Player) Current() (*frame.Frame, bool) { return p.buf.Get(p.ctrl.CurrentIndex()) }

// Explain asks the source to caption the visible frame and returns the
// request id.
func (p *Player) Explain() (string, error) {
	if p.sender == nil {
		return "", ErrNoSender
	}
	f, ok := p.Current()
	if !ok {
		return "", ErrNoFrame
	}
	if f.SourceRef == "" {
		return "", ErrNoSourceRef
	}
	id := uuid.Must(uuid.NewV4()).String()
	if err := p.sender.Send(protocol.NewExplain(f.SourceRef, id)); err != nil {
		return "", fmt.Errorf("explain: %w", err)
	}
	p.lastRequest = id
	p.log.Info().Str("ref", f.SourceRef).Str("id", id).Msg("explain requested")
	return id, nil
}

// Snapshot renders the current scene in software, caption included.
func (p *Player) Snapshot() *render.Canvas {
	base, overlay := render.NewCanvas(p.width, p.height), render.NewCanvas(p.width, p.height)
	render.Compose(base, overlay, p.scene.Commands, p.buf.Get)
	out := render.NewCanvas(p.width, p.height)
	copy(out.Image().Pix, base.Flatten(overlay).Pix)
	if text := p.captions.Text(); text != "" {
		render.AddLabel(out.Image(), 0, p.height-60, p.width, text)
	}
	return out
}

// Export writes the rendered scene as a PNG file.
func (p *Player) Export(path string) error {
	if len(p.scene.Commands) == 0 {
		return ErrNoFrame
	}
	data, err := encoder.NewPNGEncoder().Encode(p.Snapshot().Image())
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	p.log.Info().Str("path", path).Int("index", p.ctrl.CurrentIndex()).Msg("frame exported")
	return nil
}

// Teardown stops ticking, closes attached resources and invalidates every
// result still in flight.
func (p *Player) Teardown() {
	if p.closed {
		return
	}
	p.closed = true
	if p.sched != nil {
		p.sched.Cancel(p.handle)
	}
	p.gen.Advance()
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i].Close(); err != nil {
			p.log.Warn().Err(err).Msg("close failed")
		}
	}
	p.buf.Reset()
	p.captions.Clear()
	p.scene = Scene{}
}
