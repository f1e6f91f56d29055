package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/junsooki/FrameFade/internal/decoder"
	"github.com/junsooki/FrameFade/internal/frame"
	"github.com/junsooki/FrameFade/internal/logger"
	"github.com/junsooki/FrameFade/internal/monitoring"
	"github.com/junsooki/FrameFade/internal/protocol"
)

// ErrClosed is returned when announcing to a closed adapter.
var ErrClosed = errors.New("ingest: adapter closed")

// Result is delivered to the render thread's mailbox. Exactly one of
// Frame and Caption is set.
type Result struct {
	Gen     uint64
	Frame   *frame.Frame
	Caption *protocol.ExplainResult
}

// Stats is a snapshot of adapter counters.
type Stats struct {
	Received       uint64
	Decoded        uint64
	DecodeFailures uint64
	ParseFailures  uint64
	Captions       uint64
}

type Options struct {
	Decoder decoder.Decoder
	Fetcher Fetcher
	// Workers is the number of concurrent decoders.
	Workers int
	// Queue is the number of announcements waiting for a decoder.
	Queue   int
	Log     *logger.Logger
	Metrics *monitoring.Metrics
}

// Adapter turns frame announcements into decoded frames.
//
// Announcements are decoded on a pool of workers and the results are sent
// to out in announcement order; a failed decode gives up its place. Nothing
// here touches the ring buffer: the owner of out drains it on its own
// schedule and discards results from stale generations.
type Adapter struct {
	dec     decoder.Decoder
	fetch   Fetcher
	out     chan<- Result
	gen     *Generation
	jobs    chan *job
	order   chan *job
	enqueue sync.Mutex
	workers int
	log     *logger.Logger
	metrics *monitoring.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool

	received, decoded, decodeFailures, parseFailures, captions atomic.Uint64
}

type job struct {
	gen uint64
	msg protocol.NewFrame
	// done receives the decoded frame, or nil when the job was dropped.
	done chan *frame.Frame
}

func NewAdapter(out chan<- Result, gen *Generation, opts Options) *Adapter {
	if opts.Decoder == nil {
		opts.Decoder = decoder.NewImageDecoder()
	}
	if opts.Fetcher == nil {
		opts.Fetcher = NewRefFetcher("")
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Queue <= 0 {
		opts.Queue = 16
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Adapter{
		ctx:     ctx,
		cancel:  cancel,
		dec:     opts.Decoder,
		fetch:   opts.Fetcher,
		out:     out,
		gen:     gen,
		jobs:    make(chan *job, opts.Queue),
		order:   make(chan *job, opts.Queue+opts.Workers),
		workers: opts.Workers,
		log:     opts.Log.Component("ingest"),
		metrics: opts.Metrics,
	}
}

// Start launches the decode workers and the goroutine releasing their
// results. They stop when ctx is done or the adapter is closed.
func (a *Adapter) Start(ctx context.Context) {
	context.AfterFunc(ctx, a.cancel)
	a.wg.Add(a.workers + 1)
	for i := 0; i < a.workers; i++ {
		go a.worker()
	}
	go a.release()
}

// HandlePacket parses a raw transport message. Binary packets are image
// bytes, text packets are protocol messages.
func (a *Adapter) HandlePacket(data []byte, binary bool) error {
	if binary {
		return a.Handle(protocol.NewFrame{Raw: data})
	}
	msg, err := protocol.Parse(data)
	if err != nil {
		a.parseFailures.Add(1)
		a.metrics.ParseFailed()
		a.log.Warn().Err(err).Int("size", len(data)).Msg("message dropped")
		return err
	}
	return a.Handle(msg)
}

// Handle accepts a validated message.
func (a *Adapter) Handle(msg protocol.Message) error {
	switch m := msg.(type) {
	case protocol.NewFrame:
		return a.announce(m)
	case protocol.ExplainResult:
		a.captions.Add(1)
		return a.deliver(Result{Gen: a.gen.Current(), Caption: &m})
	default:
		return fmt.Errorf("%w: %T", protocol.ErrInvalidMessage, msg)
	}
}

func (a *Adapter) announce(m protocol.NewFrame) error {
	if a.closed.Load() {
		return ErrClosed
	}
	a.received.Add(1)
	a.metrics.Received()
	j := &job{gen: a.gen.Current(), msg: m, done: make(chan *frame.Frame, 1)}

	// order and jobs must see announcements in the same sequence
	a.enqueue.Lock()
	defer a.enqueue.Unlock()
	select {
	case a.order <- j:
	case <-a.ctx.Done():
		return ErrClosed
	}
	select {
	case a.jobs <- j:
		return nil
	case <-a.ctx.Done():
		return ErrClosed
	}
}

func (a *Adapter) deliver(r Result) error {
	select {
	case a.out <- r:
		return nil
	case <-a.ctx.Done():
		return ErrClosed
	}
}

func (a *Adapter) worker() {
	defer a.wg.Done()
	for {
		select {
		case <-a.ctx.Done():
			return
		case j := <-a.jobs:
			f, err := a.Load(a.ctx, j.msg)
			if err != nil {
				if a.ctx.Err() != nil {
					return
				}
				a.decodeFailures.Add(1)
				a.metrics.DecodeFailed()
				a.log.Warn().Err(err).Str("ref", j.msg.Path).Bool("inline", j.msg.Inline()).Msg("frame dropped")
			} else {
				a.decoded.Add(1)
				a.metrics.Decoded()
			}
			j.done <- f
		}
	}
}

// release hands decoded frames to out in announcement order, waiting on
// the oldest outstanding job before looking at newer ones.
func (a *Adapter) release() {
	defer a.wg.Done()
	for {
		select {
		case <-a.ctx.Done():
			return
		case j := <-a.order:
			var f *frame.Frame
			select {
			case f = <-j.done:
			case <-a.ctx.Done():
				return
			}
			if f == nil {
				continue
			}
			if a.deliver(Result{Gen: j.gen, Frame: f}) != nil {
				return
			}
		}
	}
}

// Load resolves and decodes one announcement. Inline data wins over the
// location reference; the reference is kept on the frame either way.
func (a *Adapter) Load(ctx context.Context, m protocol.NewFrame) (*frame.Frame, error) {
	var data []byte
	var err error
	switch {
	case len(m.Raw) > 0:
		data = m.Raw
	case m.Data != "":
		data, err = DecodeInline(m.Data)
	case m.Path != "":
		data, err = a.fetch.Fetch(ctx, NormalizeRef(m.Path))
	default:
		err = fmt.Errorf("%w: nothing to load", protocol.ErrInvalidMessage)
	}
	if err != nil {
		return nil, err
	}
	img, err := a.dec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return frame.New(img, m.Path), nil
}

// Close stops the workers. Pending announcements are discarded.
func (a *Adapter) Close() {
	if a.closed.Swap(true) {
		return
	}
	a.cancel()
	a.wg.Wait()
}

func (a *Adapter) Stats() Stats {
	return Stats{
		Received:       a.received.Load(),
		Decoded:        a.decoded.Load(),
		DecodeFailures: a.decodeFailures.Load(),
		ParseFailures:  a.parseFailures.Load(),
		Captions:       a.captions.Load(),
	}
}
