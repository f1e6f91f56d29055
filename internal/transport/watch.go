package transport

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/junsooki/FrameFade/internal/logger"
	"github.com/junsooki/FrameFade/internal/protocol"
)

// settle is how long a file must stay unchanged before it is announced.
const settle = 150 * time.Millisecond

var imageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".webp": {},
}

// Watch announces image files appearing in a directory as new_frame
// messages carrying their path. It has no command channel.
type Watch struct {
	dir     string
	watcher *fsnotify.Watcher
	log     *logger.Logger

	mu       sync.Mutex
	onPacket PacketHandler
	pending  map[string]*time.Timer
	done     chan struct{}
	closed   bool
}

func NewWatch(dir string, log *logger.Logger) (*Watch, error) {
	if log == nil {
		log = logger.Nop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}
	return &Watch{
		dir:     dir,
		watcher: w,
		log:     log.Component("watch"),
		pending: make(map[string]*time.Timer),
		done:    make(chan struct{}),
	}, nil
}

func (w *Watch) OnPacket(h PacketHandler) {
	w.mu.Lock()
	w.onPacket = h
	w.mu.Unlock()
}

// Start lists the images already in the directory and returns. They are
// announced in name order from a background goroutine, which then follows
// new ones, so a slow handler never blocks the caller.
func (w *Watch) Start() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && isImage(e.Name()) {
			names = append(names, filepath.Join(w.dir, e.Name()))
		}
	}
	slices.Sort(names)
	go w.loop(names)
	return nil
}

func (w *Watch) loop(existing []string) {
	for _, name := range existing {
		select {
		case <-w.done:
			return
		default:
		}
		w.announce(name)
	}
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isImage(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.schedule(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

// schedule delays the announcement until writes to name stop.
func (w *Watch) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.pending[name]; ok {
		t.Reset(settle)
		return
	}
	w.pending[name] = time.AfterFunc(settle, func() {
		w.mu.Lock()
		delete(w.pending, name)
		closed := w.closed
		w.mu.Unlock()
		if !closed {
			w.announce(name)
		}
	})
}

func (w *Watch) announce(name string) {
	data, err := protocol.Encode(protocol.NewFrame{Path: name})
	if err != nil {
		w.log.Warn().Err(err).Str("ref", name).Msg("announce failed")
		return
	}
	w.mu.Lock()
	h := w.onPacket
	w.mu.Unlock()
	if h != nil {
		h(data, false)
	}
}

func (w *Watch) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, t := range w.pending {
		t.Stop()
	}
	close(w.done)
	w.mu.Unlock()
	return w.watcher.Close()
}

func isImage(name string) bool {
	_, ok := imageExts[strings.ToLower(filepath.Ext(name))]
	return ok
}
