// Package capture produces frames from a directory of still images.
package capture

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/junsooki/FrameFade/internal/decoder"
	"github.com/junsooki/FrameFade/internal/logger"
	"github.com/junsooki/FrameFade/internal/protocol"
)

// ErrNoImages is returned when the directory holds no image files.
var ErrNoImages = errors.New("capture: no images")

// Frame represents a captured frame.
type Frame struct {
	Image     *image.RGBA
	Width     int
	Height    int
	Path      string
	Seq       int
	Timestamp time.Time
}

var imageExts = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

// DirCapturer replays the images of a directory in name order at a fixed
// rate.
type DirCapturer struct {
	dir     string
	fps     int
	loop    bool
	dec     decoder.Decoder
	log     *logger.Logger
	paths   []string
	frameCh chan *Frame
	stopCh  chan struct{}
	running bool
}

func NewDirCapturer(dir string, fps int, loop bool, log *logger.Logger) (*DirCapturer, error) {
	if fps <= 0 || fps > 60 {
		return nil, fmt.Errorf("fps must be 1-60, got %d", fps)
	}
	if log == nil {
		log = logger.Nop()
	}
	paths, err := List(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}
	return &DirCapturer{
		dir:     dir,
		fps:     fps,
		loop:    loop,
		dec:     decoder.NewImageDecoder(),
		log:     log.Component("capture"),
		paths:   paths,
		frameCh: make(chan *Frame, 2),
		stopCh:  make(chan struct{}),
	}, nil
}

// List returns the image files of dir sorted by name.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(imageExts, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}

func (c *DirCapturer) Start() error {
	if c.running {
		return fmt.Errorf("already running")
	}
	c.running = true
	go c.run()
	return nil
}

func (c *DirCapturer) Stop() {
	if !c.running {
		return
	}
	c.running = false
	close(c.stopCh)
}

// Frames is closed when the capturer stops or, without looping, after
// the last image.
func (c *DirCapturer) Frames() <-chan *Frame {
	return c.frameCh
}

func (c *DirCapturer) run() {
	ticker := time.NewTicker(time.Second / time.Duration(c.fps))
	defer ticker.Stop()
	defer close(c.frameCh)

	for seq := 0; ; {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			if seq >= len(c.paths) && !c.loop {
				return
			}
			f, err := c.capture(seq)
			seq++
			if err != nil {
				c.log.Warn().Err(err).Msg("frame skipped")
				continue
			}
			// slow consumers miss frames rather than stall the source
			select {
			case c.frameCh <- f:
			default:
			}
		}
	}
}

func (c *DirCapturer) capture(seq int) (*Frame, error) {
	path := c.paths[seq%len(c.paths)]
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := c.dec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Frame{
		Image:     img,
		Width:     img.Bounds().Dx(),
		Height:    img.Bounds().Dy(),
		Path:      path,
		Seq:       seq,
		Timestamp: time.Now(),
	}, nil
}

// MetadataPath returns the sidecar descriptor of an image.
func MetadataPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
}

// Caption reads the sidecar caption of an image.
func Caption(path string) (string, error) {
	data, err := os.ReadFile(MetadataPath(path))
	if err != nil {
		return "", err
	}
	m, err := protocol.ParseMetadata(data)
	if err != nil {
		return "", err
	}
	return m.Caption, nil
}
