// Package preload loads a fixed, indexed set of frames with their captions.
package preload

import (
	"context"
	"fmt"

	"github.com/junsooki/FrameFade/internal/config"
	"github.com/junsooki/FrameFade/internal/decoder"
	"github.com/junsooki/FrameFade/internal/frame"
	"github.com/junsooki/FrameFade/internal/ingest"
	"github.com/junsooki/FrameFade/internal/logger"
	"github.com/junsooki/FrameFade/internal/monitoring"
	"github.com/junsooki/FrameFade/internal/protocol"
)

// Loader fetches <prefix><index><ext> image and metadata pairs in index
// order, one pair at a time.
type Loader struct {
	conf    config.Preload
	fetch   ingest.Fetcher
	dec     decoder.Decoder
	log     *logger.Logger
	metrics *monitoring.Metrics
}

func New(conf config.Preload, fetch ingest.Fetcher, log *logger.Logger, m *monitoring.Metrics) *Loader {
	if fetch == nil {
		fetch = ingest.NewRefFetcher(conf.CacheDir)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{conf: conf, fetch: fetch, dec: decoder.NewImageDecoder(), log: log.Component("preload"), metrics: m}
}

// Paths returns the image and metadata locations of frame i.
func (l *Loader) Paths(i int) (image, meta string) {
	return fmt.Sprintf("%s%06d%s", l.conf.Prefix, i, l.conf.ImageExt),
		fmt.Sprintf("%s%06d%s", l.conf.Prefix, i, l.conf.MetaExt)
}

// Run loads every frame and sends it to out stamped with the current
// generation. Frames whose image cannot be loaded are skipped; a missing
// caption is left empty. It returns the number of frames sent.
func (l *Loader) Run(ctx context.Context, out chan<- ingest.Result, gen *ingest.Generation) (int, error) {
	g := gen.Current()
	sent := 0
	for i := 0; i < l.conf.Count; i++ {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		f, err := l.Load(ctx, i)
		if err != nil {
			l.metrics.DecodeFailed()
			l.log.Warn().Err(err).Int("index", i).Msg("frame skipped")
			continue
		}
		l.metrics.Decoded()
		select {
		case out <- ingest.Result{Gen: g, Frame: f}:
			sent++
		case <-ctx.Done():
			return sent, ctx.Err()
		}
	}
	l.log.Info().Int("frames", sent).Int("count", l.conf.Count).Msg("preload finished")
	return sent, nil
}

// Load fetches frame i and its caption.
func (l *Loader) Load(ctx context.Context, i int) (*frame.Frame, error) {
	imgPath, metaPath := l.Paths(i)
	data, err := l.fetch.Fetch(ctx, ingest.NormalizeRef(imgPath))
	if err != nil {
		return nil, err
	}
	img, err := l.dec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", imgPath, err)
	}
	f := frame.New(img, imgPath)
	f.Caption = l.caption(ctx, metaPath)
	return f, nil
}

func (l *Loader) caption(ctx context.Context, path string) string {
	data, err := l.fetch.Fetch(ctx, ingest.NormalizeRef(path))
	if err != nil {
		l.log.Debug().Err(err).Str("ref", path).Msg("no metadata")
		return ""
	}
	meta, err := protocol.ParseMetadata(data)
	if err != nil {
		l.log.Warn().Err(err).Str("ref", path).Msg("bad metadata")
		return ""
	}
	return meta.Caption
}
