package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cavaliercoder/grab"
	"github.com/gofrs/uuid"
)

// ErrUnsupportedRef is returned for references no fetcher can load.
var ErrUnsupportedRef = errors.New("ingest: unsupported reference")

// Fetcher loads the bytes behind a normalized reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// RefFetcher reads file:// references from disk, inline data: references
// directly and downloads http(s):// references with grab.
type RefFetcher struct {
	client   *grab.Client
	cacheDir string
}

// NewRefFetcher creates a fetcher that stages downloads in cacheDir.
func NewRefFetcher(cacheDir string) *RefFetcher {
	if cacheDir == "" {
		cacheDir = os.TempDir()
	}
	return &RefFetcher{client: grab.NewClient(), cacheDir: cacheDir}
}

func (f *RefFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return DecodeInline(ref)
	case strings.HasPrefix(ref, "file://"):
		p, _ := FilePath(ref)
		return os.ReadFile(p)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return f.download(ctx, ref)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRef, ref)
	}
}

func (f *RefFetcher) download(ctx context.Context, url string) ([]byte, error) {
	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return nil, err
	}
	dest := filepath.Join(f.cacheDir, uuid.Must(uuid.NewV4()).String())
	req, err := grab.NewRequest(dest, url)
	if err != nil {
		return nil, fmt.Errorf("couldn't make request URL: %v, %w", url, err)
	}
	resp := f.client.Do(req.WithContext(ctx))
	defer os.Remove(dest)
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	return os.ReadFile(resp.Filename)
}
