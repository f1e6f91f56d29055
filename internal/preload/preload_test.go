package preload

import (
	"context"
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/junsooki/FrameFade/internal/config"
	"github.com/junsooki/FrameFade/internal/encoder"
	"github.com/junsooki/FrameFade/internal/ingest"
)

func writeFrame(t *testing.T, dir string, i, w int, caption string) {
	t.Helper()
	data, err := encoder.NewPNGEncoder().Encode(image.NewRGBA(image.Rect(0, 0, w, 2)))
	if err != nil {
		t.Fatal(err)
	}
	name := filepath.Join(dir, "frame_"+pad(i))
	if err := os.WriteFile(name+".png", data, 0o644); err != nil {
		t.Fatal(err)
	}
	if caption != "" {
		if err := os.WriteFile(name+".json", []byte(`{"caption":"`+caption+`"}`), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func pad(i int) string {
	s := "00000" + string(rune('0'+i))
	return s[len(s)-6:]
}

func conf(prefix string, n int) config.Preload {
	return config.Preload{Prefix: prefix, Count: n, ImageExt: ".png", MetaExt: ".json"}
}

func TestPaths(t *testing.T) {
	l := New(conf("frames/frame_", 1), nil, nil, nil)
	img, meta := l.Paths(42)
	if img != "frames/frame_000042.png" || meta != "frames/frame_000042.json" {
		t.Errorf("Paths(42) = %q, %q", img, meta)
	}
}

func TestRunInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, 0, 1, "zero")
	writeFrame(t, dir, 1, 2, "")
	// frame 2 is missing entirely
	writeFrame(t, dir, 3, 4, "three")
	if err := os.WriteFile(filepath.Join(dir, "frame_000001.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := New(conf(filepath.Join(dir, "frame_"), 4), ingest.NewRefFetcher(t.TempDir()), nil, nil)
	out := make(chan ingest.Result, 8)
	n, err := l.Run(context.Background(), out, &ingest.Generation{})
	if err != nil {
		t.Fatal(err)
	}
	close(out)

	want := []struct {
		width   int
		caption string
	}{{1, "zero"}, {2, ""}, {4, "three"}}
	if n != len(want) {
		t.Fatalf("sent %d frames, want %d", n, len(want))
	}
	i := 0
	for r := range out {
		if r.Frame.Width != want[i].width || r.Frame.Caption != want[i].caption {
			t.Errorf("frame %d = %dpx %q, want %dpx %q", i, r.Frame.Width, r.Frame.Caption, want[i].width, want[i].caption)
		}
		i++
	}
}

func TestRunOverHTTP(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, 0, 3, "remote")
	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer srv.Close()

	l := New(conf(srv.URL+"/frame_", 1), ingest.NewRefFetcher(t.TempDir()), nil, nil)
	out := make(chan ingest.Result, 1)
	if _, err := l.Run(context.Background(), out, &ingest.Generation{}); err != nil {
		t.Fatal(err)
	}
	r := <-out
	if r.Frame.Caption != "remote" || r.Frame.SourceRef != srv.URL+"/frame_000000.png" {
		t.Errorf("frame = %q from %q", r.Frame.Caption, r.Frame.SourceRef)
	}
}

func TestRunCanceled(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, 0, 1, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := New(conf(filepath.Join(dir, "frame_"), 1), nil, nil, nil)
	if n, err := l.Run(ctx, make(chan ingest.Result), &ingest.Generation{}); err == nil || n != 0 {
		t.Errorf("Run on canceled ctx = %d, %v", n, err)
	}
}
