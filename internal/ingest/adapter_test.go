package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/junsooki/FrameFade/internal/decoder"
	"github.com/junsooki/FrameFade/internal/logger"
	"github.com/junsooki/FrameFade/internal/protocol"
)

func newTestAdapter(t *testing.T, log *logger.Logger) (*Adapter, chan Result, *Generation) {
	t.Helper()
	out := make(chan Result, 8)
	gen := &Generation{}
	a := NewAdapter(out, gen, Options{Workers: 2, Log: log})
	a.Start(context.Background())
	t.Cleanup(a.Close)
	return a, out, gen
}

func receive(t *testing.T, out <-chan Result) Result {
	t.Helper()
	select {
	case r := <-out:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a result")
		return Result{}
	}
}

func TestAdapterInlinePreferred(t *testing.T) {
	a, out, _ := newTestAdapter(t, nil)

	msg := `{"type":"new_frame","data":"data:image/png;base64,` +
		base64.StdEncoding.EncodeToString(pngBytes(t, 4, 3)) + `","path":"C:\\nowhere\\a.png"}`
	if err := a.HandlePacket([]byte(msg), false); err != nil {
		t.Fatal(err)
	}
	r := receive(t, out)
	if r.Frame == nil {
		t.Fatalf("expected a frame, got %+v", r)
	}
	if r.Frame.Width != 4 || r.Frame.Height != 3 {
		t.Errorf("size = %dx%d", r.Frame.Width, r.Frame.Height)
	}
	if r.Frame.SourceRef != `C:\nowhere\a.png` {
		t.Errorf("source ref = %q", r.Frame.SourceRef)
	}
}

func TestAdapterPathFrame(t *testing.T) {
	a, out, gen := newTestAdapter(t, nil)
	p := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(p, pngBytes(t, 2, 2), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := a.Handle(protocol.NewFrame{Path: p}); err != nil {
		t.Fatal(err)
	}
	r := receive(t, out)
	if r.Frame == nil || r.Frame.SourceRef != p {
		t.Fatalf("unexpected result %+v", r)
	}
	if r.Gen != gen.Current() {
		t.Errorf("gen = %d, want %d", r.Gen, gen.Current())
	}
}

func TestAdapterBinaryPacket(t *testing.T) {
	a, out, _ := newTestAdapter(t, nil)
	if err := a.HandlePacket(pngBytes(t, 5, 1), true); err != nil {
		t.Fatal(err)
	}
	if r := receive(t, out); r.Frame == nil || r.Frame.Width != 5 {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestAdapterInvalidMessage(t *testing.T) {
	var logs bytes.Buffer
	a, out, _ := newTestAdapter(t, logger.NewWriter(&logs))

	err := a.HandlePacket([]byte(`{"type":"bogus","path":"x"}`), false)
	if !errors.Is(err, protocol.ErrInvalidMessage) {
		t.Fatalf("err = %v", err)
	}
	if s := a.Stats(); s.ParseFailures != 1 || s.Received != 0 {
		t.Errorf("stats = %+v", s)
	}
	if n := strings.Count(logs.String(), "\n"); n != 1 {
		t.Errorf("diagnostics = %d, want 1:\n%s", n, logs.String())
	}
	select {
	case r := <-out:
		t.Fatalf("unexpected result %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAdapterDecodeFailure(t *testing.T) {
	a, out, _ := newTestAdapter(t, nil)

	corrupt := `{"type":"new_frame","data":"data:image/jpeg;base64,` +
		base64.StdEncoding.EncodeToString([]byte("not a jpeg")) + `"}`
	if err := a.HandlePacket([]byte(corrupt), false); err != nil {
		t.Fatal(err)
	}
	if err := a.Handle(protocol.NewFrame{Path: filepath.Join(t.TempDir(), "missing.jpg")}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for a.Stats().DecodeFailures < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("stats = %+v", a.Stats())
		}
		time.Sleep(5 * time.Millisecond)
	}
	select {
	case r := <-out:
		t.Fatalf("unexpected result %+v", r)
	default:
	}

	// the stream keeps going after failures
	if err := a.HandlePacket(pngBytes(t, 1, 1), true); err != nil {
		t.Fatal(err)
	}
	if r := receive(t, out); r.Frame == nil {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestAdapterCaption(t *testing.T) {
	a, out, _ := newTestAdapter(t, nil)
	if err := a.HandlePacket([]byte(`{"type":"explain_result","caption":"a dog"}`), false); err != nil {
		t.Fatal(err)
	}
	r := receive(t, out)
	if r.Caption == nil || r.Caption.Caption != "a dog" {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestAdapterClosed(t *testing.T) {
	a, _, _ := newTestAdapter(t, nil)
	a.Close()
	if err := a.Handle(protocol.NewFrame{Data: "AAAA"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestGeneration(t *testing.T) {
	var g Generation
	old := g.Current()
	g.Advance()
	if g.Valid(old) {
		t.Fatalf("stale generation still valid")
	}
	if !g.Valid(g.Current()) {
		t.Fatalf("current generation invalid")
	}
}

func TestAdapterCustomDecoder(t *testing.T) {
	out := make(chan Result, 1)
	a := NewAdapter(out, &Generation{}, Options{
		Decoder: decoder.Func(func(data []byte) (*image.RGBA, error) {
			return image.NewRGBA(image.Rect(0, 0, len(data), 1)), nil
		}),
	})
	a.Start(context.Background())
	defer a.Close()

	if err := a.HandlePacket([]byte{1, 2, 3}, true); err != nil {
		t.Fatal(err)
	}
	if r := receive(t, out); r.Frame == nil || r.Frame.Width != 3 {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestAdapterKeepsAnnouncementOrder(t *testing.T) {
	out := make(chan Result, 4)
	a := NewAdapter(out, &Generation{}, Options{
		Workers: 3,
		Decoder: decoder.Func(func(data []byte) (*image.RGBA, error) {
			switch data[0] {
			case 0:
				time.Sleep(100 * time.Millisecond)
			case 2:
				return nil, errors.New("corrupt")
			}
			return image.NewRGBA(image.Rect(0, 0, int(data[0])+1, 1)), nil
		}),
	})
	a.Start(context.Background())
	defer a.Close()

	for i := byte(0); i < 4; i++ {
		if err := a.HandlePacket([]byte{i}, true); err != nil {
			t.Fatal(err)
		}
	}
	// width encodes the announcement index; index 2 fails to decode
	for _, want := range []int{1, 2, 4} {
		r := receive(t, out)
		if r.Frame == nil || r.Frame.Width != want {
			t.Fatalf("got %+v, want frame of width %d", r.Frame, want)
		}
	}
	if s := a.Stats(); s.Decoded != 3 || s.DecodeFailures != 1 {
		t.Errorf("stats = %+v", s)
	}
}
