package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/junsooki/FrameFade/internal/protocol"
)

type packet struct {
	data   []byte
	binary bool
}

func collect(ch chan packet) PacketHandler {
	return func(data []byte, binary bool) { ch <- packet{data, binary} }
}

func next(t *testing.T, ch <-chan packet) packet {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a packet")
		return packet{}
	}
}

func TestWebSocketRoundTrip(t *testing.T) {
	commands := make(chan protocol.Command, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		ws, err := Accept(rw, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		defer ws.Close()
		_ = ws.SendPacket([]byte(`{"type":"new_frame","path":"a.jpg"}`), false)
		_ = ws.SendPacket([]byte{0xff, 0xd8}, true)
		_, data, err := ws.conn.ReadMessage()
		if err != nil {
			t.Error(err)
			return
		}
		cmd, err := protocol.ParseCommand(data)
		if err != nil {
			t.Error(err)
		}
		commands <- cmd
	}))
	defer srv.Close()

	ws, err := DialWebSocket(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()
	packets := make(chan packet, 4)
	ws.OnPacket(collect(packets))
	ws.Start()

	if p := next(t, packets); p.binary || string(p.data) != `{"type":"new_frame","path":"a.jpg"}` {
		t.Errorf("first packet = %+v", p)
	}
	if p := next(t, packets); !p.binary || len(p.data) != 2 {
		t.Errorf("second packet = %+v", p)
	}

	want := protocol.NewExplain("a.jpg", "req-1")
	if err := ws.Send(want); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-commands:
		if got != want {
			t.Errorf("server got %+v, want %+v", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("command not received")
	}

	select {
	case <-ws.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("client did not notice the server closing")
	}
	if err := ws.Send(want); err == nil {
		t.Error("send after close succeeded")
	}
}

func TestWatchAnnouncesImages(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "a.png")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatch(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	packets := make(chan packet, 4)
	w.OnPacket(collect(packets))
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{existing, filepath.Join(dir, "b.JPG")} {
		if want != existing {
			if err := os.WriteFile(want, []byte("y"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		p := next(t, packets)
		msg, err := protocol.Parse(p.data)
		if err != nil {
			t.Fatal(err)
		}
		if nf, ok := msg.(protocol.NewFrame); !ok || nf.Path != want {
			t.Errorf("announced %+v, want %s", msg, want)
		}
	}
}

func TestDataChannelWithoutChannels(t *testing.T) {
	dc := NewDataChannel(nil, nil)
	if err := dc.Send(protocol.NewExplain("a", "b")); !errors.Is(err, errNoChannel) {
		t.Errorf("Send = %v", err)
	}
	if err := dc.SendPacket([]byte("x"), true); !errors.Is(err, errNoChannel) {
		t.Errorf("SendPacket = %v", err)
	}
	if dc.Ready() {
		t.Error("Ready without a channel")
	}
	if err := dc.Close(); err != nil {
		t.Error(err)
	}
}
