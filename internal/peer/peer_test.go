package peer

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/junsooki/FrameFade/internal/protocol"
	"github.com/junsooki/FrameFade/internal/signaling"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(15 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestViewerHostDataChannels(t *testing.T) {
	if testing.Short() {
		t.Skip("opens a local WebRTC session")
	}
	ICEServers = nil
	settings.SetIncludeLoopbackCandidate(true)

	srv := httptest.NewServer(signaling.NewServer(nil))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	var host *Host
	hostReady := make(chan struct{})
	hostSig := signaling.NewClient(url, "host-1", signaling.ClientTypeHost, signaling.Handler{
		OnRegistered: func() { close(hostReady) },
		OnOffer: func(from string, payload json.RawMessage) {
			if err := host.HandleOffer(from, payload); err != nil {
				t.Error(err)
			}
		},
		OnICECandidate: func(_ string, payload json.RawMessage) { _ = host.HandleICECandidate(payload) },
	}, nil)
	var err error
	if host, err = NewHost(hostSig, nil); err != nil {
		t.Fatal(err)
	}
	defer host.Close()
	if err := hostSig.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer hostSig.Close()
	<-hostReady

	var viewer *Viewer
	viewerReady := make(chan struct{})
	viewerSig := signaling.NewClient(url, "viewer-1", signaling.ClientTypeViewer, signaling.Handler{
		OnRegistered: func() { close(viewerReady) },
		OnAnswer: func(_ string, payload json.RawMessage) {
			if err := viewer.HandleAnswer(payload); err != nil {
				t.Error(err)
			}
		},
		OnICECandidate: func(_ string, payload json.RawMessage) { _ = viewer.HandleICECandidate(payload) },
	}, nil)
	if viewer, err = NewViewer(viewerSig, "host-1", nil); err != nil {
		t.Fatal(err)
	}
	defer viewer.Close()
	if err := viewerSig.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer viewerSig.Close()
	<-viewerReady

	packets := make(chan string, 1)
	viewer.Transport().OnPacket(func(data []byte, binary bool) {
		if !binary {
			packets <- string(data)
		}
	})
	commands := make(chan protocol.Command, 1)
	host.Transport().OnCommand(func(cmd protocol.Command) { commands <- cmd })

	if err := viewer.Connect(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "host frames channel", host.Transport().Ready)
	waitFor(t, "viewer frames channel", viewer.Transport().Ready)

	if err := host.Transport().SendPacket([]byte(`{"type":"new_frame","path":"a.jpg"}`), false); err != nil {
		t.Fatal(err)
	}
	select {
	case p := <-packets:
		if !strings.Contains(p, "a.jpg") {
			t.Errorf("packet = %s", p)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("frame packet not received")
	}

	// the control channel may open after the frames channel
	want := protocol.NewExplain("a.jpg", "id-1")
	waitFor(t, "control channel", func() bool { return viewer.Transport().Send(want) == nil })
	select {
	case got := <-commands:
		if got != want {
			t.Errorf("command = %+v", got)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("command not received")
	}
}
