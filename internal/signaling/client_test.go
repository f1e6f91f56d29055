package signaling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestClientRegisterAndDispatch(t *testing.T) {
	registered := make(chan Message, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		defer conn.Close()
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Error(err)
			return
		}
		registered <- msg
		_ = conn.WriteJSON(Message{Type: TypeRegistered})
		_ = conn.WriteJSON(Message{Type: TypeAnswer, From: "host-1", Payload: json.RawMessage(`{"sdp":"x"}`)})
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	ready := make(chan struct{})
	answers := make(chan string, 1)
	c := NewClient("ws"+strings.TrimPrefix(srv.URL, "http"), "viewer-1", ClientTypeViewer, Handler{
		OnRegistered: func() { close(ready) },
		OnAnswer: func(from string, payload json.RawMessage) {
			var v struct{ SDP string }
			if err := Unmarshal(payload, &v); err != nil {
				t.Error(err)
			}
			answers <- from + ":" + v.SDP
		},
	}, nil)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	select {
	case msg := <-registered:
		if msg.Type != TypeRegister || msg.ID != "viewer-1" || msg.ClientType != ClientTypeViewer {
			t.Errorf("register = %+v", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no register message")
	}
	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("OnRegistered not called")
	}
	select {
	case got := <-answers:
		if got != "host-1:x" {
			t.Errorf("answer = %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("OnAnswer not called")
	}
}

func TestServerRelaysOffer(t *testing.T) {
	srv := httptest.NewServer(NewServer(nil))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	hostReady := make(chan struct{})
	offers := make(chan string, 1)
	host := NewClient(url, "host-1", ClientTypeHost, Handler{
		OnRegistered: func() { close(hostReady) },
		OnOffer:      func(from string, _ json.RawMessage) { offers <- from },
	}, nil)
	if err := host.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer host.Close()
	<-hostReady

	hosts := make(chan []HostInfo, 1)
	viewer := NewClient(url, "viewer-1", ClientTypeViewer, Handler{
		OnHostsUpdated: func(list []HostInfo) { hosts <- list },
	}, nil)
	if err := viewer.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer viewer.Close()

	if err := viewer.RequestHostList(); err != nil {
		t.Fatal(err)
	}
	select {
	case list := <-hosts:
		if len(list) != 1 || list[0].ID != "host-1" {
			t.Errorf("hosts = %+v", list)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no host list")
	}

	if err := viewer.SendOffer("host-1", json.RawMessage(`{}`)); err != nil {
		t.Fatal(err)
	}
	select {
	case from := <-offers:
		if from != "viewer-1" {
			t.Errorf("offer from %q", from)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("offer not relayed")
	}
}
