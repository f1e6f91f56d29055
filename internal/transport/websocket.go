package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/junsooki/FrameFade/internal/logger"
	"github.com/junsooki/FrameFade/internal/protocol"
)

const (
	pingPeriod = 25 * time.Second
	writeWait  = 10 * time.Second
	// frames are whole images, allow large messages
	maxMessageSize = 64 << 20
)

// WebSocket is a frame source reached over a WebSocket connection.
type WebSocket struct {
	url  string
	conn *websocket.Conn
	log  *logger.Logger

	mu       sync.Mutex
	onPacket PacketHandler
	done     chan struct{}
	closed   bool
}

// DialWebSocket connects to a frame source. Packets are delivered to the
// handler set with OnPacket once Start is called.
func DialWebSocket(ctx context.Context, url string, log *logger.Logger) (*WebSocket, error) {
	if log == nil {
		log = logger.Nop()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("source dial: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)
	l := log.Component("ws")
	return &WebSocket{
		url:  url,
		conn: conn,
		log:  l.Extend(l.With().Str("url", url)),
		done: make(chan struct{}),
	}, nil
}

func (w *WebSocket) OnPacket(h PacketHandler) {
	w.mu.Lock()
	w.onPacket = h
	w.mu.Unlock()
}

// Start begins reading packets and sending keepalive pings.
func (w *WebSocket) Start() {
	go w.readLoop()
	go w.pingLoop()
}

// Done is closed when the connection ends.
func (w *WebSocket) Done() <-chan struct{} { return w.done }

func (w *WebSocket) Send(cmd protocol.Command) error {
	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	return w.write(websocket.TextMessage, data)
}

// SendPacket writes a raw packet. It is used when a WebSocket connection
// faces a viewer.
func (w *WebSocket) SendPacket(data []byte, binary bool) error {
	t := websocket.TextMessage
	if binary {
		t = websocket.BinaryMessage
	}
	return w.write(t, data)
}

func (w *WebSocket) write(messageType int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return websocket.ErrCloseSent
	}
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(messageType, data)
}

func (w *WebSocket) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return w.conn.Close()
}

func (w *WebSocket) readLoop() {
	defer w.Close()
	for {
		t, data, err := w.conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
			default:
				w.log.Warn().Err(err).Msg("source disconnected")
			}
			return
		}
		w.mu.Lock()
		h := w.onPacket
		w.mu.Unlock()
		if h != nil {
			h(data, t == websocket.BinaryMessage)
		}
	}
}

func (w *WebSocket) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.Lock()
			err := w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			w.mu.Unlock()
			if err != nil {
				w.log.Debug().Err(err).Msg("ping failed")
			}
		}
	}
}

// Upgrader accepts viewer connections on the source side.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1 << 16,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Accept upgrades an HTTP request into a WebSocket that serves a viewer.
func Accept(rw http.ResponseWriter, r *http.Request, log *logger.Logger) (*WebSocket, error) {
	if log == nil {
		log = logger.Nop()
	}
	conn, err := Upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(maxMessageSize)
	l := log.Component("ws")
	return &WebSocket{
		url:  r.RemoteAddr,
		conn: conn,
		log:  l.Extend(l.With().Str("remote", r.RemoteAddr)),
		done: make(chan struct{}),
	}, nil
}
