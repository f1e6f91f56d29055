package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/junsooki/FrameFade/internal/logger"
)

const (
	keepAlive = 25 * time.Second
	writeWait = 10 * time.Second
)

var errNotConnected = errors.New("signaling: not connected")

// Handler receives relayed messages. Nil callbacks are skipped.
type Handler struct {
	OnRegistered       func()
	OnOffer            func(from string, payload json.RawMessage)
	OnAnswer           func(from string, payload json.RawMessage)
	OnICECandidate     func(from string, payload json.RawMessage)
	OnHostsUpdated     func(hosts []HostInfo)
	OnHostDisconnected func(hostID string)
	OnError            func(msg string)
}

// Client is one registered member of a signaling relay, either a host
// or a viewer.
type Client struct {
	url  string
	self Message
	h    Handler
	log  *logger.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	done   chan struct{}
	closed bool
}

func NewClient(url, id, clientType string, h Handler, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	l := log.Component("signaling")
	return &Client{
		url:  url,
		self: Message{Type: TypeRegister, ID: id, ClientType: clientType},
		h:    h,
		log:  l.Extend(l.With().Str("id", id).Str("role", clientType)),
		done: make(chan struct{}),
	}
}

// Connect dials the relay and registers. Callbacks run on the read
// goroutine until the connection ends.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: writeWait}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("signaling dial %s: %w", c.url, err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if err := c.write(c.self); err != nil {
		_ = conn.Close()
		return fmt.Errorf("signaling register: %w", err)
	}
	c.log.Debug().Str("url", c.url).Msg("registering")

	go c.readLoop(conn)
	go c.keepAlive()
	return nil
}

func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *Client) SendOffer(target string, payload json.RawMessage) error {
	return c.relay(TypeOffer, target, payload)
}

func (c *Client) SendAnswer(target string, payload json.RawMessage) error {
	return c.relay(TypeAnswer, target, payload)
}

func (c *Client) SendICECandidate(target string, payload json.RawMessage) error {
	return c.relay(TypeICECandidate, target, payload)
}

// RequestHostList asks the relay for registered hosts; the reply arrives
// through OnHostsUpdated.
func (c *Client) RequestHostList() error {
	return c.write(Message{Type: TypeListHosts})
}

func (c *Client) relay(typ, target string, payload json.RawMessage) error {
	return c.write(Message{Type: typ, Target: target, Payload: payload})
}

func (c *Client) write(msg Message) error {
	data, err := codec.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.closed {
		return errNotConnected
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.log.Warn().Err(err).Msg("relay connection lost")
				} else {
					c.log.Info().Msg("relay closed")
				}
			}
			return
		}
		var msg Message
		if err := codec.Unmarshal(data, &msg); err != nil {
			c.log.Warn().Err(err).Int("size", len(data)).Msg("malformed relay message")
			continue
		}
		c.route(msg)
	}
}

func (c *Client) route(msg Message) {
	h := c.h
	switch {
	case msg.Type == TypeRegistered && h.OnRegistered != nil:
		h.OnRegistered()
	case msg.Type == TypeOffer && h.OnOffer != nil:
		h.OnOffer(msg.From, msg.Payload)
	case msg.Type == TypeAnswer && h.OnAnswer != nil:
		h.OnAnswer(msg.From, msg.Payload)
	case msg.Type == TypeICECandidate && h.OnICECandidate != nil:
		h.OnICECandidate(msg.From, msg.Payload)
	case (msg.Type == TypeHosts || msg.Type == TypeHostsUpdated) && h.OnHostsUpdated != nil:
		h.OnHostsUpdated(msg.List)
	case msg.Type == TypeHostDisconnected && h.OnHostDisconnected != nil:
		h.OnHostDisconnected(msg.HostID)
	case msg.Type == TypeError:
		c.log.Warn().Str("reason", msg.Msg).Msg("relay error")
		if h.OnError != nil {
			h.OnError(msg.Msg)
		}
	case msg.Type == TypePong:
	default:
		c.log.Debug().Str("type", msg.Type).Msg("unhandled")
	}
}

// keepAlive sends application level pings; the relay answers with pong.
func (c *Client) keepAlive() {
	t := time.NewTicker(keepAlive)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			if err := c.write(Message{Type: TypePing, Timestamp: time.Now().UnixMilli()}); err != nil {
				c.log.Debug().Err(err).Msg("ping failed")
			}
		}
	}
}
