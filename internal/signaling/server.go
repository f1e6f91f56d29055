package signaling

import (
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/junsooki/FrameFade/internal/logger"
)

// Server is a minimal signaling relay. Clients register with an id and a
// type; offers, answers and ICE candidates are forwarded to their target
// with the sender filled in.
type Server struct {
	upgrader websocket.Upgrader
	log      *logger.Logger

	mu      sync.Mutex
	clients map[string]*member
}

type member struct {
	id   string
	kind string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (m *member) send(msg Message) error {
	data, err := codec.Marshal(msg)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return m.conn.WriteMessage(websocket.TextMessage, data)
}

func NewServer(log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		log:      log.Component("signaling"),
		clients:  make(map[string]*member),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	var self *member
	defer func() {
		if self != nil {
			s.leave(self)
		}
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := codec.Unmarshal(data, &msg); err != nil {
			s.log.Warn().Err(err).Msg("bad signaling message")
			continue
		}
		if self == nil {
			if msg.Type != TypeRegister || msg.ID == "" {
				_ = (&member{conn: conn}).send(Message{Type: TypeError, Msg: "register first"})
				continue
			}
			self = &member{id: msg.ID, kind: msg.ClientType, conn: conn}
			s.join(self)
			continue
		}
		s.route(self, msg)
	}
}

func (s *Server) join(m *member) {
	s.mu.Lock()
	s.clients[m.id] = m
	s.mu.Unlock()
	s.log.Info().Str("id", m.id).Str("type", m.kind).Msg("client registered")
	_ = m.send(Message{Type: TypeRegistered, ID: m.id, Timestamp: time.Now().UnixMilli()})
	if m.kind == ClientTypeHost {
		s.broadcastHosts()
	}
}

func (s *Server) leave(m *member) {
	s.mu.Lock()
	if s.clients[m.id] == m {
		delete(s.clients, m.id)
	}
	s.mu.Unlock()
	s.log.Info().Str("id", m.id).Msg("client left")
	if m.kind == ClientTypeHost {
		for _, v := range s.members(ClientTypeViewer) {
			_ = v.send(Message{Type: TypeHostDisconnected, HostID: m.id})
		}
		s.broadcastHosts()
	}
}

func (s *Server) route(from *member, msg Message) {
	switch msg.Type {
	case TypePing:
		_ = from.send(Message{Type: TypePong, Timestamp: time.Now().UnixMilli()})
	case TypeListHosts:
		_ = from.send(Message{Type: TypeHosts, List: s.Hosts()})
	case TypeOffer, TypeAnswer, TypeICECandidate:
		s.mu.Lock()
		to, ok := s.clients[msg.Target]
		s.mu.Unlock()
		if !ok {
			_ = from.send(Message{Type: TypeError, Msg: "unknown target " + msg.Target})
			return
		}
		msg.From, msg.Target = from.id, ""
		if err := to.send(msg); err != nil {
			s.log.Warn().Err(err).Str("to", to.id).Msg("relay failed")
		}
	default:
		_ = from.send(Message{Type: TypeError, Msg: "unknown type " + msg.Type})
	}
}

// Hosts lists the registered hosts ordered by id.
func (s *Server) Hosts() []HostInfo {
	hosts := s.members(ClientTypeHost)
	out := make([]HostInfo, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, HostInfo{ID: h.id, Online: true})
	}
	slices.SortFunc(out, func(a, b HostInfo) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

func (s *Server) members(kind string) []*member {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*member
	for _, m := range s.clients {
		if m.kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func (s *Server) broadcastHosts() {
	list := s.Hosts()
	for _, v := range s.members(ClientTypeViewer) {
		_ = v.send(Message{Type: TypeHostsUpdated, List: list})
	}
}
