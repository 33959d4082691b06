package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"election-ledger/internal/api/interfaces"
	"election-ledger/internal/ledger"
	"election-ledger/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks are handled by the CORS middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

// subscriber is one websocket client on the event feed
type subscriber struct {
	conn       *websocket.Conn
	send       chan []byte
	electionID string // empty subscribes to all elections
}

// EventHub fans ledger events out to websocket subscribers
type EventHub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]bool
	log         *logger.Logger
}

// NewEventHub creates a hub and wires it to the ledger's event stream
func NewEventHub(svc *ledger.Service, log *logger.Logger) *EventHub {
	hub := &EventHub{
		subscribers: make(map[*subscriber]bool),
		log:         log.WithComponent("events"),
	}
	svc.OnEvent(hub.broadcast)
	return hub
}

// broadcast delivers an event to matching subscribers. Slow clients
// are dropped rather than blocking the mutating goroutine.
func (h *EventHub) broadcast(event ledger.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("Failed to marshal event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		if sub.electionID != "" && sub.electionID != event.ElectionID {
			continue
		}
		select {
		case sub.send <- payload:
		default:
			delete(h.subscribers, sub)
			close(sub.send)
		}
	}
}

func (h *EventHub) attach(sub *subscriber) {
	h.mu.Lock()
	h.subscribers[sub] = true
	h.mu.Unlock()
}

func (h *EventHub) detach(sub *subscriber) {
	h.mu.Lock()
	if h.subscribers[sub] {
		delete(h.subscribers, sub)
		close(sub.send)
	}
	h.mu.Unlock()
}

// StreamEvents handles GET /api/v1/events, upgrading the connection to
// a websocket that receives ledger events as they commit.
func StreamEvents(hub *EventHub, services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			services.Logger().Error("Websocket upgrade failed: %v", err)
			return
		}

		sub := &subscriber{
			conn:       conn,
			send:       make(chan []byte, 32),
			electionID: c.Query("election_id"),
		}
		hub.attach(sub)

		go sub.writeLoop()
		go sub.readLoop(hub)
	}
}

func (s *subscriber) writeLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so pings are answered and close frames
// are noticed.
func (s *subscriber) readLoop(hub *EventHub) {
	defer func() {
		hub.detach(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(512)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
