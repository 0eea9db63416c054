package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/neurocare-patient-server/internal/domain"
	"github.com/neurocare-patient-server/internal/middleware"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientBuffer   = 16
	maxMessageSize = 512
)

// EventHub fans record-change events out to connected dashboard clients.
// Publishing never blocks: a client that cannot keep up is dropped.
type EventHub struct {
	mu      sync.RWMutex
	clients map[*hubClient]struct{}
	logger  *logrus.Logger
}

type hubClient struct {
	conn *websocket.Conn
	send chan domain.Event
}

// NewEventHub creates an empty hub.
func NewEventHub(logger *logrus.Logger) *EventHub {
	return &EventHub{
		clients: make(map[*hubClient]struct{}),
		logger:  logger,
	}
}

// Publish delivers the event to every connected client.
func (h *EventHub) Publish(event domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- event:
		default:
			// Slow subscriber, drop it
			go h.remove(client)
		}
	}
}

// ClientCount reports the number of connected subscribers.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *EventHub) add(client *hubClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
}

func (h *EventHub) remove(client *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard runs on a different origin in development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleEvents upgrades the connection and streams events. Only admin
// sessions may subscribe.
func (s *Server) handleEvents(c *gin.Context) {
	session := middleware.SessionFrom(c)
	if !session.CanManagePatients() {
		c.JSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := &hubClient{
		conn: conn,
		send: make(chan domain.Event, clientBuffer),
	}
	s.hub.add(client)
	s.logger.WithField("clients", s.hub.ClientCount()).Debug("Event subscriber connected")

	go s.writePump(client)
	go s.readPump(client)
}

// writePump forwards events and keeps the connection alive with pings.
func (s *Server) writePump(client *hubClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case event, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteJSON(event); err != nil {
				s.hub.remove(client)
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.hub.remove(client)
				return
			}
		}
	}
}

// readPump discards inbound messages and notices disconnects.
func (s *Server) readPump(client *hubClient) {
	defer func() {
		s.hub.remove(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
