package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	// The mock API serves local development; any origin may subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type subscriber struct {
	conn *websocket.Conn
	send chan Message
}

// Hub fans broadcast events out to every connected subscriber. Slow
// subscribers are dropped rather than allowed to block the feed.
type Hub struct {
	register    chan *subscriber
	unregister  chan *subscriber
	broadcast   chan Message
	subscribers map[*subscriber]bool
	mu          sync.RWMutex
	logger      *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		broadcast:   make(chan Message, 256),
		subscribers: make(map[*subscriber]bool),
		logger:      logger,
	}
}

// Run owns the subscriber set; call it in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub] = true
			count := len(h.subscribers)
			h.mu.Unlock()
			h.logger.WithField("subscriber_count", count).Info("Event subscriber connected")

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.send)
			}
			count := len(h.subscribers)
			h.mu.Unlock()
			h.logger.WithField("subscriber_count", count).Info("Event subscriber disconnected")

		case message := <-h.broadcast:
			h.mu.Lock()
			for sub := range h.subscribers {
				select {
				case sub.send <- message:
				default:
					delete(h.subscribers, sub)
					close(sub.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for every subscriber. A full queue drops
// the event rather than blocking the API handler that raised it.
func (h *Hub) Broadcast(eventType string, payload interface{}) {
	message, err := newMessage(eventType, payload)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode event payload")
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("Broadcast channel full, dropping event")
	}
}

// SubscriberCount reports how many connections are on the feed.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// HandleWebSocket upgrades the request and attaches it to the feed.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade to WebSocket")
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan Message, 64),
	}
	h.register <- sub

	go h.writePump(sub)
	go h.readPump(sub)
}

func (h *Hub) readPump(sub *subscriber) {
	defer func() {
		h.unregister <- sub
		sub.conn.Close()
	}()

	sub.conn.SetReadLimit(512)
	sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		sub.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.WithError(err).Error("WebSocket read error")
			}
			return
		}
	}
}

func (h *Hub) writePump(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case message, ok := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
