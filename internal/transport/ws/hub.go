package ws

import (
	"encoding/json"
	"sync"

	"mindtracking/internal/platform/logger"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Server-sent message types
const (
	MsgDiaryAnalyzed  MessageType = "diary_analyzed"
	MsgDiagnosisReady MessageType = "diagnosis_ready"
	MsgScoreUpdated   MessageType = "score_updated"
	MsgError          MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans events out to every open connection of a user.
// A user may have several tabs or devices connected at once.
type Hub struct {
	conns map[string]map[string]*Connection // userID -> connID -> conn

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	closeOnce  sync.Once

	log *logger.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	ID     string
	UserID string
	Send   chan []byte
	Hub    *Hub
}

// BroadcastMessage is a message addressed to one user
type BroadcastMessage struct {
	UserID  string
	Message *Message
}

// NewHub creates a new WebSocket hub and starts its loop
func NewHub(log *logger.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		log:        log,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for userID, byID := range h.conns {
				for _, conn := range byID {
					close(conn.Send)
				}
				delete(h.conns, userID)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.UserID] == nil {
				h.conns[conn.UserID] = make(map[string]*Connection)
			}
			h.conns[conn.UserID][conn.ID] = conn
			h.mu.Unlock()
			h.log.Debug("ws connected", "user", conn.UserID, "conn", conn.ID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if byID, ok := h.conns[conn.UserID]; ok {
				if existing, ok := byID[conn.ID]; ok && existing == conn {
					delete(byID, conn.ID)
					close(conn.Send)
					if len(byID) == 0 {
						delete(h.conns, conn.UserID)
					}
					h.log.Debug("ws disconnected", "user", conn.UserID, "conn", conn.ID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.log.Error("ws marshal failed", "type", msg.Message.Type, "error", err)
				continue
			}
			h.mu.RLock()
			for _, conn := range h.conns[msg.UserID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// SendToUser queues an event for every connection of userID (implements service.Broadcaster)
func (h *Hub) SendToUser(userID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("ws payload marshal failed", "type", msgType, "error", err)
		return
	}
	msg := &BroadcastMessage{
		UserID:  userID,
		Message: &Message{Type: MessageType(msgType), Payload: data},
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.log.Warn("ws broadcast queue full, dropping event", "user", userID, "type", msgType)
	}
}

// Connected returns the number of open connections for userID
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Close stops the hub and closes every connection's send channel
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
