package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Define notification types
const (
	NotificationTypeConnected = "connected"
	NotificationTypeSale      = "sale"
)

const writeWait = 10 * time.Second

// Notification represents a message sent over WebSocket
type Notification struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Client is one open sales page of an admin
type Client struct {
	AdminID primitive.ObjectID
	Conn    *websocket.Conn

	writeMu sync.Mutex
}

// WriteJSON serializes writes; gorilla connections allow one writer at a time
func (c *Client) WriteJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteJSON(v)
}

// Hub maintains the connected admins and pushes sale notifications to them
type Hub struct {
	clients    map[primitive.ObjectID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[primitive.ObjectID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.AdminID] == nil {
				h.clients[client.AdminID] = make(map[*Client]bool)
			}
			h.clients[client.AdminID][client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.AdminID]; ok {
				delete(set, client)
				if len(set) == 0 {
					delete(h.clients, client.AdminID)
				}
			}
			client.Conn.Close()
			h.mu.Unlock()
		case <-h.done:
			h.mu.Lock()
			for _, set := range h.clients {
				for client := range set {
					client.Conn.Close()
				}
			}
			h.clients = make(map[primitive.ObjectID]map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Stop closes every connection and ends Run
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Connected reports how many pages adminID has open
func (h *Hub) Connected(adminID primitive.ObjectID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[adminID])
}

// SendToAdmin delivers a notification to every open page of adminID.
// Admins without an open page are skipped silently.
func (h *Hub) SendToAdmin(adminID primitive.ObjectID, notification Notification) error {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[adminID]))
	for client := range h.clients[adminID] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	var firstErr error
	for _, client := range targets {
		if err := client.WriteJSON(notification); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NotifySale tells an admin that some of their products were just ordered
func (h *Hub) NotifySale(adminID primitive.ObjectID, saleData interface{}) error {
	notification := Notification{
		Type:    NotificationTypeSale,
		Message: "New order received",
		Data:    saleData,
	}

	return h.SendToAdmin(adminID, notification)
}
