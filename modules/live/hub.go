package live

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one websocket subscriber watching a single board.
type Client struct {
	ID      string
	UserID  string
	BoardID string
	Conn    Conn
}

// Hub fans board change notifications out to the clients watching each board.
// All map mutations happen on the Run goroutine.
type Hub struct {
	clients    map[string]*Client
	boards     map[string]map[string]bool // boardID -> set of clientIDs
	register   chan *Client
	unregister chan *Client
	broadcast  chan *boardMessage
	done       chan struct{}
	mu         sync.RWMutex
	logger     types.Logger
}

type boardMessage struct {
	BoardID string
	Payload any
}

// NewHub creates a new Hub.
func NewHub(logger types.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		boards:     make(map[string]map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *boardMessage, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case msg := <-h.broadcast:
			h.handleBroadcast(msg)
		}
	}
}

// Wait blocks until Run has returned.
func (h *Hub) Wait() {
	<-h.done
}

// Register adds a client. It is a no-op once the hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		_ = client.Conn.Close()
	}
}

// Unregister removes a client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues payload for every client watching boardID.
func (h *Hub) Broadcast(boardID string, payload any) {
	select {
	case h.broadcast <- &boardMessage{BoardID: boardID, Payload: payload}:
	case <-h.done:
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.boards = make(map[string]map[string]bool)
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	if h.boards[client.BoardID] == nil {
		h.boards[client.BoardID] = make(map[string]bool)
	}
	h.boards[client.BoardID][client.ID] = true
	h.logger.Debug("Client registered", "client_id", client.ID, "board_id", client.BoardID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	if watchers := h.boards[client.BoardID]; watchers != nil {
		delete(watchers, client.ID)
		if len(watchers) == 0 {
			delete(h.boards, client.BoardID)
		}
	}
	h.logger.Debug("Client unregistered", "client_id", client.ID, "board_id", client.BoardID)
}

func (h *Hub) handleBroadcast(msg *boardMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	watchers, ok := h.boards[msg.BoardID]
	if !ok {
		return
	}

	data, err := json.Marshal(msg.Payload)
	if err != nil {
		h.logger.Error("Failed to marshal board notification", "error", err)
		return
	}

	for clientID := range watchers {
		client, ok := h.clients[clientID]
		if !ok {
			continue
		}
		if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Warn("Failed to notify client", "client_id", client.ID, "error", err)
		}
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BoardClientCount returns the number of clients watching boardID.
func (h *Hub) BoardClientCount(boardID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.boards[boardID])
}
