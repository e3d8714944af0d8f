// Package live pushes board change notifications to websocket subscribers.
package live

import (
	"context"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/fillip1984/inveniam/events"
)

// BoardChangedType is the message type sent on every board change.
const BoardChangedType = "board_changed"

// BoardChangedMessage is the JSON frame written to subscribers.
type BoardChangedMessage struct {
	Type      string    `json:"type"`
	BoardID   string    `json:"board_id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// LiveModule consumes bucket and task change events and relays them to the
// websocket clients watching the affected board.
type LiveModule struct {
	hub       *Hub
	cancelHub context.CancelFunc
	logger    types.Logger
}

var (
	_ mono.Module                = (*LiveModule)(nil)
	_ mono.EventConsumerModule   = (*LiveModule)(nil)
	_ mono.HealthCheckableModule = (*LiveModule)(nil)
)

// NewModule creates a new LiveModule.
func NewModule(logger types.Logger) *LiveModule {
	return &LiveModule{
		hub:    NewHub(logger),
		logger: logger,
	}
}

// Name returns the module name.
func (m *LiveModule) Name() string {
	return "live"
}

// Start runs the hub.
func (m *LiveModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	m.logger.Info("Live module started")
	return nil
}

// Stop closes all subscriber connections.
func (m *LiveModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	m.logger.Info("Live module stopped", "clients", clientCount)
	return nil
}

// Health returns the health status.
func (m *LiveModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers subscribes to board change events.
func (m *LiveModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.BucketsChangedV1, m.handleBoardChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register BucketsChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.TasksChangedV1, m.handleBoardChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register TasksChanged consumer: %w", err)
	}
	m.logger.Info("Registered event consumers", "events", "BucketsChanged,TasksChanged")
	return nil
}

func (m *LiveModule) handleBoardChanged(_ context.Context, event events.BoardChangedEvent, _ *mono.Msg) error {
	if event.BoardID == "" {
		return nil
	}
	m.hub.Broadcast(event.BoardID, BoardChangedMessage{
		Type:      BoardChangedType,
		BoardID:   event.BoardID,
		Kind:      event.Kind,
		Timestamp: event.Timestamp,
	})
	return nil
}

// Serve holds a subscriber connection open until the client goes away.
// Ownership of boardID must be checked before the upgrade.
func (m *LiveModule) Serve(c *websocket.Conn, userID, boardID string) {
	client := &Client{
		ID:      uuid.New().String(),
		UserID:  userID,
		BoardID: boardID,
		Conn:    c,
	}
	m.hub.Register(client)
	defer func() {
		m.hub.Unregister(client)
		_ = c.Close()
	}()

	// Inbound frames are ignored; reading detects the close.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.logger.Warn("Websocket error", "client_id", client.ID, "error", err)
			}
			return
		}
	}
}

// Hub returns the subscriber hub.
func (m *LiveModule) Hub() *Hub {
	return m.hub
}
