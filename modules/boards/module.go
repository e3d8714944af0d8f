package boards

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/fillip1984/inveniam/domain/kanban"
	"github.com/fillip1984/inveniam/events"
	"github.com/fillip1984/inveniam/modules/auth"
	"github.com/fillip1984/inveniam/store"
)

// BoardsModule provides board and bucket services.
type BoardsModule struct {
	store    *store.Store
	repo     *Repository
	service  *Service
	loc      *time.Location
	eventBus mono.EventBus
	logger   types.Logger
}

var (
	_ mono.Module                = (*BoardsModule)(nil)
	_ mono.ServiceProviderModule = (*BoardsModule)(nil)
	_ mono.DependentModule       = (*BoardsModule)(nil)
	_ mono.EventEmitterModule    = (*BoardsModule)(nil)
	_ mono.HealthCheckableModule = (*BoardsModule)(nil)
)

// NewModule creates a new BoardsModule. loc is the default user timezone.
func NewModule(st *store.Store, loc *time.Location, logger types.Logger) *BoardsModule {
	repo := NewRepository(st.DB())
	return &BoardsModule{
		store:   st,
		repo:    repo,
		service: NewService(repo, nil, loc, logger),
		loc:     loc,
		logger:  logger,
	}
}

// Name returns the module name.
func (m *BoardsModule) Name() string {
	return "boards"
}

// Dependencies returns the modules this module depends on.
func (m *BoardsModule) Dependencies() []string {
	return []string{"auth"}
}

// SetDependencyServiceContainer receives the auth container for timezone lookups.
func (m *BoardsModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "auth" {
		m.service.profile = auth.NewAuthAdapter(container)
	}
}

// SetEventBus receives the EventBus from the framework.
func (m *BoardsModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *BoardsModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.BucketsChangedV1.ToBase(),
	}
}

// Start initializes the module.
func (m *BoardsModule) Start(_ context.Context) error {
	if m.service.profile == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.eventBus == nil {
		m.logger.Warn("Event bus not set, board events will not be published")
	}
	m.logger.Info("Boards module started", "default_timezone", m.loc.String())
	return nil
}

// Stop shuts down the module.
func (m *BoardsModule) Stop(_ context.Context) error {
	m.logger.Info("Boards module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *BoardsModule) Health(ctx context.Context) mono.HealthStatus {
	if err := m.store.Ping(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

// RegisterServices registers request-reply services in the service container.
func (m *BoardsModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create", json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register create service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "read-all", json.Unmarshal, json.Marshal, m.handleReadAll,
	); err != nil {
		return fmt.Errorf("failed to register read-all service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "read-one", json.Unmarshal, json.Marshal, m.handleReadOne,
	); err != nil {
		return fmt.Errorf("failed to register read-one service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "update", json.Unmarshal, json.Marshal, m.handleUpdate,
	); err != nil {
		return fmt.Errorf("failed to register update service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "delete", json.Unmarshal, json.Marshal, m.handleDelete,
	); err != nil {
		return fmt.Errorf("failed to register delete service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "add-bucket", json.Unmarshal, json.Marshal, m.handleAddBucket,
	); err != nil {
		return fmt.Errorf("failed to register add-bucket service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "remove-bucket", json.Unmarshal, json.Marshal, m.handleRemoveBucket,
	); err != nil {
		return fmt.Errorf("failed to register remove-bucket service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "update-bucket-positions", json.Unmarshal, json.Marshal, m.handleUpdateBucketPositions,
	); err != nil {
		return fmt.Errorf("failed to register update-bucket-positions service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "read-all-buckets", json.Unmarshal, json.Marshal, m.handleReadAllBuckets,
	); err != nil {
		return fmt.Errorf("failed to register read-all-buckets service: %w", err)
	}

	m.logger.Info("Registered boards services",
		"services", "create, read-all, read-one, update, delete, add-bucket, remove-bucket, update-bucket-positions, read-all-buckets")
	return nil
}

func (m *BoardsModule) handleCreate(_ context.Context, req CreateBoardRequest, _ *mono.Msg) (kanban.Board, error) {
	board, err := m.service.Create(req.UserID, req.Name, req.Description)
	if err != nil {
		return kanban.Board{}, err
	}
	m.logger.Info("Board created", "id", board.ID, "user_id", req.UserID)
	m.publish(board.ID, req.UserID, events.KindBoard, "created")
	return *board, nil
}

func (m *BoardsModule) handleReadAll(_ context.Context, req ReadAllRequest, _ *mono.Msg) (ReadAllResponse, error) {
	return m.service.ReadAll(req.UserID)
}

func (m *BoardsModule) handleReadOne(ctx context.Context, req ReadOneRequest, _ *mono.Msg) (kanban.Board, error) {
	board, err := m.service.ReadOne(ctx, req.UserID, req.ID, req.Search)
	if err != nil {
		return kanban.Board{}, err
	}
	return *board, nil
}

func (m *BoardsModule) handleUpdate(_ context.Context, req UpdateBoardRequest, _ *mono.Msg) (kanban.Board, error) {
	board, err := m.service.Update(req.UserID, req.ID, req.Name, req.Description)
	if err != nil {
		return kanban.Board{}, err
	}
	m.publish(board.ID, req.UserID, events.KindBoard, "updated")
	return *board, nil
}

func (m *BoardsModule) handleDelete(_ context.Context, req DeleteBoardRequest, _ *mono.Msg) (Empty, error) {
	if err := m.service.Delete(req.UserID, req.ID); err != nil {
		return Empty{}, err
	}
	m.logger.Info("Board deleted", "id", req.ID, "user_id", req.UserID)
	m.publish(req.ID, req.UserID, events.KindBoard, "deleted")
	return Empty{}, nil
}

func (m *BoardsModule) handleAddBucket(_ context.Context, req AddBucketRequest, _ *mono.Msg) (kanban.Bucket, error) {
	bucket, err := m.service.AddBucket(req.UserID, req.BoardID, req.BucketName, req.Position)
	if err != nil {
		return kanban.Bucket{}, err
	}
	m.publish(bucket.BoardID, req.UserID, events.KindBuckets, "added")
	return *bucket, nil
}

func (m *BoardsModule) handleRemoveBucket(_ context.Context, req RemoveBucketRequest, _ *mono.Msg) (kanban.Bucket, error) {
	bucket, err := m.service.RemoveBucket(req.UserID, req.BucketID)
	if err != nil {
		return kanban.Bucket{}, err
	}
	m.publish(bucket.BoardID, req.UserID, events.KindBuckets, "removed")
	return *bucket, nil
}

func (m *BoardsModule) handleUpdateBucketPositions(_ context.Context, req UpdateBucketPositionsRequest, _ *mono.Msg) (Empty, error) {
	boardIDs, err := m.service.UpdateBucketPositions(req.UserID, req.Buckets)
	if err != nil {
		m.logger.Warn("Bucket reorder rejected", "user_id", req.UserID, "error", err)
		return Empty{}, err
	}
	for _, id := range boardIDs {
		m.publish(id, req.UserID, events.KindBuckets, "reordered")
	}
	return Empty{}, nil
}

func (m *BoardsModule) handleReadAllBuckets(_ context.Context, req ReadAllBucketsRequest, _ *mono.Msg) (ReadAllBucketsResponse, error) {
	return m.service.ReadAllBuckets(req.UserID, req.BoardID)
}

func (m *BoardsModule) publish(boardID, userID, kind, action string) {
	if m.eventBus == nil {
		return
	}
	ev := events.BoardChangedEvent{
		BoardID:   boardID,
		UserID:    userID,
		Kind:      kind,
		Action:    action,
		Timestamp: time.Now(),
	}
	if err := events.BucketsChangedV1.Publish(m.eventBus, ev, nil); err != nil {
		m.logger.Error("Failed to publish board event", "board_id", boardID, "error", err)
	}
}
