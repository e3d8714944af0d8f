package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/fillip1984/inveniam/config"
	"github.com/fillip1984/inveniam/domain/kanban"
	"github.com/fillip1984/inveniam/events"
	"github.com/fillip1984/inveniam/mail"
	"github.com/fillip1984/inveniam/modules/auth"
	"github.com/fillip1984/inveniam/store"
)

// TasksModule provides task, status report and digest services.
type TasksModule struct {
	store    *store.Store
	service  *Service
	digest   *Digest
	eventBus mono.EventBus
	logger   types.Logger
}

var (
	_ mono.Module                = (*TasksModule)(nil)
	_ mono.ServiceProviderModule = (*TasksModule)(nil)
	_ mono.DependentModule       = (*TasksModule)(nil)
	_ mono.EventEmitterModule    = (*TasksModule)(nil)
	_ mono.HealthCheckableModule = (*TasksModule)(nil)
)

// NewModule creates a new TasksModule.
func NewModule(st *store.Store, cfg config.Config, mailer mail.Mailer, logger types.Logger) *TasksModule {
	service := NewService(NewRepository(st.DB()), nil, cfg.Location(), logger)
	return &TasksModule{
		store:   st,
		service: service,
		digest:  NewDigest(service, mailer, cfg.App.BaseURL, cfg.Report.TriggerToken, cfg.Report.Concurrency),
		logger:  logger,
	}
}

// Name returns the module name.
func (m *TasksModule) Name() string {
	return "tasks"
}

// Dependencies returns the modules this module depends on.
func (m *TasksModule) Dependencies() []string {
	return []string{"auth"}
}

// SetDependencyServiceContainer receives the auth container for profiles.
func (m *TasksModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "auth" {
		m.service.profile = auth.NewAuthAdapter(container)
	}
}

// SetEventBus receives the EventBus from the framework.
func (m *TasksModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *TasksModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TasksChangedV1.ToBase(),
		events.ReportSentV1.ToBase(),
	}
}

// Start initializes the module.
func (m *TasksModule) Start(_ context.Context) error {
	if m.service.profile == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.eventBus == nil {
		m.logger.Warn("Event bus not set, task events will not be published")
	}
	m.logger.Info("Tasks module started", "digest_concurrency", m.digest.concurrency)
	return nil
}

// Stop shuts down the module.
func (m *TasksModule) Stop(_ context.Context) error {
	m.logger.Info("Tasks module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *TasksModule) Health(ctx context.Context) mono.HealthStatus {
	if err := m.store.Ping(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

// RegisterServices registers request-reply services in the service container.
func (m *TasksModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create", json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register create service: %w", err)
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
		container, "update-positions", json.Unmarshal, json.Marshal, m.handleUpdatePositions,
	); err != nil {
		return fmt.Errorf("failed to register update-positions service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "delete", json.Unmarshal, json.Marshal, m.handleDelete,
	); err != nil {
		return fmt.Errorf("failed to register delete service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "status", json.Unmarshal, json.Marshal, m.handleStatus,
	); err != nil {
		return fmt.Errorf("failed to register status service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "send-report-email", json.Unmarshal, json.Marshal, m.handleSendReportEmail,
	); err != nil {
		return fmt.Errorf("failed to register send-report-email service: %w", err)
	}

	m.logger.Info("Registered tasks services",
		"services", "create, read-one, update, update-positions, delete, status, send-report-email")
	return nil
}

func (m *TasksModule) handleCreate(_ context.Context, req CreateTaskRequest, _ *mono.Msg) (kanban.Task, error) {
	task, err := m.service.Create(req.UserID, req)
	if err != nil {
		return kanban.Task{}, err
	}
	m.publishForBucket(task.BucketID, req.UserID, "created")
	return *task, nil
}

func (m *TasksModule) handleReadOne(_ context.Context, req TaskIDRequest, _ *mono.Msg) (kanban.Task, error) {
	task, err := m.service.ReadOne(req.UserID, req.TaskID)
	if err != nil {
		return kanban.Task{}, err
	}
	return *task, nil
}

func (m *TasksModule) handleUpdate(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (kanban.Task, error) {
	task, res, err := m.service.Update(ctx, req.UserID, req)
	if err != nil {
		return kanban.Task{}, err
	}
	if res.FromBucketID != res.ToBucketID {
		m.logger.Info("Task moved", "id", task.ID, "from", res.FromBucketID, "to", res.ToBucketID)
	}
	m.publish(res.BoardID, req.UserID, "updated")
	return *task, nil
}

func (m *TasksModule) handleUpdatePositions(_ context.Context, req UpdatePositionsRequest, _ *mono.Msg) (Empty, error) {
	boardIDs, err := m.service.UpdatePositions(req.UserID, req.Tasks)
	if err != nil {
		m.logger.Warn("Task reorder rejected", "user_id", req.UserID, "error", err)
		return Empty{}, err
	}
	for _, id := range boardIDs {
		m.publish(id, req.UserID, "reordered")
	}
	return Empty{}, nil
}

func (m *TasksModule) handleDelete(_ context.Context, req TaskIDRequest, _ *mono.Msg) (kanban.Task, error) {
	task, err := m.service.Delete(req.UserID, req.TaskID)
	if err != nil {
		return kanban.Task{}, err
	}
	m.publishForBucket(task.BucketID, req.UserID, "deleted")
	return *task, nil
}

func (m *TasksModule) handleStatus(ctx context.Context, req StatusRequest, _ *mono.Msg) (StatusResponse, error) {
	return m.service.Status(ctx, req.UserID)
}

func (m *TasksModule) handleSendReportEmail(ctx context.Context, req SendReportRequest, _ *mono.Msg) (SendReportResponse, error) {
	if err := m.digest.Authorize(req.Token); err != nil {
		m.logger.Warn("Rejected status report trigger")
		return SendReportResponse{}, err
	}
	resp, err := m.digest.Send(ctx)
	if err != nil {
		return SendReportResponse{}, err
	}
	m.logger.Info("Status reports sent", "sent", resp.Sent, "failed", resp.Failed, "skipped", resp.Skipped)

	if m.eventBus != nil {
		ev := events.ReportSentEvent{
			Sent:      resp.Sent,
			Failed:    resp.Failed,
			Skipped:   resp.Skipped,
			Timestamp: time.Now(),
		}
		if err := events.ReportSentV1.Publish(m.eventBus, ev, nil); err != nil {
			m.logger.Error("Failed to publish ReportSent event", "error", err)
		}
	}
	return resp, nil
}

func (m *TasksModule) publishForBucket(bucketID, userID, action string) {
	if m.eventBus == nil {
		return
	}
	boardID, err := m.service.repo.BoardOf(bucketID)
	if err != nil {
		m.logger.Warn("Cannot resolve board for task event", "bucket_id", bucketID, "error", err)
		return
	}
	m.publish(boardID, userID, action)
}

func (m *TasksModule) publish(boardID, userID, action string) {
	if m.eventBus == nil {
		return
	}
	ev := events.BoardChangedEvent{
		BoardID:   boardID,
		UserID:    userID,
		Kind:      events.KindTasks,
		Action:    action,
		Timestamp: time.Now(),
	}
	if err := events.TasksChangedV1.Publish(m.eventBus, ev, nil); err != nil {
		m.logger.Error("Failed to publish task event", "board_id", boardID, "error", err)
	}
}
