package tags

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/fillip1984/inveniam/domain/kanban"
	"github.com/fillip1984/inveniam/store"
)

// TagsModule provides tag services.
type TagsModule struct {
	service *Service
	logger  types.Logger
}

var (
	_ mono.Module                = (*TagsModule)(nil)
	_ mono.ServiceProviderModule = (*TagsModule)(nil)
)

// NewModule creates a new TagsModule.
func NewModule(st *store.Store, logger types.Logger) *TagsModule {
	return &TagsModule{
		service: NewService(NewRepository(st.DB())),
		logger:  logger,
	}
}

// Name returns the module name.
func (m *TagsModule) Name() string {
	return "tags"
}

// Start initializes the module.
func (m *TagsModule) Start(_ context.Context) error {
	m.logger.Info("Tags module started")
	return nil
}

// Stop shuts down the module.
func (m *TagsModule) Stop(_ context.Context) error {
	m.logger.Info("Tags module stopped")
	return nil
}

// RegisterServices registers request-reply services in the service container.
func (m *TagsModule) RegisterServices(container mono.ServiceContainer) error {
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

	m.logger.Info("Registered tags services", "services", "create, read-all, read-one, update, delete")
	return nil
}

func (m *TagsModule) handleCreate(_ context.Context, req TagForm, _ *mono.Msg) (kanban.Tag, error) {
	tag, err := m.service.Create(req.UserID, req.Name, req.Description)
	if err != nil {
		return kanban.Tag{}, err
	}
	m.logger.Info("Tag created", "id", tag.ID, "name", tag.Name)
	return *tag, nil
}

func (m *TagsModule) handleReadAll(_ context.Context, req ReadAllRequest, _ *mono.Msg) (ReadAllResponse, error) {
	return m.service.ReadAll(req.UserID, req.Query)
}

func (m *TagsModule) handleReadOne(_ context.Context, req TagIDRequest, _ *mono.Msg) (kanban.Tag, error) {
	tag, err := m.service.ReadOne(req.UserID, req.ID)
	if err != nil {
		return kanban.Tag{}, err
	}
	return *tag, nil
}

func (m *TagsModule) handleUpdate(_ context.Context, req TagForm, _ *mono.Msg) (kanban.Tag, error) {
	tag, err := m.service.Update(req.UserID, req.ID, req.Name, req.Description)
	if err != nil {
		return kanban.Tag{}, err
	}
	return *tag, nil
}

func (m *TagsModule) handleDelete(_ context.Context, req TagIDRequest, _ *mono.Msg) (kanban.Tag, error) {
	tag, err := m.service.Delete(req.UserID, req.ID)
	if err != nil {
		return kanban.Tag{}, err
	}
	m.logger.Info("Tag deleted", "id", tag.ID)
	return *tag, nil
}
