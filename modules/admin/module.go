package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/fillip1984/inveniam/store"
)

// AdminModule provides export and import of a user's boards.
type AdminModule struct {
	service *Service
	logger  types.Logger
}

var (
	_ mono.Module                = (*AdminModule)(nil)
	_ mono.ServiceProviderModule = (*AdminModule)(nil)
)

// NewModule creates a new AdminModule.
func NewModule(st *store.Store, logger types.Logger) *AdminModule {
	return &AdminModule{
		service: NewService(st.DB()),
		logger:  logger,
	}
}

// Name returns the module name.
func (m *AdminModule) Name() string {
	return "admin"
}

// Start initializes the module.
func (m *AdminModule) Start(_ context.Context) error {
	m.logger.Info("Admin module started")
	return nil
}

// Stop shuts down the module.
func (m *AdminModule) Stop(_ context.Context) error {
	m.logger.Info("Admin module stopped")
	return nil
}

// RegisterServices registers request-reply services in the service container.
func (m *AdminModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "export", json.Unmarshal, json.Marshal, m.handleExport,
	); err != nil {
		return fmt.Errorf("failed to register export service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "import", json.Unmarshal, json.Marshal, m.handleImport,
	); err != nil {
		return fmt.Errorf("failed to register import service: %w", err)
	}
	m.logger.Info("Registered admin services", "services", "export, import")
	return nil
}

func (m *AdminModule) handleExport(_ context.Context, req ExportRequest, _ *mono.Msg) (ExportResponse, error) {
	return m.service.Export(req.UserID)
}

func (m *AdminModule) handleImport(_ context.Context, req ImportRequest, _ *mono.Msg) (ImportResponse, error) {
	resp, err := m.service.Import(req.UserID, req.Data)
	if err != nil {
		m.logger.Warn("Import rejected", "user_id", req.UserID, "error", err)
		return ImportResponse{}, err
	}
	m.logger.Info("Import complete", "user_id", req.UserID, "boards", resp.Boards, "buckets", resp.Buckets, "tasks", resp.Tasks)
	return resp, nil
}
