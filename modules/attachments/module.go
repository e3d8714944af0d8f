package attachments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"

	"github.com/fillip1984/inveniam/config"
	"github.com/fillip1984/inveniam/domain/kanban"
	"github.com/fillip1984/inveniam/modules/auth"
)

// PresignRequest is the input of tasks.generateS3PresignedUrl.
type PresignRequest struct {
	kanban.Caller
}

// Module serves attachment uploads from the fs-jetstream object store.
type Module struct {
	storage *fsjetstream.PluginModule
	signer  auth.UploadSignerPort
	service *Service
	cfg     config.Storage
	baseURL string
	logger  types.Logger
}

var (
	_ mono.Module                = (*Module)(nil)
	_ mono.UsePluginModule       = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
)

// NewModule creates a new attachments module.
func NewModule(cfg config.Storage, baseURL string, logger types.Logger) *Module {
	return &Module{
		cfg:     cfg,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "attachments"
}

// SetPlugin receives the storage plugin from the framework.
func (m *Module) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias == "storage" {
		storage, ok := plugin.(*fsjetstream.PluginModule)
		if !ok {
			m.logger.Error("Invalid plugin type for storage",
				"alias", alias,
				"expected", "*fsjetstream.PluginModule")
			return
		}
		m.storage = storage
		m.logger.Info("Received storage plugin", "alias", alias)
	}
}

// Dependencies returns the modules this module depends on.
func (m *Module) Dependencies() []string {
	return []string{"auth"}
}

// SetDependencyServiceContainer receives the auth container for upload tokens.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "auth" {
		m.signer = auth.NewAuthAdapter(container)
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "presign", json.Unmarshal, json.Marshal, m.handlePresign,
	); err != nil {
		return fmt.Errorf("failed to register presign service: %w", err)
	}
	m.logger.Info("Registered attachments services", "services", "presign")
	return nil
}

// Start initializes the module and its service.
func (m *Module) Start(_ context.Context) error {
	if m.storage == nil {
		return fmt.Errorf("required plugin 'storage' not registered")
	}
	if m.signer == nil {
		return fmt.Errorf("auth dependency not set")
	}

	bucket := m.storage.Bucket(m.cfg.Bucket)
	if bucket == nil {
		return fmt.Errorf("bucket '%s' not found in storage plugin", m.cfg.Bucket)
	}

	var err error
	m.service, err = NewService(bucket, m.cfg.Bucket, m.baseURL, m.cfg.UploadExpiry.Duration, m.cfg.MaxBytes, m.signer, m.logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	m.logger.Info("Attachments module started", "bucket", m.cfg.Bucket)
	return nil
}

// Stop gracefully shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Attachments module stopped")
	return nil
}

// Service returns the attachment service. It is nil until Start.
func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) handlePresign(ctx context.Context, req PresignRequest, _ *mono.Msg) (PresignedURL, error) {
	if m.service == nil {
		return PresignedURL{}, fmt.Errorf("attachments module not started")
	}
	return m.service.Presign(ctx, req.UserID)
}
