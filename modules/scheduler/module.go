// Package scheduler periodically triggers the status report endpoint.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/fillip1984/inveniam/client"
	"github.com/fillip1984/inveniam/config"
	"github.com/fillip1984/inveniam/events"
)

// TriggerFunc issues one report trigger.
type TriggerFunc func(ctx context.Context, endpoint, token string) (client.ReportSummary, error)

// SchedulerModule fires the report trigger on a fixed interval. Failed
// triggers are logged and never retried; the next tick tries again.
type SchedulerModule struct {
	cfg     config.Report
	trigger TriggerFunc
	timeout time.Duration
	logger  types.Logger

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	runs     int
	failures int
	lastRun  *events.ReportSentEvent
}

var (
	_ mono.Module                = (*SchedulerModule)(nil)
	_ mono.EventConsumerModule   = (*SchedulerModule)(nil)
	_ mono.HealthCheckableModule = (*SchedulerModule)(nil)
)

// NewModule creates a scheduler that calls client.TriggerReport.
func NewModule(cfg config.Report, logger types.Logger) *SchedulerModule {
	return &SchedulerModule{
		cfg:     cfg,
		trigger: client.TriggerReport,
		timeout: time.Minute,
		logger:  logger,
	}
}

// Name returns the module name.
func (m *SchedulerModule) Name() string {
	return "scheduler"
}

// Start launches the ticker when the scheduler is enabled.
func (m *SchedulerModule) Start(_ context.Context) error {
	if !m.cfg.Enabled {
		m.logger.Info("Report scheduler disabled")
		return nil
	}
	if m.cfg.Interval.Duration <= 0 {
		return fmt.Errorf("report interval must be positive, got %s", m.cfg.Interval.Duration)
	}

	m.stopChan = make(chan struct{})
	m.doneChan = make(chan struct{})
	go m.run()

	m.logger.Info("Report scheduler started", "interval", m.cfg.Interval.Duration.String(), "endpoint", m.cfg.TriggerURL)
	return nil
}

func (m *SchedulerModule) run() {
	ticker := time.NewTicker(m.cfg.Interval.Duration)
	defer ticker.Stop()
	defer close(m.doneChan)

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.fire()
		}
	}
}

// fire runs one trigger; stopping the module cancels it.
func (m *SchedulerModule) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	go func() {
		select {
		case <-m.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	summary, err := m.trigger(ctx, m.cfg.TriggerURL, m.cfg.TriggerToken)

	m.mu.Lock()
	m.runs++
	if err != nil {
		m.failures++
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("Report trigger failed", "endpoint", m.cfg.TriggerURL, "error", err)
		return
	}
	m.logger.Info("Report trigger completed", "sent", summary.Sent, "failed", summary.Failed, "skipped", summary.Skipped)
}

// Stop ends the ticker and waits for an in-flight trigger.
func (m *SchedulerModule) Stop(ctx context.Context) error {
	if m.stopChan == nil {
		return nil
	}
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})

	select {
	case <-m.doneChan:
		m.logger.Info("Report scheduler stopped")
	case <-ctx.Done():
		m.logger.Warn("Report scheduler shutdown timeout exceeded")
		return ctx.Err()
	}
	return nil
}

// RegisterEventConsumers records digest results, whichever timer caused them.
func (m *SchedulerModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.ReportSentV1, m.handleReportSent, m,
	); err != nil {
		return fmt.Errorf("failed to register ReportSent consumer: %w", err)
	}
	return nil
}

func (m *SchedulerModule) handleReportSent(_ context.Context, event events.ReportSentEvent, _ *mono.Msg) error {
	m.mu.Lock()
	m.lastRun = &event
	m.mu.Unlock()
	if event.Failed > 0 {
		m.logger.Warn("Status report had failures", "failed", event.Failed, "sent", event.Sent)
	}
	return nil
}

// LastReport returns the most recent digest result seen on the event bus.
func (m *SchedulerModule) LastReport() (events.ReportSentEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastRun == nil {
		return events.ReportSentEvent{}, false
	}
	return *m.lastRun, true
}

// Health reports trigger counters.
func (m *SchedulerModule) Health(_ context.Context) mono.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	details := map[string]any{
		"enabled":  m.cfg.Enabled,
		"runs":     m.runs,
		"failures": m.failures,
	}
	if m.lastRun != nil {
		details["last_report"] = m.lastRun.Timestamp
	}
	return mono.HealthStatus{Healthy: true, Message: "operational", Details: details}
}
