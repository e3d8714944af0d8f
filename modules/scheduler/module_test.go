package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fillip1984/inveniam/client"
	"github.com/fillip1984/inveniam/config"
	"github.com/fillip1984/inveniam/events"
)

type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

func enabled(interval time.Duration) config.Report {
	return config.Report{
		Enabled:      true,
		Interval:     config.Duration{Duration: interval},
		TriggerURL:   "http://localhost:3000/api/rpc/tasks.sendReportEmail",
		TriggerToken: "s3cret",
	}
}

func TestScheduler_FiresOnInterval(t *testing.T) {
	var calls atomic.Int32
	m := NewModule(enabled(10*time.Millisecond), &mockLogger{})
	m.trigger = func(_ context.Context, endpoint, token string) (client.ReportSummary, error) {
		assert.Equal(t, "http://localhost:3000/api/rpc/tasks.sendReportEmail", endpoint)
		assert.Equal(t, "s3cret", token)
		calls.Add(1)
		return client.ReportSummary{Sent: 1}, nil
	}

	require.NoError(t, m.Start(context.Background()))
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, m.Stop(context.Background()))

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load(), "no triggers after Stop")
}

func TestScheduler_FailuresAreCountedNotRetried(t *testing.T) {
	var calls atomic.Int32
	m := NewModule(enabled(20*time.Millisecond), &mockLogger{})
	m.trigger = func(context.Context, string, string) (client.ReportSummary, error) {
		calls.Add(1)
		return client.ReportSummary{}, errors.New("connection refused")
	}

	require.NoError(t, m.Start(context.Background()))
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, m.Stop(context.Background()))

	health := m.Health(context.Background())
	assert.True(t, health.Healthy)
	assert.Equal(t, int(calls.Load()), health.Details["failures"])
	assert.Equal(t, health.Details["runs"], health.Details["failures"])
}

func TestScheduler_StopCancelsInFlightTrigger(t *testing.T) {
	started := make(chan struct{}, 1)
	m := NewModule(enabled(5*time.Millisecond), &mockLogger{})
	m.trigger = func(ctx context.Context, _, _ string) (client.ReportSummary, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return client.ReportSummary{}, ctx.Err()
	}

	require.NoError(t, m.Start(context.Background()))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, m.Stop(ctx))
}

func TestScheduler_Disabled(t *testing.T) {
	m := NewModule(config.Report{Interval: config.Duration{Duration: time.Hour}}, &mockLogger{})
	m.trigger = func(context.Context, string, string) (client.ReportSummary, error) {
		t.Fatal("disabled scheduler must not trigger")
		return client.ReportSummary{}, nil
	}
	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(context.Background()))
}

func TestScheduler_RejectsNonPositiveInterval(t *testing.T) {
	m := NewModule(enabled(0), &mockLogger{})
	assert.Error(t, m.Start(context.Background()))
}

func TestScheduler_RecordsReportSent(t *testing.T) {
	m := NewModule(config.Report{}, &mockLogger{})
	_, ok := m.LastReport()
	assert.False(t, ok)

	at := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)
	require.NoError(t, m.handleReportSent(context.Background(), events.ReportSentEvent{Sent: 3, Failed: 1, Timestamp: at}, nil))

	last, ok := m.LastReport()
	require.True(t, ok)
	assert.Equal(t, 3, last.Sent)
	assert.Equal(t, at, m.Health(context.Background()).Details["last_report"])
}
