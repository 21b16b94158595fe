package commands_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/site"
	"fulfillment/internal/core/domain/model/timeline"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var dispatchTime = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type MockSiteDirectory struct{ mock.Mock }

func (m *MockSiteDirectory) Facilities(ctx context.Context) ([]site.Site, error) {
	args := m.Called(ctx)
	sites, _ := args.Get(0).([]site.Site)
	return sites, args.Error(1)
}

func (m *MockSiteDirectory) RelayPoints(ctx context.Context) ([]site.Site, error) {
	args := m.Called(ctx)
	sites, _ := args.Get(0).([]site.Site)
	return sites, args.Error(1)
}

type MockStatusLedger struct{ mock.Mock }

func (m *MockStatusLedger) Open(
	ctx context.Context,
	orderID kernel.OrderID,
	dispatchID kernel.UUID,
	pending timeline.StageEvent,
) error {
	args := m.Called(ctx, orderID, dispatchID, pending)
	return args.Error(0)
}

func (m *MockStatusLedger) AppendFor(
	ctx context.Context,
	orderID kernel.OrderID,
	dispatchID kernel.UUID,
	event timeline.StageEvent,
) error {
	args := m.Called(ctx, orderID, dispatchID, event)
	return args.Error(0)
}

func (m *MockStatusLedger) Discard(ctx context.Context, orderID kernel.OrderID, dispatchID kernel.UUID) error {
	args := m.Called(ctx, orderID, dispatchID)
	return args.Error(0)
}

func (m *MockStatusLedger) Append(ctx context.Context, orderID kernel.OrderID, event timeline.StageEvent) error {
	args := m.Called(ctx, orderID, event)
	return args.Error(0)
}

func (m *MockStatusLedger) Get(ctx context.Context, orderID kernel.OrderID) ([]timeline.StageEvent, error) {
	args := m.Called(ctx, orderID)
	events, _ := args.Get(0).([]timeline.StageEvent)
	return events, args.Error(1)
}

type MockTransitionScheduler struct{ mock.Mock }

func (m *MockTransitionScheduler) Arm(orderID kernel.OrderID, transitions []ports.Transition) error {
	args := m.Called(orderID, transitions)
	return args.Error(0)
}

func (m *MockTransitionScheduler) Cancel(orderID kernel.OrderID) int {
	args := m.Called(orderID)
	return args.Int(0)
}

type MockStageEventPublisher struct{ mock.Mock }

func (m *MockStageEventPublisher) Publish(ctx context.Context, orderID kernel.OrderID, event timeline.StageEvent) error {
	args := m.Called(ctx, orderID, event)
	return args.Error(0)
}

type MockMetrics struct{ mock.Mock }

func (m *MockMetrics) OrderDispatched(facility string) { m.Called(facility) }
func (m *MockMetrics) DispatchRejected(kind string)    { m.Called(kind) }
func (m *MockMetrics) StageRecorded(stage string)      { m.Called(stage) }
func (m *MockMetrics) StageDropped(stage string)       { m.Called(stage) }
func (m *MockMetrics) StagePublishFailed(stage string) { m.Called(stage) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSite(t *testing.T, name string, x, y float64, kind site.Kind) site.Site {
	t.Helper()
	s, err := site.NewNamedSite(name, kernel.MustNewLocation(x, y), kind)
	require.NoError(t, err)
	return s
}

func newEvent(t *testing.T, stage timeline.Stage, at time.Time) timeline.StageEvent {
	t.Helper()
	e, err := timeline.NewStageEvent(stage, stage.String(), at)
	require.NoError(t, err)
	return e
}

func stageIs(stage timeline.Stage) any {
	return mock.MatchedBy(func(e timeline.StageEvent) bool { return e.Stage() == stage })
}
