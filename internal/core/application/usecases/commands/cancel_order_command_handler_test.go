package commands_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/timeline"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewCancelOrderCommand(t *testing.T) {
	cmd, err := commands.NewCancelOrderCommand("cart-42")
	require.NoError(t, err)
	assert.Equal(t, "cart-42", cmd.OrderID().String())

	_, err = commands.NewCancelOrderCommand("")
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	require.ErrorIs(t, commands.CancelOrderCommand{}.Validate(), commands.ErrCancelOrderCommandIsNotConstructed)
}

type cancelFixture struct {
	ledger    *MockStatusLedger
	scheduler *MockTransitionScheduler
	publisher *MockStageEventPublisher
	handler   commands.CancelOrderCommandHandler
	orderID   kernel.OrderID
	cmd       commands.CancelOrderCommand
}

func newCancelFixture(t *testing.T) cancelFixture {
	t.Helper()
	f := cancelFixture{
		ledger:    new(MockStatusLedger),
		scheduler: new(MockTransitionScheduler),
		publisher: new(MockStageEventPublisher),
	}
	f.handler = commands.NewCancelOrderCommandHandler(
		f.ledger, f.scheduler, f.publisher, fixedClock{now: dispatchTime.Add(time.Second)},
		commands.NopMetrics{}, discardLogger(),
	)

	var err error
	f.cmd, err = commands.NewCancelOrderCommand("cart-42")
	require.NoError(t, err)
	f.orderID = f.cmd.OrderID()
	return f
}

func TestCancelOrderCommandHandler_Handle_Success(t *testing.T) {
	// Given
	ctx := t.Context()
	f := newCancelFixture(t)
	before := []timeline.StageEvent{
		newEvent(t, timeline.Pending, dispatchTime),
		newEvent(t, timeline.Picking, dispatchTime.Add(100*time.Millisecond)),
	}
	after := append(append([]timeline.StageEvent{}, before...), newEvent(t, timeline.Cancelled, dispatchTime.Add(time.Second)))

	mock.InOrder(
		f.ledger.On("Get", ctx, f.orderID).Return(before, nil).Once(),
		f.scheduler.On("Cancel", f.orderID).Return(3).Once(),
		f.ledger.On("Append", ctx, f.orderID, stageIs(timeline.Cancelled)).Return(nil).Once(),
		f.publisher.On("Publish", ctx, f.orderID, stageIs(timeline.Cancelled)).Return(nil).Once(),
		f.ledger.On("Get", ctx, f.orderID).Return(after, nil).Once(),
	)

	// When
	events, err := f.handler.Handle(ctx, f.cmd)

	// Then
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, timeline.Cancelled, events[2].Stage())
	f.ledger.AssertExpectations(t)
	f.scheduler.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestCancelOrderCommandHandler_Handle_UnknownOrder(t *testing.T) {
	ctx := t.Context()
	f := newCancelFixture(t)
	f.ledger.On("Get", ctx, f.orderID).Return(nil, errs.NewObjectNotFoundError("orderId", "cart-42")).Once()

	_, err := f.handler.Handle(ctx, f.cmd)

	require.ErrorIs(t, err, commands.ErrOrderNotFound)
	f.scheduler.AssertNotCalled(t, "Cancel", mock.Anything)
}

func TestCancelOrderCommandHandler_Handle_AlreadyTerminal(t *testing.T) {
	ctx := t.Context()
	f := newCancelFixture(t)
	f.ledger.On("Get", ctx, f.orderID).Return([]timeline.StageEvent{
		newEvent(t, timeline.Pending, dispatchTime),
		newEvent(t, timeline.Delivered, dispatchTime.Add(time.Minute)),
	}, nil).Once()

	_, err := f.handler.Handle(ctx, f.cmd)

	require.ErrorIs(t, err, commands.ErrOrderAlreadyTerminal)
	f.scheduler.AssertNotCalled(t, "Cancel", mock.Anything)
	f.ledger.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelOrderCommandHandler_Handle_DeliveredDuringCancel(t *testing.T) {
	ctx := t.Context()
	f := newCancelFixture(t)
	f.ledger.On("Get", ctx, f.orderID).Return([]timeline.StageEvent{
		newEvent(t, timeline.Pending, dispatchTime),
	}, nil).Once()
	f.scheduler.On("Cancel", f.orderID).Return(0).Once()
	f.ledger.On("Append", ctx, f.orderID, mock.Anything).
		Return(errs.NewObjectIsInInvalidStateError("timeline", timeline.Delivered)).Once()

	_, err := f.handler.Handle(ctx, f.cmd)

	require.ErrorIs(t, err, commands.ErrOrderAlreadyTerminal)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}
