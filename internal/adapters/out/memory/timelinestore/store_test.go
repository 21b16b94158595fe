package timelinestore_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/memory/timelinestore"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/timeline"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func event(t *testing.T, stage timeline.Stage, offset time.Duration) timeline.StageEvent {
	t.Helper()
	e, err := timeline.NewStageEvent(stage, stage.String()+" reached", t0.Add(offset))
	require.NoError(t, err)
	return e
}

func stagesOf(events []timeline.StageEvent) []timeline.Stage {
	out := make([]timeline.Stage, 0, len(events))
	for _, e := range events {
		out = append(out, e.Stage())
	}
	return out
}

func TestStore_OpenAppendGet(t *testing.T) {
	// Given
	ctx := t.Context()
	store := timelinestore.New()
	orderID := kernel.GenerateOrderID()

	// When
	require.NoError(t, store.Open(ctx, orderID, kernel.NewUUID(), event(t, timeline.Pending, 0)))
	for i, s := range timeline.DeliveryStages[1:] {
		require.NoError(t, store.Append(ctx, orderID, event(t, s, time.Duration(i+1)*time.Second)))
	}

	// Then
	events, err := store.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, timeline.DeliveryStages, stagesOf(events))
	assert.Equal(t, 1, store.Len())
}

func TestStore_UnknownOrder(t *testing.T) {
	ctx := t.Context()
	store := timelinestore.New()
	orderID := kernel.GenerateOrderID()

	_, err := store.Get(ctx, orderID)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)

	err = store.Append(ctx, orderID, event(t, timeline.Picking, time.Second))
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestStore_RejectsOutOfOrderAndAfterTerminal(t *testing.T) {
	ctx := t.Context()
	store := timelinestore.New()
	orderID := kernel.GenerateOrderID()
	require.NoError(t, store.Open(ctx, orderID, kernel.NewUUID(), event(t, timeline.Pending, 0)))
	require.NoError(t, store.Append(ctx, orderID, event(t, timeline.FacilityToRelay, time.Second)))

	require.ErrorIs(t, store.Append(ctx, orderID, event(t, timeline.Picking, 2*time.Second)), errs.ErrValueIsInvalid)

	require.NoError(t, store.Append(ctx, orderID, event(t, timeline.Cancelled, 3*time.Second)))
	require.ErrorIs(t, store.Append(ctx, orderID, event(t, timeline.Delivered, 4*time.Second)),
		errs.ErrObjectIsInInvalidState)

	events, err := store.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, []timeline.Stage{timeline.Pending, timeline.FacilityToRelay, timeline.Cancelled}, stagesOf(events))
}

func TestStore_OpenOverwrites(t *testing.T) {
	ctx := t.Context()
	store := timelinestore.New()
	orderID := kernel.GenerateOrderID()
	require.NoError(t, store.Open(ctx, orderID, kernel.NewUUID(), event(t, timeline.Pending, 0)))
	require.NoError(t, store.Append(ctx, orderID, event(t, timeline.Picking, time.Second)))

	require.NoError(t, store.Open(ctx, orderID, kernel.NewUUID(), event(t, timeline.Pending, time.Minute)))

	events, err := store.Get(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Timestamp().Equal(t0.Add(time.Minute)))
}

func TestStore_AppendForRejectsSupersededDispatch(t *testing.T) {
	// Given
	ctx := t.Context()
	store := timelinestore.New()
	orderID := kernel.GenerateOrderID()
	first, second := kernel.NewUUID(), kernel.NewUUID()
	require.NoError(t, store.Open(ctx, orderID, first, event(t, timeline.Pending, 0)))
	require.NoError(t, store.AppendFor(ctx, orderID, first, event(t, timeline.Picking, time.Second)))

	// When
	require.NoError(t, store.Open(ctx, orderID, second, event(t, timeline.Pending, time.Minute)))
	stale := store.AppendFor(ctx, orderID, first, event(t, timeline.FacilityToRelay, time.Minute+time.Second))

	// Then
	require.ErrorIs(t, stale, timeline.ErrDispatchIsSuperseded)
	require.NoError(t, store.AppendFor(ctx, orderID, second, event(t, timeline.Picking, 2*time.Minute)))

	events, err := store.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, []timeline.Stage{timeline.Pending, timeline.Picking}, stagesOf(events))
}

func TestStore_Discard(t *testing.T) {
	ctx := t.Context()
	store := timelinestore.New()
	orderID := kernel.GenerateOrderID()
	first, second := kernel.NewUUID(), kernel.NewUUID()
	require.NoError(t, store.Open(ctx, orderID, first, event(t, timeline.Pending, 0)))
	require.NoError(t, store.Open(ctx, orderID, second, event(t, timeline.Pending, time.Minute)))

	require.NoError(t, store.Discard(ctx, orderID, first))
	_, err := store.Get(ctx, orderID)
	require.NoError(t, err, "replaced entry must survive a discard by the earlier dispatch")

	require.NoError(t, store.Discard(ctx, orderID, second))
	_, err = store.Get(ctx, orderID)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	assert.Equal(t, 0, store.Len())

	require.NoError(t, store.Discard(ctx, orderID, second))
}

func TestStore_GetReturnsCopy(t *testing.T) {
	ctx := t.Context()
	store := timelinestore.New()
	orderID := kernel.GenerateOrderID()
	require.NoError(t, store.Open(ctx, orderID, kernel.NewUUID(), event(t, timeline.Pending, 0)))

	first, err := store.Get(ctx, orderID)
	require.NoError(t, err)
	second, err := store.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	first[0] = event(t, timeline.Delivered, time.Hour)
	third, err := store.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, second, third)
}

func TestStore_ConcurrentOrders(t *testing.T) {
	ctx := t.Context()
	store := timelinestore.New()
	const orders = 200

	ids := make([]kernel.OrderID, orders)
	for i := range ids {
		id, err := kernel.NewOrderID(fmt.Sprintf("order-%d", i))
		require.NoError(t, err)
		ids[i] = id
		require.NoError(t, store.Open(ctx, id, kernel.NewUUID(), event(t, timeline.Pending, 0)))
	}

	later := make([]timeline.StageEvent, 0, len(timeline.DeliveryStages)-1)
	for i, s := range timeline.DeliveryStages[1:] {
		later = append(later, event(t, s, time.Duration(i+1)*time.Second))
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for _, e := range later {
				assert.NoError(t, store.Append(ctx, id, e))
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				events, err := store.Get(ctx, id)
				assert.NoError(t, err)
				stages := stagesOf(events)
				assert.Equal(t, timeline.DeliveryStages[:len(stages)], stages)
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		events, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, timeline.DeliveryStages, stagesOf(events))
	}
}
