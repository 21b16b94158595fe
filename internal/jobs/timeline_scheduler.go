package jobs

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/timeline"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

const DefaultRecordTimeout = 5 * time.Second

var (
	ErrSchedulerStopped        = errors.New("timeline scheduler is stopped")
	ErrSchedulerAlreadyStarted = errors.New("timeline scheduler is already started")
)

var _ ports.TransitionScheduler = (*TimelineScheduler)(nil)

// StageRecorder records one fired transition. Implemented by
// commands.RecordStageCommandHandler.
type StageRecorder interface {
	Handle(ctx context.Context, cmd commands.RecordStageCommand) error
}

// SchedulerMetrics receives the number of armed transitions after every change.
type SchedulerMetrics interface {
	SetTransitionsArmed(n int)
}

// TimelineScheduler fires armed stage transitions from a single goroutine.
//
// Transitions wait in a min-heap keyed by fire time; each order keeps its own set
// of heap handles so Cancel and re-Arm touch only that order. Due transitions are
// recorded one at a time in (fireAt, stage) order, so an order's stages reach the
// ledger in stage order even when several share a fire time. Each recording runs
// under its own timeout; a failed recording is logged and dropped and does not
// affect any other transition.
//
// Cancel cannot recall a transition that is already being recorded. Each
// transition carries the id of the dispatch that armed it, and the ledger drops it
// when the order has been dispatched again in the meantime.
//
// Example:
//
//	scheduler := NewTimelineScheduler(recordHandler, DefaultRecordTimeout, metrics, logger)
//	if err := scheduler.Start(); err != nil {
//	    return err
//	}
//	defer scheduler.Stop()
//	_ = scheduler.Arm(orderID, transitions)
type TimelineScheduler struct {
	recorder      StageRecorder
	recordTimeout time.Duration
	metrics       SchedulerMetrics
	logger        *slog.Logger
	now           func() time.Time

	mu      sync.Mutex
	queue   transitionQueue
	byOrder map[kernel.OrderID]map[*armedTransition]struct{}
	seq     uint64
	started bool
	stopped bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewTimelineScheduler(
	recorder StageRecorder,
	recordTimeout time.Duration,
	metrics SchedulerMetrics,
	logger *slog.Logger,
) *TimelineScheduler {
	if recordTimeout <= 0 {
		recordTimeout = DefaultRecordTimeout
	}

	return &TimelineScheduler{
		recorder:      recorder,
		recordTimeout: recordTimeout,
		metrics:       metrics,
		logger:        logger.With("component", "timeline_scheduler"),
		now:           time.Now,
		byOrder:       make(map[kernel.OrderID]map[*armedTransition]struct{}),
		wake:          make(chan struct{}, 1),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start launches the scheduler loop. Transitions armed before Start wait for it.
func (s *TimelineScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSchedulerStopped
	}
	if s.started {
		return ErrSchedulerAlreadyStarted
	}
	s.started = true

	go s.run()

	s.logger.InfoContext(context.Background(), "Timeline scheduler started",
		"record_timeout", s.recordTimeout)
	return nil
}

// Stop ends the loop and drops every armed transition. It waits for an in-flight
// recording to finish.
func (s *TimelineScheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	dropped := len(s.queue)
	s.queue = nil
	s.byOrder = make(map[kernel.OrderID]map[*armedTransition]struct{})
	s.reportArmed()
	s.mu.Unlock()

	close(s.stop)
	if started {
		<-s.done
	}

	s.logger.InfoContext(context.Background(), "Timeline scheduler stopped", "dropped_transitions", dropped)
}

// Arm replaces the transitions armed for orderID.
func (s *TimelineScheduler) Arm(orderID kernel.OrderID, transitions []ports.Transition) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	for _, t := range transitions {
		if !t.OrderID.IsEqual(orderID) {
			return errs.NewValueIsInvalidErrorWithCause("transition",
				fmt.Errorf("transition for %s armed under %s", t.OrderID, orderID))
		}
		if err := errors.Join(t.DispatchID.Validate(), t.Stage.Validate()); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSchedulerStopped
	}

	s.cancelLocked(orderID)

	handles := make(map[*armedTransition]struct{}, len(transitions))
	for _, t := range transitions {
		s.seq++
		item := &armedTransition{transition: t, seq: s.seq}
		heap.Push(&s.queue, item)
		handles[item] = struct{}{}
	}
	if len(handles) > 0 {
		s.byOrder[orderID] = handles
	}

	s.reportArmed()
	s.signal()
	return nil
}

// Cancel drops the transitions still armed for orderID.
func (s *TimelineScheduler) Cancel(orderID kernel.OrderID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.cancelLocked(orderID)
	if n > 0 {
		s.reportArmed()
		s.signal()
	}
	return n
}

// Armed reports how many transitions are waiting.
func (s *TimelineScheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *TimelineScheduler) cancelLocked(orderID kernel.OrderID) int {
	handles, ok := s.byOrder[orderID]
	if !ok {
		return 0
	}
	for item := range handles {
		if item.index >= 0 {
			heap.Remove(&s.queue, item.index)
		}
	}
	delete(s.byOrder, orderID)
	return len(handles)
}

func (s *TimelineScheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *TimelineScheduler) reportArmed() {
	if s.metrics != nil {
		s.metrics.SetTransitionsArmed(len(s.queue))
	}
}

func (s *TimelineScheduler) run() {
	defer close(s.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		due, wait, ok := s.next()
		if due != nil {
			s.fire(due.transition)
			continue
		}

		if ok {
			timer.Reset(wait)
		}

		select {
		case <-s.stop:
			return
		case <-s.wake:
		case <-timer.C:
		}
		timer.Stop()
	}
}

// next pops the earliest transition if it is due; otherwise it reports how long to
// wait, or ok=false when nothing is armed.
func (s *TimelineScheduler) next() (*armedTransition, time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil, 0, false
	}

	head := s.queue.peek()
	if head == nil {
		return nil, 0, false
	}

	wait := head.transition.FireAt.Sub(s.now())
	if wait > 0 {
		return nil, wait, true
	}

	heap.Pop(&s.queue)
	orderID := head.transition.OrderID
	if handles, ok := s.byOrder[orderID]; ok {
		delete(handles, head)
		if len(handles) == 0 {
			delete(s.byOrder, orderID)
		}
	}
	s.reportArmed()

	return head, 0, false
}

func (s *TimelineScheduler) fire(t ports.Transition) {
	ctx, cancel := context.WithTimeout(context.Background(), s.recordTimeout)
	defer cancel()

	cmd, err := commands.NewRecordStageCommand(t.OrderID, t.DispatchID, t.Stage, t.Message, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Stage transition is malformed",
			"order_id", t.OrderID.String(), "stage", t.Stage.String(), "error", err)
		return
	}

	if err = s.recorder.Handle(ctx, cmd); err != nil {
		switch {
		case errors.Is(err, commands.ErrOrderNotFound):
			s.logger.DebugContext(ctx, "Stage transition fired for an order without a timeline",
				"order_id", t.OrderID.String(), "stage", t.Stage.String())
			return
		case errors.Is(err, timeline.ErrDispatchIsSuperseded):
			s.logger.DebugContext(ctx, "Stage transition fired for a replaced dispatch",
				"order_id", t.OrderID.String(), "dispatch_id", t.DispatchID.String(), "stage", t.Stage.String())
			return
		}
		s.logger.WarnContext(ctx, "Stage transition dropped",
			"order_id", t.OrderID.String(), "stage", t.Stage.String(), "error", err)
	}
}
