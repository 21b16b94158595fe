// Package timelinestore is the in-process status ledger. Entries live for the
// lifetime of the process.
package timelinestore

import (
	"context"
	"sync"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/timeline"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 64

var _ ports.StatusLedger = (*Store)(nil)

type entry struct {
	mu       sync.RWMutex
	timeline *timeline.Timeline
}

type shard struct {
	mu      sync.RWMutex
	entries map[kernel.OrderID]*entry
}

// Store shards timelines by a hash of the order id. The shard lock only guards the
// map; each entry has its own lock, so appends to different orders never wait on
// each other and a reader always sees whole events.
type Store struct {
	shards [shardCount]*shard
}

func New() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[kernel.OrderID]*entry)}
	}
	return s
}

func (s *Store) Open(_ context.Context, orderID kernel.OrderID, dispatchID kernel.UUID, pending timeline.StageEvent) error {
	tl, err := timeline.NewTimeline(orderID, dispatchID, pending)
	if err != nil {
		return err
	}

	sh := s.shardFor(orderID)
	sh.mu.Lock()
	sh.entries[orderID] = &entry{timeline: tl}
	sh.mu.Unlock()

	return nil
}

func (s *Store) AppendFor(
	_ context.Context,
	orderID kernel.OrderID,
	dispatchID kernel.UUID,
	event timeline.StageEvent,
) error {
	e, err := s.lookup(orderID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeline.AppendFor(dispatchID, event)
}

func (s *Store) Append(_ context.Context, orderID kernel.OrderID, event timeline.StageEvent) error {
	e, err := s.lookup(orderID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeline.Append(event)
}

func (s *Store) Discard(_ context.Context, orderID kernel.OrderID, dispatchID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	sh := s.shardFor(orderID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[orderID]
	if !ok {
		return nil
	}

	e.mu.RLock()
	owned := e.timeline.DispatchID().IsEqual(dispatchID)
	e.mu.RUnlock()

	if owned {
		delete(sh.entries, orderID)
	}
	return nil
}

func (s *Store) Get(_ context.Context, orderID kernel.OrderID) ([]timeline.StageEvent, error) {
	e, err := s.lookup(orderID)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.timeline.Events(), nil
}

// Len reports the number of stored timelines.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

func (s *Store) lookup(orderID kernel.OrderID) (*entry, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	sh := s.shardFor(orderID)
	sh.mu.RLock()
	e, ok := sh.entries[orderID]
	sh.mu.RUnlock()

	if !ok {
		return nil, errs.NewObjectNotFoundError("orderId", orderID.String())
	}
	return e, nil
}

func (s *Store) shardFor(orderID kernel.OrderID) *shard {
	return s.shards[xxhash.Sum64String(orderID.String())%shardCount]
}
