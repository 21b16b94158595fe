// Package timelinestore is a status ledger shared by several dispatcher instances
// through Redis. Each timeline is one list of JSON events.
package timelinestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/timeline"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix = "fulfillment:timeline:"

	maxWatchAttempts = 5
)

var (
	_ ports.StatusLedger = (*Store)(nil)

	ErrWriteContended = errors.New("timeline write kept losing to concurrent writers")
)

// Store keeps timelines in Redis lists. Appends read the last event under WATCH and
// push inside MULTI, so two writers racing on one order cannot both succeed against
// the same predecessor, and a stage armed on one instance cannot land on a timeline
// another instance has since re-opened.
type Store struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// New returns a store. A positive ttl bounds how long a timeline outlives its last
// write; zero keeps timelines until they are overwritten.
func New(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *Store {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Store{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// NewClient connects to a single Redis node and pings it.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func (s *Store) Open(ctx context.Context, orderID kernel.OrderID, dispatchID kernel.UUID, pending timeline.StageEvent) error {
	if _, err := timeline.NewTimeline(orderID, dispatchID, pending); err != nil {
		return err
	}

	raw, err := fromDomain(dispatchID, pending)
	if err != nil {
		return err
	}

	key := s.key(orderID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.RPush(ctx, key, raw)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	return err
}

func (s *Store) AppendFor(
	ctx context.Context,
	orderID kernel.OrderID,
	dispatchID kernel.UUID,
	event timeline.StageEvent,
) error {
	if err := dispatchID.Validate(); err != nil {
		return err
	}
	return s.append(ctx, orderID, &dispatchID, event)
}

func (s *Store) Append(ctx context.Context, orderID kernel.OrderID, event timeline.StageEvent) error {
	return s.append(ctx, orderID, nil, event)
}

// append pushes event after the last stored one. A nil armed accepts whichever
// dispatch owns the list.
func (s *Store) append(ctx context.Context, orderID kernel.OrderID, armed *kernel.UUID, event timeline.StageEvent) error {
	if err := errors.Join(orderID.Validate(), event.Validate()); err != nil {
		return err
	}

	key := s.key(orderID)
	return s.watch(ctx, orderID, key, func(tx *redis.Tx) error {
		last, err := tx.LIndex(ctx, key, -1).Result()
		if errors.Is(err, redis.Nil) {
			return errs.NewObjectNotFoundError("orderId", orderID.String())
		}
		if err != nil {
			return err
		}

		rec, err := decodeRecord(last)
		if err != nil {
			return fmt.Errorf("decode last event of %s: %w", orderID, err)
		}
		current, err := rec.dispatchID()
		if err != nil {
			return fmt.Errorf("decode dispatch of %s: %w", orderID, err)
		}
		if armed != nil {
			if err = timeline.ValidateDispatch(current, *armed); err != nil {
				return err
			}
		}

		prev, err := rec.toDomain()
		if err != nil {
			return fmt.Errorf("decode last event of %s: %w", orderID, err)
		}
		if err = event.Stage().ValidateFollows(prev.Stage()); err != nil {
			return err
		}

		raw, err := fromDomain(current, event)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, key, raw)
			if s.ttl > 0 {
				pipe.Expire(ctx, key, s.ttl)
			}
			return nil
		})
		return err
	})
}

func (s *Store) Discard(ctx context.Context, orderID kernel.OrderID, dispatchID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	key := s.key(orderID)
	return s.watch(ctx, orderID, key, func(tx *redis.Tx) error {
		first, err := tx.LIndex(ctx, key, 0).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		rec, err := decodeRecord(first)
		if err != nil {
			return fmt.Errorf("decode first event of %s: %w", orderID, err)
		}
		if rec.Dispatch != dispatchID.String() {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	})
}

// watch runs txf under WATCH key, retrying when another writer touched the key
// between the read and the transaction.
func (s *Store) watch(ctx context.Context, orderID kernel.OrderID, key string, txf func(tx *redis.Tx) error) error {
	for attempt := 0; attempt < maxWatchAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}

	return fmt.Errorf("%w: %s", ErrWriteContended, orderID)
}

func (s *Store) Get(ctx context.Context, orderID kernel.OrderID) ([]timeline.StageEvent, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	raws, err := s.client.LRange(ctx, s.key(orderID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return nil, errs.NewObjectNotFoundError("orderId", orderID.String())
	}

	events := make([]timeline.StageEvent, 0, len(raws))
	for _, raw := range raws {
		rec, decodeErr := decodeRecord(raw)
		if decodeErr != nil {
			return nil, fmt.Errorf("decode event of %s: %w", orderID, decodeErr)
		}
		event, decodeErr := rec.toDomain()
		if decodeErr != nil {
			return nil, fmt.Errorf("decode event of %s: %w", orderID, decodeErr)
		}
		events = append(events, event)
	}

	return events, nil
}

func (s *Store) key(orderID kernel.OrderID) string {
	return s.keyPrefix + orderID.String()
}
