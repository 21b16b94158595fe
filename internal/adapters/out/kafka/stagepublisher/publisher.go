// Package stagepublisher announces stage events on a Kafka topic, keyed by order id
// so that one order's events stay on one partition in order.
package stagepublisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/timeline"
	"fulfillment/internal/core/ports"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
)

const (
	DefaultBreakerName      = "kafka-stage-events"
	DefaultFailureThreshold = 5
	DefaultOpenTimeout      = 30 * time.Second
	DefaultWriteTimeout     = 2 * time.Second
)

var (
	_ ports.StageEventPublisher = (*Publisher)(nil)

	ErrCircuitOpen = errors.New("stage event publisher circuit is open")
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Metrics receives publish outcomes and breaker state changes.
type Metrics interface {
	RecordPublish(stage string, success bool, duration time.Duration)
	SetCircuitBreakerState(name string, state int)
}

type Config struct {
	BreakerName      string
	FailureThreshold uint32
	OpenTimeout      time.Duration
	WriteTimeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		BreakerName:      DefaultBreakerName,
		FailureThreshold: DefaultFailureThreshold,
		OpenTimeout:      DefaultOpenTimeout,
		WriteTimeout:     DefaultWriteTimeout,
	}
}

// Message is the JSON value written for every stage event.
type Message struct {
	OrderID string    `json:"orderId"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

type Publisher struct {
	writer       messageWriter
	breaker      *gobreaker.CircuitBreaker
	writeTimeout time.Duration
	metrics      Metrics
	logger       *slog.Logger
}

// NewWriter returns a synchronous writer for topic on brokers.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
		Async:                  false,
	}
}

func New(writer messageWriter, cfg Config, metrics Metrics, logger *slog.Logger) *Publisher {
	if cfg.BreakerName == "" {
		cfg.BreakerName = DefaultBreakerName
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}

	logger = logger.With("component", "stage_publisher")
	p := &Publisher{
		writer:       writer,
		writeTimeout: cfg.WriteTimeout,
		metrics:      metrics,
		logger:       logger,
	}

	threshold := cfg.FailureThreshold
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.BreakerName,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			if metrics != nil {
				metrics.SetCircuitBreakerState(name, int(to))
			}
		},
	})

	if metrics != nil {
		metrics.SetCircuitBreakerState(cfg.BreakerName, int(gobreaker.StateClosed))
	}

	return p
}

func (p *Publisher) Publish(ctx context.Context, orderID kernel.OrderID, event timeline.StageEvent) error {
	if err := errors.Join(orderID.Validate(), event.Validate()); err != nil {
		return err
	}

	value, err := json.Marshal(Message{
		OrderID: orderID.String(),
		Stage:   event.Stage().String(),
		Message: event.Message(),
		Time:    event.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal stage event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(orderID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "stage", Value: []byte(event.Stage().String())},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: event.Timestamp(),
	}

	start := time.Now()
	_, err = p.breaker.Execute(func() (interface{}, error) {
		writeCtx := ctx
		if p.writeTimeout > 0 {
			var cancel context.CancelFunc
			writeCtx, cancel = context.WithTimeout(ctx, p.writeTimeout)
			defer cancel()
		}
		return nil, p.writer.WriteMessages(writeCtx, msg)
	})

	if p.metrics != nil {
		p.metrics.RecordPublish(event.Stage().String(), err == nil, time.Since(start))
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %s", ErrCircuitOpen, p.breaker.Name())
	case err != nil:
		return fmt.Errorf("failed to publish stage event for %s: %w", orderID, err)
	}

	return nil
}

// State reports the breaker state.
func (p *Publisher) State() gobreaker.State {
	return p.breaker.State()
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
