package timeline

import (
	"errors"
	"strings"
	"time"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrStageEventIsNotConstructed = errors.New("StageEvent must be created via NewStageEvent constructor")

// StageEvent records that an order entered a stage. Events are appended to a
// timeline and never edited afterwards.
type StageEvent struct { //nolint:recvcheck //using for validation
	stage     Stage
	message   string
	timestamp time.Time

	guard guard.ConstructorGuard
}

// NewStageEvent builds an event. The timestamp is normalised to UTC.
func NewStageEvent(stage Stage, message string, timestamp time.Time) (StageEvent, error) {
	e := StageEvent{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		e.setStage(stage),
		e.setMessage(message),
		e.setTimestamp(timestamp),
	); err != nil {
		return StageEvent{}, err
	}

	return e, nil
}

func (e StageEvent) Validate() error {
	return e.guard.Validate(ErrStageEventIsNotConstructed)
}

func (e StageEvent) Stage() Stage {
	return e.stage
}

func (e StageEvent) Message() string {
	return e.message
}

func (e StageEvent) Timestamp() time.Time {
	return e.timestamp
}

func (e *StageEvent) setStage(stage Stage) error {
	if err := stage.Validate(); err != nil {
		return err
	}
	e.stage = stage
	return nil
}

func (e *StageEvent) setMessage(message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return errs.NewValueIsRequiredError("message")
	}
	e.message = message
	return nil
}

func (e *StageEvent) setTimestamp(ts time.Time) error {
	if ts.IsZero() {
		return errs.NewValueIsRequiredError("timestamp")
	}
	e.timestamp = ts.UTC()
	return nil
}
