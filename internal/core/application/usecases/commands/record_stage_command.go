package commands

import (
	"errors"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/timeline"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrRecordStageCommandIsNotConstructed = errors.New(
	"RecordStageCommand must be created via NewRecordStageCommand constructor",
)

// RecordStageCommand carries one fired transition from the scheduler to the ledger.
type RecordStageCommand struct { //nolint:recvcheck //using for validation
	orderID    kernel.OrderID
	dispatchID kernel.UUID
	stage      timeline.Stage
	message    string
	firedAt    time.Time

	guard guard.ConstructorGuard
}

func NewRecordStageCommand(
	orderID kernel.OrderID,
	dispatchID kernel.UUID,
	stage timeline.Stage,
	message string,
	firedAt time.Time,
) (RecordStageCommand, error) {
	cmd := RecordStageCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setDispatchID(dispatchID),
		cmd.setStage(stage),
		cmd.setMessage(message),
		cmd.setFiredAt(firedAt),
	); err != nil {
		return RecordStageCommand{}, err
	}

	return cmd, nil
}

func (c RecordStageCommand) Validate() error {
	return c.guard.Validate(ErrRecordStageCommandIsNotConstructed)
}

func (c RecordStageCommand) OrderID() kernel.OrderID {
	return c.orderID
}

// DispatchID is the dispatch that armed the transition.
func (c RecordStageCommand) DispatchID() kernel.UUID {
	return c.dispatchID
}

func (c RecordStageCommand) Stage() timeline.Stage {
	return c.stage
}

func (c RecordStageCommand) Message() string {
	return c.message
}

func (c RecordStageCommand) FiredAt() time.Time {
	return c.firedAt
}

func (c *RecordStageCommand) setOrderID(orderID kernel.OrderID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *RecordStageCommand) setDispatchID(dispatchID kernel.UUID) error {
	if err := dispatchID.Validate(); err != nil {
		return err
	}
	c.dispatchID = dispatchID
	return nil
}

// Pending is written by the dispatch itself and never arrives through a transition.
func (c *RecordStageCommand) setStage(stage timeline.Stage) error {
	if err := stage.Validate(); err != nil {
		return err
	}
	if stage == timeline.Pending {
		return errs.NewValueIsInvalidError("stage")
	}
	c.stage = stage
	return nil
}

func (c *RecordStageCommand) setMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return errs.NewValueIsRequiredError("message")
	}
	c.message = message
	return nil
}

func (c *RecordStageCommand) setFiredAt(firedAt time.Time) error {
	if firedAt.IsZero() {
		return errs.NewValueIsRequiredError("firedAt")
	}
	c.firedAt = firedAt
	return nil
}
