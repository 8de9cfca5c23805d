// Package order owns the life of a delivery order.
//
// The status machine looks like this:
//
//	PENDENTE -> ACEITO -> EM_PREPARO -> A_CAMINHO -> NA_PORTA -> ENTREGUE
//	    \          \          \            \           \
//	     +----------+----------+------------+-----------+--> CANCELADO
//
// Two kinds of actor move an order along it:
//   - The company accepts, assigns a driver, cancels, or requests a
//     target status through Transition.
//   - The assigned driver only ever calls Advance, one step at a time.
//
// The functions in this file are pure. They check the edge, set the new
// status and stamp the matching timestamp on the struct they are given,
// and never touch storage. Service wraps them with loading, the
// conditional write and the realtime broadcast.
package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/models"
)

var (
	// ErrInvalidTransition covers every edge not in the lifecycle table,
	// including any mutation of an order that is already ENTREGUE or CANCELADO.
	ErrInvalidTransition = errors.New("invalid transition")

	ErrCancelReasonRequired  = errors.New("cancel reason is required")
	ErrDriverAlreadyAssigned = errors.New("order already has a driver")

	// ErrDriverAssignRequiresAccepted also matches ErrInvalidTransition.
	ErrDriverAssignRequiresAccepted = fmt.Errorf("%w: driver assignment requires ACEITO", ErrInvalidTransition)
)

// forward is the delivery path after acceptance. PENDENTE → ACEITO is not
// here: only the company may accept, drivers only advance.
var forward = map[models.OrderStatus]models.OrderStatus{
	models.OrderAccepted:  models.OrderPreparing,
	models.OrderPreparing: models.OrderOnTheWay,
	models.OrderOnTheWay:  models.OrderAtDoor,
	models.OrderAtDoor:    models.OrderDelivered,
}

// Next returns the status Advance would move o to, if any.
func Next(s models.OrderStatus) (models.OrderStatus, bool) {
	next, ok := forward[s]
	return next, ok
}

func invalid(o *models.Order, to models.OrderStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
}

// stamp sets *ts once. A timestamp that is already set is never rewritten.
func stamp(ts **time.Time, now time.Time) {
	if *ts == nil {
		t := now
		*ts = &t
	}
}

// Accept moves a PENDENTE order to ACEITO.
func Accept(o *models.Order, now time.Time) error {
	if o.Status != models.OrderPending {
		return invalid(o, models.OrderAccepted)
	}
	o.Status = models.OrderAccepted
	stamp(&o.AcceptedAt, now)
	return nil
}

// AssignDriver attaches a driver to an ACEITO order. The status is left
// alone: an order can be accepted and still be waiting for a driver.
// Reassignment is not supported.
func AssignDriver(o *models.Order, driverID uuid.UUID) error {
	if o.Status != models.OrderAccepted {
		return fmt.Errorf("%w (order is %s)", ErrDriverAssignRequiresAccepted, o.Status)
	}
	if o.AssignedDriver != nil {
		return ErrDriverAlreadyAssigned
	}
	id := driverID
	o.AssignedDriver = &id
	return nil
}

// Advance moves o one step along the delivery path. Reaching ENTREGUE
// marks the order as paid.
func Advance(o *models.Order, now time.Time) error {
	next, ok := forward[o.Status]
	if !ok {
		return fmt.Errorf("%w: no step after %s", ErrInvalidTransition, o.Status)
	}

	switch next {
	case models.OrderPreparing:
		stamp(&o.PreparingAt, now)
	case models.OrderOnTheWay:
		stamp(&o.OnWayAt, now)
	case models.OrderAtDoor:
		stamp(&o.AtDoorAt, now)
	case models.OrderDelivered:
		stamp(&o.DeliveredAt, now)
		o.PaymentStatus = models.PaymentPaid
	}
	o.Status = next
	return nil
}

// Cancel moves any non-terminal order to CANCELADO with a reason.
func Cancel(o *models.Order, reason string) error {
	if o.Status.Terminal() {
		return invalid(o, models.OrderCancelled)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrCancelReasonRequired
	}
	o.Status = models.OrderCancelled
	o.CancelReason = &reason
	return nil
}

// Transition applies a caller-requested target status. It accepts exactly
// the edges Accept, Advance and Cancel accept; anything else, such as
// PENDENTE → ENTREGUE, fails with ErrInvalidTransition.
func Transition(o *models.Order, to models.OrderStatus, reason string, now time.Time) error {
	if o.Status.Terminal() {
		return invalid(o, to)
	}
	switch {
	case to == models.OrderCancelled:
		return Cancel(o, reason)
	case to == models.OrderAccepted:
		return Accept(o, now)
	}
	if next, ok := forward[o.Status]; ok && next == to {
		return Advance(o, now)
	}
	return invalid(o, to)
}
