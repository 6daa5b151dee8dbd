package validation

import (
	"errors"
	"fmt"
)

// Domain outcomes are told apart by behaviour methods on the error value, so
// callers branch without importing the package that produced the error.

// IsTicketNotFound reports whether the code/event pair has no ticket.
func IsTicketNotFound(err error) bool {
	var e interface{ TicketNotFound() bool }
	return errors.As(err, &e) && e.TicketNotFound()
}

// IsTicketExhausted reports whether the ticket exists but has no usages left.
func IsTicketExhausted(err error) bool {
	var e interface{ TicketExhausted() bool }
	return errors.As(err, &e) && e.TicketExhausted()
}

// IsOrderNotFulfillable reports whether generation was blocked by the order's
// status.
func IsOrderNotFulfillable(err error) bool {
	var e interface{ OrderNotFulfillable() bool }
	return errors.As(err, &e) && e.OrderNotFulfillable()
}

// IsOrderNotFound reports whether the commerce system has no such order.
func IsOrderNotFound(err error) bool {
	var e interface{ OrderNotFound() bool }
	return errors.As(err, &e) && e.OrderNotFound()
}

func isUsageConflict(err error) bool {
	var e interface{ UsageConflict() bool }
	return errors.As(err, &e) && e.UsageConflict()
}

type exhaustedError struct {
	code    string
	eventID string
}

func (e exhaustedError) Error() string {
	return fmt.Sprintf("ticket %q for event %q has no admissions remaining", e.code, e.eventID)
}

func (e exhaustedError) TicketExhausted() bool {
	return true
}

type orderNotFulfillableError struct {
	orderID string
	status  string
}

func (e orderNotFulfillableError) Error() string {
	return fmt.Sprintf("order %q does not admit fulfillment in status %q", e.orderID, e.status)
}

func (e orderNotFulfillableError) OrderNotFulfillable() bool {
	return true
}
