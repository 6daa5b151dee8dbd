package validation

import (
	"context"
	"fmt"
	"tickets/entity"
)

// validateAttempts bounds compare-and-swap retries against concurrent
// validators before giving up with an infrastructure error.
const validateAttempts = 5

type TicketStore interface {
	Get(ctx context.Context, code, eventID string) (entity.Ticket, error)
	RecordUsage(ctx context.Context, code, eventID, validatorID string, expectedUsageCount uint) (entity.Ticket, error)
}

// Engine enforces the usage state machine: fresh → partially used →
// exhausted, never backwards, never past the allowance.
type Engine struct {
	store TicketStore
}

func NewEngine(store TicketStore) Engine {
	return Engine{
		store: store,
	}
}

func (e Engine) Status(ctx context.Context, code, eventID string) (entity.Ticket, error) {
	ticket, err := e.store.Get(ctx, code, eventID)
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("getting ticket: %w", err)
	}

	return ticket, nil
}

// Validate consumes one admission. The store's increment is conditional on
// the usage count read here, so when two validators race for the last
// admission exactly one wins; the loser re-reads, finds the ticket exhausted
// and gets told so.
func (e Engine) Validate(ctx context.Context, code, eventID, validatorID string) (entity.Ticket, error) {
	var lastErr error
	for attempt := 0; attempt < validateAttempts; attempt++ {
		ticket, err := e.store.Get(ctx, code, eventID)
		if err != nil {
			return entity.Ticket{}, fmt.Errorf("getting ticket: %w", err)
		}

		if ticket.UsageCount >= ticket.MaxUsages {
			return entity.Ticket{}, exhaustedError{code: code, eventID: eventID}
		}

		updated, err := e.store.RecordUsage(ctx, code, eventID, validatorID, ticket.UsageCount)
		if err == nil {
			return updated, nil
		}
		if !isUsageConflict(err) {
			return entity.Ticket{}, fmt.Errorf("recording usage: %w", err)
		}

		// Lost the race to a concurrent validator; re-read and try again.
		lastErr = err
	}

	return entity.Ticket{}, fmt.Errorf("recording usage after %d attempts: %w", validateAttempts, lastErr)
}
