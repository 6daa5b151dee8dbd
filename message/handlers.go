package message

import (
	"context"

	"tickets/entity"
	"tickets/event"
)

type CheckinRepo interface {
	Add(ctx context.Context, checkin entity.Checkin) error
}

type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// handleStoreCheckin projects every validation into the check-in audit read
// model used for support disputes.
func handleStoreCheckin(repo CheckinRepo) func(ctx context.Context, e *event.TicketValidated) error {
	return func(ctx context.Context, e *event.TicketValidated) error {
		c := entity.Checkin{
			Code:        e.Code,
			EventID:     e.EventID,
			OrderID:     e.OrderID,
			UsageNumber: e.UsageCount,
			ValidatedBy: e.ValidatedBy,
			UsedAt:      e.ValidatedAt,
		}
		return repo.Add(ctx, c)
	}
}

// handleAnnounceExhausted publishes TicketExhausted when a validation
// consumed the final admission. Downstream consumers (notifications) are
// outside this service.
func handleAnnounceExhausted(p Publisher) func(ctx context.Context, e *event.TicketValidated) error {
	return func(ctx context.Context, e *event.TicketValidated) error {
		if e.UsageCount < e.MaxUsages {
			return nil
		}

		return p.Publish(ctx, event.NewTicketExhausted(e.Header.IdempotencyKey, *e))
	}
}
