package validation

import (
	"context"
	"fmt"
	"tickets/entity"
)

type OrderGetter interface {
	GetOrder(ctx context.Context, orderID string) (entity.Order, error)
}

type GenerationStore interface {
	FindByOrder(ctx context.Context, orderID, eventID string) ([]entity.Ticket, error)
	CreateBatch(ctx context.Context, orderID, eventID string, count, usagesPerTicket uint) ([]entity.Ticket, error)
}

// Generator mints ticket codes from paid orders. Policy: one code per
// purchased unit, each admitting usagesPerTicket admissions; package
// semantics live in the allowance, not in extra codes.
type Generator struct {
	orders OrderGetter
	store  GenerationStore
}

func NewGenerator(orders OrderGetter, store GenerationStore) Generator {
	return Generator{
		orders: orders,
		store:  store,
	}
}

// Generate is idempotent per (orderID, eventID): a repeat call returns the
// previously minted codes instead of creating a second set.
func (g Generator) Generate(ctx context.Context, orderID, eventID string, quantity, usagesPerTicket uint) ([]string, error) {
	if quantity == 0 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}
	if usagesPerTicket == 0 {
		return nil, fmt.Errorf("usages per ticket must be at least 1")
	}

	order, err := g.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}

	if !order.AdmitsFulfillment() {
		return nil, orderNotFulfillableError{orderID: orderID, status: order.Status}
	}

	existing, err := g.store.FindByOrder(ctx, orderID, eventID)
	if err != nil {
		return nil, fmt.Errorf("finding tickets for order: %w", err)
	}
	if len(existing) > 0 {
		return codes(existing), nil
	}

	tickets, err := g.store.CreateBatch(ctx, orderID, eventID, quantity, usagesPerTicket)
	if err != nil {
		return nil, fmt.Errorf("creating ticket batch: %w", err)
	}

	return codes(tickets), nil
}

func codes(tickets []entity.Ticket) []string {
	out := make([]string, len(tickets))
	for i, t := range tickets {
		out[i] = t.Code
	}
	return out
}
