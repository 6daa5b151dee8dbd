package event

import (
	"tickets/entity"
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

type header struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func newHeader(idempotencyKey string) header {
	return header{
		ID:             watermill.NewUUID(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

type TicketsGenerated struct {
	Header    header   `json:"header"`
	OrderID   string   `json:"order_id"`
	EventID   string   `json:"event_id"`
	Codes     []string `json:"codes"`
	MaxUsages uint     `json:"max_usages"`
}

func NewTicketsGenerated(idempotencyKey string, orderID, eventID string, codes []string, maxUsages uint) TicketsGenerated {
	return TicketsGenerated{
		Header:    newHeader(idempotencyKey),
		OrderID:   orderID,
		EventID:   eventID,
		Codes:     codes,
		MaxUsages: maxUsages,
	}
}

type TicketValidated struct {
	Header      header    `json:"header"`
	Code        string    `json:"code"`
	EventID     string    `json:"event_id"`
	OrderID     string    `json:"order_id"`
	ValidatedBy string    `json:"validated_by"`
	ValidatedAt time.Time `json:"validated_at"`
	UsageCount  uint      `json:"usage_count"`
	MaxUsages   uint      `json:"max_usages"`
}

func NewTicketValidated(idempotencyKey string, ticket entity.Ticket, usage entity.Usage) TicketValidated {
	return TicketValidated{
		Header:      newHeader(idempotencyKey),
		Code:        ticket.Code,
		EventID:     ticket.EventID,
		OrderID:     ticket.OrderID,
		ValidatedBy: usage.ValidatedBy,
		ValidatedAt: usage.Timestamp,
		UsageCount:  ticket.UsageCount,
		MaxUsages:   ticket.MaxUsages,
	}
}

type TicketExhausted struct {
	Header          header    `json:"header"`
	Code            string    `json:"code"`
	EventID         string    `json:"event_id"`
	OrderID         string    `json:"order_id"`
	LastValidatedBy string    `json:"last_validated_by"`
	ExhaustedAt     time.Time `json:"exhausted_at"`
}

func NewTicketExhausted(idempotencyKey string, e TicketValidated) TicketExhausted {
	return TicketExhausted{
		Header:          newHeader(idempotencyKey),
		Code:            e.Code,
		EventID:         e.EventID,
		OrderID:         e.OrderID,
		LastValidatedBy: e.ValidatedBy,
		ExhaustedAt:     e.ValidatedAt,
	}
}
