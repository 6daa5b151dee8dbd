package entity

import "time"

// TicketState describes how much of a ticket's usage allowance is left.
type TicketState string

const (
	StateFresh         TicketState = "fresh"
	StatePartiallyUsed TicketState = "partially_used"
	StateExhausted     TicketState = "exhausted"
)

// Ticket admits its bearer to an event up to MaxUsages times. The natural
// key is (Code, EventID); one order may own several tickets.
type Ticket struct {
	Code         string  `json:"code"`
	EventID      string  `json:"event_id"`
	OrderID      string  `json:"order_id"`
	MaxUsages    uint    `json:"max_usages"`
	UsageCount   uint    `json:"usage_count"`
	UsageHistory []Usage `json:"usage_history"`
}

// Usage is one admission recorded against a ticket.
type Usage struct {
	Timestamp   time.Time `json:"timestamp"`
	ValidatedBy string    `json:"validated_by"`
}

func (t Ticket) State() TicketState {
	switch {
	case t.UsageCount == 0:
		return StateFresh
	case t.UsageCount < t.MaxUsages:
		return StatePartiallyUsed
	default:
		return StateExhausted
	}
}

func (t Ticket) Remaining() uint {
	if t.UsageCount >= t.MaxUsages {
		return 0
	}
	return t.MaxUsages - t.UsageCount
}

// Checkin is the audit projection of a single validation, kept as evidence
// for support disputes.
type Checkin struct {
	Code        string    `json:"code"`
	EventID     string    `json:"event_id"`
	OrderID     string    `json:"order_id"`
	UsageNumber uint      `json:"usage_number"`
	ValidatedBy string    `json:"validated_by"`
	UsedAt      time.Time `json:"used_at"`
}

// Order status vocabulary is owned by the commerce system; only the subset
// that admits fulfillment matters here.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// Order is the view of a commerce order the validation core needs.
type Order struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (o Order) AdmitsFulfillment() bool {
	return o.Status == OrderStatusProcessing || o.Status == OrderStatusCompleted
}
