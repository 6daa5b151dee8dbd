package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"tickets/entity"
	"tickets/validation"
	"time"

	"github.com/labstack/echo/v4"
)

type ValidationEngine interface {
	Status(ctx context.Context, code, eventID string) (entity.Ticket, error)
	Validate(ctx context.Context, code, eventID, validatorID string) (entity.Ticket, error)
}

type TicketGenerator interface {
	Generate(ctx context.Context, orderID, eventID string, quantity, usagesPerTicket uint) ([]string, error)
}

type CheckinLister interface {
	ListByEvent(ctx context.Context, eventID string, limit uint) ([]entity.Checkin, error)
}

type handler struct {
	checkins  CheckinLister
	engine    ValidationEngine
	generator TicketGenerator
}

type generateTicketsRequest struct {
	EventID         string `json:"event_id"`
	Quantity        uint   `json:"quantity"`
	UsagesPerTicket uint   `json:"usages_per_ticket"`
}

type generateTicketsResponse struct {
	QRCodes []string `json:"qr_codes"`
}

type ticketStatusResponse struct {
	Code         string        `json:"code"`
	EventID      string        `json:"event_id"`
	OrderID      string        `json:"order_id"`
	State        string        `json:"state"`
	MaxUsages    uint          `json:"max_usages"`
	UsageCount   uint          `json:"usage_count"`
	Remaining    uint          `json:"remaining"`
	UsageHistory []usageRecord `json:"usage_history"`
}

type usageRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	ValidatedBy string    `json:"validated_by"`
}

type validateTicketRequest struct {
	QRCode  string `json:"qr_code"`
	EventID string `json:"event_id"`
}

type errorResponse struct {
	Error  string                `json:"error"`
	Ticket *ticketStatusResponse `json:"ticket,omitempty"`
}

func (h handler) GenerateTickets(c echo.Context) error {
	orderID := c.Param("order_id")

	var request generateTicketsRequest
	if err := c.Bind(&request); err != nil {
		return &echo.HTTPError{
			Code:     http.StatusBadRequest,
			Message:  "failed to parse request",
			Internal: fmt.Errorf("failed to bind request: %w", err),
		}
	}

	if request.EventID == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "event_id is required",
		}
	}
	if request.Quantity < 1 {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "quantity must be at least 1",
		}
	}
	if request.UsagesPerTicket < 1 {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "usages_per_ticket must be at least 1",
		}
	}

	ctx := c.Request().Context()
	codes, err := h.generator.Generate(ctx, orderID, request.EventID, request.Quantity, request.UsagesPerTicket)
	switch {
	case validation.IsOrderNotFound(err):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "order_not_found"})
	case validation.IsOrderNotFulfillable(err):
		return c.JSON(http.StatusConflict, errorResponse{Error: "order_not_fulfillable"})
	case err != nil:
		return &echo.HTTPError{
			Message:  http.StatusText(http.StatusInternalServerError),
			Internal: fmt.Errorf("generating tickets: %w", err),
		}
	}

	return c.JSON(http.StatusOK, generateTicketsResponse{QRCodes: codes})
}

func (h handler) GetTicketStatus(c echo.Context) error {
	code := c.Param("code")
	eventID := c.QueryParam("event_id")
	if eventID == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "event_id is required",
		}
	}

	ticket, err := h.engine.Status(c.Request().Context(), code, eventID)
	switch {
	case validation.IsTicketNotFound(err):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "ticket_not_found"})
	case err != nil:
		return &echo.HTTPError{
			Message:  http.StatusText(http.StatusInternalServerError),
			Internal: fmt.Errorf("getting ticket status: %w", err),
		}
	}

	return c.JSON(http.StatusOK, toTicketStatus(ticket))
}

func (h handler) ValidateTicket(c echo.Context) error {
	var request validateTicketRequest
	if err := c.Bind(&request); err != nil {
		return &echo.HTTPError{
			Code:     http.StatusBadRequest,
			Message:  "failed to parse request",
			Internal: fmt.Errorf("failed to bind request: %w", err),
		}
	}

	// Scanned payloads carry "<code>/<event_id>"; an explicit event_id in
	// the request wins over the embedded one.
	code, embeddedEventID, _ := strings.Cut(request.QRCode, "/")
	eventID := request.EventID
	if eventID == "" {
		eventID = embeddedEventID
	}
	if code == "" || eventID == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "qr_code and event_id are required",
		}
	}

	ctx := c.Request().Context()
	validator := principalFrom(c).Subject

	ticket, err := h.engine.Validate(ctx, code, eventID, validator)
	switch {
	case validation.IsTicketNotFound(err):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "ticket_not_found"})
	case validation.IsTicketExhausted(err):
		// Include the snapshot so scanners can show when the last
		// admission happened and who recorded it.
		snapshot, statusErr := h.engine.Status(ctx, code, eventID)
		if statusErr != nil {
			return &echo.HTTPError{
				Message:  http.StatusText(http.StatusInternalServerError),
				Internal: fmt.Errorf("getting exhausted ticket status: %w", statusErr),
			}
		}
		status := toTicketStatus(snapshot)
		return c.JSON(http.StatusConflict, errorResponse{
			Error:  "ticket_exhausted",
			Ticket: &status,
		})
	case err != nil:
		return &echo.HTTPError{
			Message:  http.StatusText(http.StatusInternalServerError),
			Internal: fmt.Errorf("validating ticket: %w", err),
		}
	}

	return c.JSON(http.StatusOK, toTicketStatus(ticket))
}

func (h handler) ListCheckins(c echo.Context) error {
	eventID := c.QueryParam("event_id")
	if eventID == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "event_id is required",
		}
	}

	limit := uint(50)
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || parsed < 1 {
			return &echo.HTTPError{
				Code:    http.StatusBadRequest,
				Message: "limit must be a positive integer",
			}
		}
		limit = uint(parsed)
	}

	checkins, err := h.checkins.ListByEvent(c.Request().Context(), eventID, limit)
	if err != nil {
		return &echo.HTTPError{
			Message:  http.StatusText(http.StatusInternalServerError),
			Internal: fmt.Errorf("listing checkins: %w", err),
		}
	}
	if checkins == nil {
		checkins = []entity.Checkin{}
	}

	return c.JSON(http.StatusOK, checkins)
}

func toTicketStatus(t entity.Ticket) ticketStatusResponse {
	history := make([]usageRecord, len(t.UsageHistory))
	for i, u := range t.UsageHistory {
		history[i] = usageRecord{
			Timestamp:   u.Timestamp,
			ValidatedBy: u.ValidatedBy,
		}
	}

	return ticketStatusResponse{
		Code:         t.Code,
		EventID:      t.EventID,
		OrderID:      t.OrderID,
		State:        string(t.State()),
		MaxUsages:    t.MaxUsages,
		UsageCount:   t.UsageCount,
		Remaining:    t.Remaining(),
		UsageHistory: history,
	}
}
