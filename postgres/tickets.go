package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"tickets/entity"
	"tickets/event"
	"tickets/message"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/lithammer/shortuuid/v3"
)

const createBatchAttempts = 3

type ticketNotFoundError struct {
	code    string
	eventID string
}

func (e ticketNotFoundError) Error() string {
	return fmt.Sprintf("no ticket %q for event %q", e.code, e.eventID)
}

func (e ticketNotFoundError) TicketNotFound() bool {
	return true
}

type ticketExhaustedError struct {
	code      string
	eventID   string
	maxUsages uint
}

func (e ticketExhaustedError) Error() string {
	return fmt.Sprintf("ticket %q for event %q has used all %d admissions", e.code, e.eventID, e.maxUsages)
}

func (e ticketExhaustedError) TicketExhausted() bool {
	return true
}

type usageConflictError struct {
	code     string
	eventID  string
	expected uint
}

func (e usageConflictError) Error() string {
	return fmt.Sprintf("usage count of ticket %q for event %q no longer %d", e.code, e.eventID, e.expected)
}

func (e usageConflictError) UsageConflict() bool {
	return true
}

func CreateTicketsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS tickets (
		code VARCHAR(64) NOT NULL,
		event_id VARCHAR(64) NOT NULL,
		order_id VARCHAR(64) NOT NULL,
		max_usages INTEGER NOT NULL CHECK (max_usages >= 1),
		usage_count INTEGER NOT NULL DEFAULT 0 CHECK (usage_count >= 0 AND usage_count <= max_usages),
		PRIMARY KEY (code, event_id)
	);
	CREATE INDEX IF NOT EXISTS tickets_order_idx ON tickets (order_id, event_id);`)
	return err
}

func CreateTicketUsagesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS ticket_usages (
		id SERIAL PRIMARY KEY,
		code VARCHAR(64) NOT NULL,
		event_id VARCHAR(64) NOT NULL,
		validated_by VARCHAR(255) NOT NULL,
		used_at TIMESTAMP WITH TIME ZONE NOT NULL
	);
	CREATE INDEX IF NOT EXISTS ticket_usages_ticket_idx ON ticket_usages (code, event_id);`)
	return err
}

type TicketRepo struct {
	db     *sqlx.DB
	logger watermill.LoggerAdapter
}

func NewTicketRepo(db *sqlx.DB, logger watermill.LoggerAdapter) TicketRepo {
	return TicketRepo{
		db:     db,
		logger: logger,
	}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r TicketRepo) Get(ctx context.Context, code, eventID string) (entity.Ticket, error) {
	return getTicket(ctx, r.db, code, eventID)
}

func (r TicketRepo) FindByOrder(ctx context.Context, orderID, eventID string) ([]entity.Ticket, error) {
	return findByOrder(ctx, r.db, orderID, eventID)
}

// CreateBatch mints count fresh codes for an order, or returns the codes a
// previous call already minted for the same (orderID, eventID). Runs under a
// serializable transaction so two concurrent calls cannot both insert;
// the loser retries and finds the winner's rows.
func (r TicketRepo) CreateBatch(ctx context.Context, orderID, eventID string, count, usagesPerTicket uint) ([]entity.Ticket, error) {
	var lastErr error
	for attempt := 0; attempt < createBatchAttempts; attempt++ {
		tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
			Isolation: sql.LevelSerializable,
		})
		if err != nil {
			return nil, fmt.Errorf("beginning transaction: %w", err)
		}

		tickets, err := r.createBatch(ctx, tx, orderID, eventID, count, usagesPerTicket)
		if err != nil {
			lastErr = errors.Join(err, tx.Rollback())
			if isSerializationFailure(err) || isUniqueViolation(err) {
				continue
			}
			return nil, lastErr
		}

		if err := tx.Commit(); err != nil {
			lastErr = fmt.Errorf("committing transaction: %w", err)
			if isSerializationFailure(err) {
				continue
			}
			return nil, lastErr
		}

		return tickets, nil
	}

	return nil, fmt.Errorf("creating ticket batch after %d attempts: %w", createBatchAttempts, lastErr)
}

func (r TicketRepo) createBatch(ctx context.Context, tx *sql.Tx, orderID, eventID string, count, usagesPerTicket uint) ([]entity.Ticket, error) {
	existing, err := findByOrder(ctx, tx, orderID, eventID)
	if err != nil {
		return nil, fmt.Errorf("finding existing tickets: %w", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	tickets := make([]entity.Ticket, 0, count)
	codes := make([]string, 0, count)
	for i := uint(0); i < count; i++ {
		t := entity.Ticket{
			Code:      shortuuid.New(),
			EventID:   eventID,
			OrderID:   orderID,
			MaxUsages: usagesPerTicket,
		}

		_, err := tx.ExecContext(ctx, `INSERT INTO tickets
			(code, event_id, order_id, max_usages, usage_count)
			VALUES ($1, $2, $3, $4, 0);`,
			t.Code, t.EventID, t.OrderID, t.MaxUsages)
		if err != nil {
			return nil, fmt.Errorf("inserting ticket: %w", err)
		}

		tickets = append(tickets, t)
		codes = append(codes, t.Code)
	}

	e := event.NewTicketsGenerated(uuid.NewString(), orderID, eventID, codes, usagesPerTicket)

	if err := message.PublishInTx(ctx, e, tx, r.logger); err != nil {
		return nil, fmt.Errorf("publishing event in transaction: %w", err)
	}

	return tickets, nil
}

// RecordUsage is the only mutation path for a ticket. The increment is a
// compare-and-swap on the usage count read by the caller: zero rows affected
// means the ticket is missing, exhausted, or was updated by a concurrent
// validator, and the three are told apart by re-reading the row.
func (r TicketRepo) RecordUsage(ctx context.Context, code, eventID, validatorID string, expectedUsageCount uint) (entity.Ticket, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("beginning transaction: %w", err)
	}

	ticket, err := r.recordUsage(ctx, tx, code, eventID, validatorID, expectedUsageCount)
	if err != nil {
		return entity.Ticket{}, errors.Join(err, tx.Rollback())
	}

	if err := tx.Commit(); err != nil {
		return entity.Ticket{}, fmt.Errorf("committing transaction: %w", err)
	}

	return ticket, nil
}

func (r TicketRepo) recordUsage(ctx context.Context, tx *sql.Tx, code, eventID, validatorID string, expectedUsageCount uint) (entity.Ticket, error) {
	res, err := tx.ExecContext(ctx, `UPDATE tickets SET usage_count = usage_count + 1
		WHERE code = $1 AND event_id = $2 AND usage_count = $3 AND usage_count < max_usages;`,
		code, eventID, expectedUsageCount)
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("incrementing usage count: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return entity.Ticket{}, classifyMissedUpdate(ctx, tx, code, eventID, expectedUsageCount)
	}

	usage := entity.Usage{
		Timestamp:   time.Now().UTC(),
		ValidatedBy: validatorID,
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO ticket_usages
		(code, event_id, validated_by, used_at)
		VALUES ($1, $2, $3, $4);`,
		code, eventID, usage.ValidatedBy, usage.Timestamp)
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("inserting usage record: %w", err)
	}

	ticket, err := getTicket(ctx, tx, code, eventID)
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("reloading ticket: %w", err)
	}

	e := event.NewTicketValidated(uuid.NewString(), ticket, usage)

	if err := message.PublishInTx(ctx, e, tx, r.logger); err != nil {
		return entity.Ticket{}, fmt.Errorf("publishing event in transaction: %w", err)
	}

	return ticket, nil
}

func classifyMissedUpdate(ctx context.Context, tx *sql.Tx, code, eventID string, expectedUsageCount uint) error {
	row := tx.QueryRowContext(ctx, `SELECT usage_count, max_usages FROM tickets
		WHERE code = $1 AND event_id = $2;`, code, eventID)

	var usageCount, maxUsages uint
	if err := row.Scan(&usageCount, &maxUsages); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ticketNotFoundError{code: code, eventID: eventID}
		}
		return fmt.Errorf("scanning ticket counters: %w", err)
	}

	if usageCount >= maxUsages {
		return ticketExhaustedError{code: code, eventID: eventID, maxUsages: maxUsages}
	}

	return usageConflictError{code: code, eventID: eventID, expected: expectedUsageCount}
}

func getTicket(ctx context.Context, q queryer, code, eventID string) (entity.Ticket, error) {
	row := q.QueryRowContext(ctx, `SELECT code, event_id, order_id, max_usages, usage_count
		FROM tickets WHERE code = $1 AND event_id = $2;`, code, eventID)

	var t entity.Ticket
	if err := row.Scan(&t.Code, &t.EventID, &t.OrderID, &t.MaxUsages, &t.UsageCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Ticket{}, ticketNotFoundError{code: code, eventID: eventID}
		}
		return entity.Ticket{}, fmt.Errorf("scanning ticket: %w", err)
	}

	usages, err := getUsages(ctx, q, code, eventID)
	if err != nil {
		return entity.Ticket{}, err
	}
	t.UsageHistory = usages

	return t, nil
}

func getUsages(ctx context.Context, q queryer, code, eventID string) ([]entity.Usage, error) {
	rows, err := q.QueryContext(ctx, `SELECT validated_by, used_at FROM ticket_usages
		WHERE code = $1 AND event_id = $2 ORDER BY used_at, id;`, code, eventID)
	if err != nil {
		return nil, fmt.Errorf("querying usages: %w", err)
	}
	defer rows.Close()

	var usages []entity.Usage
	for rows.Next() {
		var u entity.Usage
		if err := rows.Scan(&u.ValidatedBy, &u.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning usage: %w", err)
		}

		usages = append(usages, u)
	}

	return usages, rows.Err()
}

func findByOrder(ctx context.Context, q queryer, orderID, eventID string) ([]entity.Ticket, error) {
	rows, err := q.QueryContext(ctx, `SELECT code, event_id, order_id, max_usages, usage_count
		FROM tickets WHERE order_id = $1 AND event_id = $2 ORDER BY code;`, orderID, eventID)
	if err != nil {
		return nil, fmt.Errorf("querying tickets: %w", err)
	}

	var tickets []entity.Ticket
	for rows.Next() {
		var t entity.Ticket
		if err := rows.Scan(&t.Code, &t.EventID, &t.OrderID, &t.MaxUsages, &t.UsageCount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning ticket: %w", err)
		}

		tickets = append(tickets, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tickets {
		usages, err := getUsages(ctx, q, tickets[i].Code, tickets[i].EventID)
		if err != nil {
			return nil, err
		}
		tickets[i].UsageHistory = usages
	}

	return tickets, nil
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "40001"
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
