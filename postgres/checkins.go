package postgres

import (
	"context"
	"fmt"
	"tickets/entity"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func CreateCheckinsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS checkins (
		code VARCHAR(64) NOT NULL,
		event_id VARCHAR(64) NOT NULL,
		order_id VARCHAR(64) NOT NULL,
		usage_number INTEGER NOT NULL,
		validated_by VARCHAR(255) NOT NULL,
		used_at TIMESTAMP WITH TIME ZONE NOT NULL,
		PRIMARY KEY (code, event_id, usage_number)
	);
	CREATE INDEX IF NOT EXISTS checkins_event_idx ON checkins (event_id, used_at);`)
	return err
}

type CheckinRepo struct {
	db *sqlx.DB
}

func NewCheckinRepo(db *sqlx.DB) CheckinRepo {
	return CheckinRepo{
		db: db,
	}
}

// Add is idempotent on (code, event_id, usage_number) so redelivered events
// do not duplicate audit rows.
func (r CheckinRepo) Add(ctx context.Context, checkin entity.Checkin) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO checkins
		(code, event_id, order_id, usage_number, validated_by, used_at)
		VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING;`,
		checkin.Code, checkin.EventID, checkin.OrderID, checkin.UsageNumber, checkin.ValidatedBy, checkin.UsedAt)
	return err
}

func (r CheckinRepo) ListByEvent(ctx context.Context, eventID string, limit uint) ([]entity.Checkin, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, event_id, order_id, usage_number, validated_by, used_at
		FROM checkins WHERE event_id = $1 ORDER BY used_at DESC LIMIT $2;`, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying checkins: %w", err)
	}
	defer rows.Close()

	var checkins []entity.Checkin
	for rows.Next() {
		var c entity.Checkin
		if err := rows.Scan(&c.Code, &c.EventID, &c.OrderID, &c.UsageNumber, &c.ValidatedBy, &c.UsedAt); err != nil {
			return nil, fmt.Errorf("scanning checkin: %w", err)
		}

		checkins = append(checkins, c)
	}

	return checkins, rows.Err()
}
