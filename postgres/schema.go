package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func InitialiseDB(ctx context.Context, db *sqlx.DB) error {
	if err := CreateTicketsTable(ctx, db); err != nil {
		return fmt.Errorf("creating tickets table: %w", err)
	}

	if err := CreateTicketUsagesTable(ctx, db); err != nil {
		return fmt.Errorf("creating ticket usages table: %w", err)
	}

	if err := CreateCheckinsTable(ctx, db); err != nil {
		return fmt.Errorf("creating checkins table: %w", err)
	}

	return nil
}
