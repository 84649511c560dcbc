package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

// ClearAuditLog removes every audit row. The schema is preserved and the id
// sequence restarts.
func ClearAuditLog(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info(fmt.Sprintf("%s - Clearing %s", clearLogPrefix, AuditTable))

	if _, err := pool.Exec(ctx, `TRUNCATE TABLE `+AuditTable+` RESTART IDENTITY`); err != nil {
		return fmt.Errorf("%s - truncate failed: %w", clearLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Audit log cleared", clearLogPrefix))
	return nil
}
