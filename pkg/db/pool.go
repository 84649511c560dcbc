package db

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const logPrefix = "db:pool"

// NewPool creates a new pgx connection pool from the given database URL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	slog.Info(fmt.Sprintf("%s - Connecting to database", logPrefix))

	config, err := poolConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create pool: %w", logPrefix, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to ping database: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Database connection established", logPrefix))
	return pool, nil
}

// ApplicationName tags audit connections in pg_stat_activity.
const ApplicationName = "a2a-agent"

// poolConfig parses databaseURL and sizes the pool for audit writes, which are
// short single-row inserts. An application_name in the URL is kept.
func poolConfig(databaseURL string) (*pgxpool.Config, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("%s - database URL is empty", logPrefix)
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to parse database URL: %w", logPrefix, err)
	}
	config.MaxConns = 10
	config.MinConns = 1
	if config.ConnConfig.RuntimeParams == nil {
		config.ConnConfig.RuntimeParams = map[string]string{}
	}
	if config.ConnConfig.RuntimeParams["application_name"] == "" {
		config.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	}
	return config, nil
}

// RunMigrations applies SQL migration files in order. Migrations must be idempotent.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, migrationFiles []string) error {
	slog.Info(fmt.Sprintf("%s - Running %d migrations", logPrefix, len(migrationFiles)))

	for i, sql := range migrationFiles {
		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("%s - migration %d failed: %w", logPrefix, i+1, err)
		}
	}

	slog.Info(fmt.Sprintf("%s - Migrations complete", logPrefix))
	return nil
}

// SchemaApplied reports whether the audit table exists.
func SchemaApplied(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`,
		AuditTable).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s - failed to check schema: %w", logPrefix, err)
	}
	return exists, nil
}

// MigrationStatus writes whether the audit schema has been applied, given the
// number of migration files available.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool, w io.Writer, migrationCount int) error {
	exists, err := SchemaApplied(ctx, pool)
	if err != nil {
		return err
	}
	writeMigrationStatus(w, exists, migrationCount)
	return nil
}

func writeMigrationStatus(w io.Writer, applied bool, migrationCount int) {
	if applied {
		fmt.Fprintf(w, "Migration status: applied (%s present, %d migration files)\n", AuditTable, migrationCount)
		return
	}
	fmt.Fprintf(w, "Migration status: not applied (run 'a2a-agent migrate up'). %d migration files\n", migrationCount)
}

// MigrationDown writes a notice: audit migrations are forward-only and the
// table is never dropped by the agent.
func MigrationDown(w io.Writer, migrationCount int) error {
	fmt.Fprintf(w, "Migration down: not supported (%d forward-only migrations for %s). Use 'a2a-agent clear' to empty the audit log or a database backup to roll back.\n",
		migrationCount, AuditTable)
	return nil
}
