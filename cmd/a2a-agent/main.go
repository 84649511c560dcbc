// Package main is the entrypoint for the A2A agent (binary name "a2a-agent").
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/DataSup-Engineer/nasdaq-agent/internal/config"
	"github.com/DataSup-Engineer/nasdaq-agent/internal/server"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/audit"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/db"
)

const usage = `Usage: a2a-agent [command]
       a2a-agent serve              Start the agent (HTTP, optional COMMS binding).
       a2a-agent migrate up         Create the Postgres audit schema.
       a2a-agent migrate down       Roll back (not supported; migrations are forward-only).
       a2a-agent migrate status     Show migration status.
       a2a-agent ensure-db [name]   Create database if missing (default name: a2a_audit). Uses DATABASE_URL host/user.
       a2a-agent clear              Delete all audit entries for AUDIT_BACKEND; schema is preserved.
       a2a-agent manifest           Print the agent manifest as JSON.
       a2a-agent audit [limit]      Print the most recent audit entries (default 20).

Commands:
  serve           (default) Start the A2A agent.
  migrate up      Run database migrations only (MIGRATION_PATH, else the embedded copies).
  migrate down    Roll back last migration (optional).
  migrate status  Show current migration status.
  ensure-db [name] Create database (e.g. a2a_audit) on same host as DATABASE_URL.
  clear           Empty the audit log.
  manifest        Print the manifest the agent would serve, including CAPABILITIES_FILE.
  audit [limit]   Print recent audit entries as JSON lines.

Environment: AGENT_ID, CAPABILITIES_FILE, COMMS_URL, ANALYZER_URL, AUDIT_BACKEND (none|postgres|sqlite),
DATABASE_URL (postgres), SQLITE_PATH (sqlite), MIGRATION_PATH, HTTP_ADDR / HTTP_PORT (default 8000). See README.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("a2a-agent migrate: require subcommand (up, down, status)")
		}
		sub := args[1]
		switch sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("a2a-agent migrate up: %v", err)
			}
		case "status":
			if err := runMigrateStatus(); err != nil {
				log.Fatalf("a2a-agent migrate status: %v", err)
			}
		case "down":
			if err := runMigrateDown(); err != nil {
				log.Fatalf("a2a-agent migrate down: %v", err)
			}
		default:
			log.Fatalf("a2a-agent migrate: unknown subcommand %q (use up, down, status)", sub)
		}
		return
	case "ensure-db":
		dbName := db.DefaultAuditDatabase
		if len(args) > 1 && args[1] != "" {
			dbName = args[1]
		}
		if err := runEnsureDB(dbName); err != nil {
			log.Fatalf("a2a-agent ensure-db: %v", err)
		}
		return
	case "clear":
		if err := runClear(); err != nil {
			log.Fatalf("a2a-agent clear: %v", err)
		}
		return
	case "manifest":
		if err := runManifest(); err != nil {
			log.Fatalf("a2a-agent manifest: %v", err)
		}
		return
	case "audit":
		limit, err := parseLimit(args[1:])
		if err != nil {
			log.Fatalf("a2a-agent audit: %v", err)
		}
		if err := runAudit(limit); err != nil {
			log.Fatalf("a2a-agent audit: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("a2a-agent: %v", err)
	}
}

// parseLimit reads the optional audit limit argument.
func parseLimit(args []string) (int, error) {
	if len(args) == 0 || args[0] == "" {
		return 20, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", args[0])
	}
	return n, nil
}

func loadDBConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runMigrateUp() error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrationSQL, err := server.LoadMigrations(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runMigrateStatus() error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrationSQL, err := server.LoadMigrations(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	return db.MigrationStatus(ctx, pool, os.Stdout, len(migrationSQL))
}

func runMigrateDown() error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	migrationSQL, err := server.LoadMigrations(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	return db.MigrationDown(os.Stdout, len(migrationSQL))
}

func runEnsureDB(dbName string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	target, err := db.AuditDatabaseURL(cfg.DatabaseURL, dbName)
	if err != nil {
		return err
	}
	created, err := db.EnsureDatabase(context.Background(), target)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("Database %q created.\n", dbName)
	}
	fmt.Printf("Database %q is ready.\n", dbName)
	return nil
}

// runClear empties the audit log of the configured backend.
func runClear() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := context.Background()

	switch cfg.AuditBackend {
	case config.AuditBackendSQLite:
		sink, err := audit.NewSQLiteSink(cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("open audit store: %w", err)
		}
		defer sink.Close()
		if err := sink.Clear(ctx); err != nil {
			return fmt.Errorf("clear audit log: %w", err)
		}
	default:
		if err := cfg.ValidateForDB(); err != nil {
			return err
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		if err := db.ClearAuditLog(ctx, pool); err != nil {
			return fmt.Errorf("clear audit log: %w", err)
		}
	}
	fmt.Println("Audit log cleared.")
	return nil
}

func runManifest() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	reg, err := server.LoadRegistry(cfg)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(reg.Manifest())
}

// runAudit prints recent entries from the configured audit backend.
func runAudit(limit int) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := context.Background()

	var reader audit.Reader
	switch cfg.AuditBackend {
	case config.AuditBackendSQLite:
		sink, err := audit.NewSQLiteSink(cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("open audit store: %w", err)
		}
		defer sink.Close()
		reader = sink
	case config.AuditBackendPostgres:
		if err := cfg.ValidateForDB(); err != nil {
			return err
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		reader = audit.NewPostgresSink(pool)
	default:
		return fmt.Errorf("AUDIT_BACKEND is %q; set postgres or sqlite", cfg.AuditBackend)
	}

	entries, err := reader.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("read audit log: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	for i := range entries {
		if err := enc.Encode(&entries[i]); err != nil {
			return err
		}
	}
	return nil
}
