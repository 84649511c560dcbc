// Package server orchestrates all components: COMMS client, audit store,
// capability registry, request handler, task adapter and the HTTP surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/DataSup-Engineer/nasdaq-agent/internal/config"
	"github.com/DataSup-Engineer/nasdaq-agent/migrations"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/actions"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/analysis"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/audit"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/bootstrap"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/commsutil"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/db"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/dispatcher"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/events"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/metrics"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/registry"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/taskadapter"
)

const logPrefix = "server:server"

const shutdownTimeout = 10 * time.Second

// Server is the A2A agent orchestrator.
type Server struct {
	cfg       *config.Config
	reg       *registry.Registry
	handler   *dispatcher.Handler
	adapter   *taskadapter.Adapter
	publisher events.EventPublisher
	recorder  metrics.Recorder
	auditLog  audit.Reader

	nc     *comms.Conn
	pool   *pgxpool.Pool
	sqlite *audit.SQLiteSink
	subs   []*comms.Subscription
}

// Run loads configuration, starts the server, blocks until SIGINT or
// SIGTERM, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	SetupLogging(cfg.LogLevel)

	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("%s - Starting A2A agent %s", logPrefix, cfg.AgentID))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.Serve(ctx)
}

// SetupLogging installs the default slog text logger at the given level.
func SetupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

// New builds every component from cfg. Connections opened here are released
// by Close, including on a partial failure.
func New(ctx context.Context, cfg *config.Config) (_ *Server, err error) {
	s := &Server{cfg: cfg}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	// Step 1: Resolve capabilities (built-in defaults plus CAPABILITIES_FILE)
	s.reg, err = LoadRegistry(cfg)
	if err != nil {
		return nil, err
	}

	// Step 2: Metrics
	if cfg.MetricsEnabled {
		s.recorder = metrics.NewPrometheusRecorder(s.reg.AgentID())
	} else {
		s.recorder = metrics.NoopRecorder{}
	}

	// Step 3: Connect to COMMS when configured
	if cfg.COMMSURL != "" {
		nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
		}
		s.nc = nc
		s.publisher = events.NewCommsPublisher(nc, &events.CommsPublisherOpts{SubjectPrefix: cfg.SubjectPrefix})
	} else {
		s.publisher = &events.NoOpPublisher{}
	}

	// Step 4: Audit store
	sink, err := s.openAudit(ctx)
	if err != nil {
		return nil, err
	}

	// Step 5: Handler and task adapter share one set of domain actions
	acts := actions.New(s.newAnalyzer())
	s.handler = dispatcher.NewHandler(dispatcher.NewHandlerParams{
		Registry:        s.reg,
		Implementations: acts.Implementations(),
		AuditSink:       sink,
		Metrics:         s.recorder,
		AuditTimeout:    cfg.AuditTimeout,
	})
	s.adapter = taskadapter.NewAdapter(taskadapter.NewAdapterParams{
		Actions:  acts,
		Identity: cfg.RegistryConfig(),
		Metrics:  s.recorder,
	})
	return s, nil
}

// LoadRegistry builds the capability registry from the built-in set and any
// capability file.
func LoadRegistry(cfg *config.Config) (*registry.Registry, error) {
	var paths []string
	if cfg.CapabilitiesFile != "" {
		paths = append(paths, cfg.CapabilitiesFile)
	}
	file, err := bootstrap.LoadCapabilityFile(paths...)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to load capabilities: %w", logPrefix, err)
	}
	resolved := bootstrap.CreateResolvedCapabilities(file)
	slog.Debug(fmt.Sprintf("%s - Resolved %d capabilities (%s %s)", logPrefix, len(resolved.List()), resolved.Name(), resolved.Version()))
	return registry.NewRegistry(registry.NewRegistryParams{
		Config:       cfg.RegistryConfig(),
		Capabilities: resolved.List(),
	}), nil
}

// newAnalyzer selects the analysis backend: HTTP when ANALYZER_URL is set,
// else COMMS when connected, else one that always reports unavailability.
func (s *Server) newAnalyzer() analysis.Analyzer {
	switch {
	case s.cfg.AnalyzerURL != "":
		slog.Info(fmt.Sprintf("%s - Analyzer: HTTP %s", logPrefix, s.cfg.AnalyzerURL))
		return analysis.NewHTTPClient(s.cfg.AnalyzerURL, s.cfg.AnalyzerTimeout)
	case s.nc != nil:
		slog.Info(fmt.Sprintf("%s - Analyzer: COMMS %s", logPrefix, s.cfg.AnalyzerSubject))
		return analysis.NewNATSClient(s.nc, s.cfg.AnalyzerSubject, s.cfg.AnalyzerTimeout)
	default:
		slog.Warn(fmt.Sprintf("%s - No analyzer configured; capability calls will fail", logPrefix))
		return analysis.Unavailable{}
	}
}

// openAudit opens the configured audit backend.
func (s *Server) openAudit(ctx context.Context) (audit.Sink, error) {
	switch s.cfg.AuditBackend {
	case config.AuditBackendPostgres:
		pool, err := db.NewPool(ctx, s.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
		}
		s.pool = pool
		if s.cfg.RunMigrations {
			files, err := LoadMigrations(s.cfg.MigrationPath)
			if err != nil {
				return nil, fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
			}
			if err := db.RunMigrations(ctx, pool, files); err != nil {
				return nil, fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
			}
		}
		sink := audit.NewPostgresSink(pool)
		s.auditLog = sink
		return sink, nil
	case config.AuditBackendSQLite:
		sink, err := audit.NewSQLiteSink(s.cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to open audit store: %w", logPrefix, err)
		}
		s.sqlite = sink
		s.auditLog = sink
		return sink, nil
	default:
		return &audit.NoOpSink{}, nil
	}
}

// LoadMigrations reads migrations from dir, falling back to the copies
// embedded in the binary when dir does not exist.
func LoadMigrations(dir string) ([]string, error) {
	if dir != "" {
		if _, err := os.Stat(dir); err == nil {
			return db.LoadMigrationFiles(dir)
		}
	}
	slog.Info(fmt.Sprintf("%s - Using embedded migrations", logPrefix))
	return db.LoadMigrationFS(migrations.Files, ".")
}

// Serve initializes the handler, subscribes on COMMS, serves HTTP and blocks
// until ctx is done or a component fails.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.handler.Initialize(ctx); err != nil {
		return fmt.Errorf("%s - failed to initialize handler: %w", logPrefix, err)
	}
	defer s.handler.Cleanup()

	if s.nc != nil {
		if err := s.subscribe(ctx); err != nil {
			return err
		}
	}

	addr := s.cfg.ListenAddr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s - HTTP server error: %w", logPrefix, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info(fmt.Sprintf("%s - Shutting down", logPrefix))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.unsubscribe()
		return httpServer.Shutdown(shutdownCtx)
	})

	slog.Info(fmt.Sprintf("%s - A2A agent %s is ready", logPrefix, s.reg.AgentID()))
	return g.Wait()
}

// Close releases connections. It is safe to call more than once.
func (s *Server) Close() {
	s.unsubscribe()
	if s.nc != nil {
		if err := s.nc.Drain(); err != nil {
			s.nc.Close()
		}
		s.nc = nil
	}
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	if s.sqlite != nil {
		if err := s.sqlite.Close(); err != nil {
			slog.Warn(fmt.Sprintf("%s - failed to close audit store: %v", logPrefix, err))
		}
		s.sqlite = nil
	}
	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
}
