// Package config provides agent configuration loaded from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/registry"
)

const logPrefix = "config:LoadConfig"

// Audit backends selectable with AUDIT_BACKEND.
const (
	AuditBackendNone     = "none"
	AuditBackendPostgres = "postgres"
	AuditBackendSQLite   = "sqlite"
)

// Config holds A2A agent configuration.
type Config struct {
	// Agent identity advertised in manifests and responses.
	AgentID          string `envconfig:"AGENT_ID" default:"nasdaq-stock-agent"`
	AgentName        string `envconfig:"AGENT_NAME" default:"NASDAQ Stock Agent"`
	AgentVersion     string `envconfig:"AGENT_VERSION" default:"1.0.0"`
	AgentDescription string `envconfig:"AGENT_DESCRIPTION" default:"AI-powered NASDAQ stock analysis and investment recommendations"`
	EndpointPrefix   string `envconfig:"ENDPOINT_PREFIX" default:"/a2a"`

	// CapabilitiesFile extends or replaces the built-in capability set (JSON or YAML).
	CapabilitiesFile string `envconfig:"CAPABILITIES_FILE"`

	// COMMS: the NATS binding is enabled when COMMSURL is set.
	COMMSURL      string `envconfig:"COMMS_URL"`
	COMMSName     string `envconfig:"SERVICE_NAME" default:"nasdaq-agent"`
	SubjectPrefix string `envconfig:"SUBJECT_PREFIX" default:"a2a"`

	// RequestTimeout caps every inbound request; a smaller timeout_seconds wins.
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`

	// Audit
	AuditBackend string        `envconfig:"AUDIT_BACKEND" default:"none"`
	AuditTimeout time.Duration `envconfig:"AUDIT_TIMEOUT" default:"2s"`
	SQLitePath   string        `envconfig:"SQLITE_PATH" default:"a2a_audit.db"`

	// Database (AUDIT_BACKEND=postgres and the migrate/clear commands)
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"migrations"`

	// Analysis backend: HTTP when ANALYZER_URL is set, else COMMS on ANALYZER_SUBJECT.
	AnalyzerURL     string        `envconfig:"ANALYZER_URL"`
	AnalyzerSubject string        `envconfig:"ANALYZER_SUBJECT" default:"nasdaq.analyzer.analyze"`
	AnalyzerTimeout time.Duration `envconfig:"ANALYZER_TIMEOUT" default:"60s"`

	// HTTP (HTTP_ADDR preferred, e.g. "0.0.0.0:8000")
	HTTPAddr           string        `envconfig:"HTTP_ADDR"`
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8000"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`
	MetricsEnabled     bool          `envconfig:"METRICS_ENABLED" default:"true"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	c.AuditBackend = strings.ToLower(strings.TrimSpace(c.AuditBackend))
	return &c, nil
}

// RegistryConfig returns the agent identity for the capability registry.
func (c *Config) RegistryConfig() registry.Config {
	return registry.Config{
		AgentID:          c.AgentID,
		AgentName:        c.AgentName,
		AgentVersion:     c.AgentVersion,
		AgentDescription: c.AgentDescription,
		EndpointPrefix:   c.EndpointPrefix,
	}
}

// ListenAddr returns HTTPAddr, or ":<HTTPPort>" when it is empty.
func (c *Config) ListenAddr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// ValidateForServe checks required config when running the agent server.
func (c *Config) ValidateForServe() error {
	if c.AgentID == "" {
		return fmt.Errorf("%s - AGENT_ID is required", logPrefix)
	}
	if !strings.HasPrefix(c.EndpointPrefix, "/") {
		return fmt.Errorf("%s - ENDPOINT_PREFIX must start with /", logPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	if c.AuditTimeout <= 0 {
		return fmt.Errorf("%s - AUDIT_TIMEOUT must be positive", logPrefix)
	}
	switch c.AuditBackend {
	case AuditBackendNone:
	case AuditBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%s - DATABASE_URL is required when AUDIT_BACKEND=postgres", logPrefix)
		}
	case AuditBackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%s - SQLITE_PATH is required when AUDIT_BACKEND=sqlite", logPrefix)
		}
	default:
		return fmt.Errorf("%s - AUDIT_BACKEND must be one of none, postgres, sqlite (got %q)", logPrefix, c.AuditBackend)
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate, clear).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}
