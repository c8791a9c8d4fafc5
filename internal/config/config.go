// Package config provides server configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/morezero/intents/pkg/platform"
)

const logPrefix = "config:LoadConfig"

// Config holds intents service configuration.
type Config struct {
	// COMMS: connect to standalone NATS at COMMSURL.
	COMMSURL  string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"intents"`

	// Subject overrides (empty = commsutil defaults)
	IntentsSubject     string `envconfig:"INTENTS_SUBJECT"`
	ChangeEventSubject string `envconfig:"HANDLER_CHANGE_EVENT_SUBJECT"`

	// Timeouts
	RequestTimeout time.Duration `envconfig:"INTENTS_REQUEST_TIMEOUT" default:"10s"`

	// Handler catalog, used when DATABASE_URL is empty and for seeding.
	CatalogFile  string `envconfig:"HANDLER_CATALOG_FILE"`
	WatchCatalog bool   `envconfig:"WATCH_CATALOG" default:"false"`

	// Database. Empty keeps the handler store in memory.
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"migrations"`

	// HTTP health and metrics endpoint
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Host platform. Empty version means the latest behavior.
	PlatformVersion   string `envconfig:"PLATFORM_VERSION"`
	DefaultSMSPackage string `envconfig:"DEFAULT_SMS_PACKAGE"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidateForServe checks required config when running the intents server.
func (c *Config) ValidateForServe() error {
	if c.COMMSURL == "" {
		return fmt.Errorf("%s - COMMS_URL is required for serve", logPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - INTENTS_REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	if _, err := c.Platform(); err != nil {
		return err
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate, clear, seed).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}

// Platform derives the host capabilities from PLATFORM_VERSION and DEFAULT_SMS_PACKAGE.
func (c *Config) Platform() (platform.Capabilities, error) {
	return platform.FromVersion(c.PlatformVersion, c.DefaultSMSPackage)
}
