package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"refinery" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"refinery" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"refinery" description:"Database name"`

	// Application configuration
	Port             string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey     string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	WorkerCount      int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for job execution"`
	SweepInterval    int    `long:"sweep-interval" env:"SWEEP_INTERVAL" default:"300" description:"Twitter refresh sweep interval in seconds"`
	SecretKeyBase    string `long:"secret-key-base" env:"SECRET_KEY_BASE" required:"true" description:"Application secret used to derive per-feed push secrets"`
	PushHubURL       string `long:"push-hub-url" env:"PUSH_HUB_URL" default:"https://pubsubhubbub.superfeedr.com" description:"WebSub hub endpoint; its scheme and host are also used for callback URLs"`
	BlockedHostsFile string `long:"blocked-hosts-file" env:"BLOCKED_HOSTS_FILE" description:"Optional YAML file listing additional hosts excluded from link harvesting"`

	// Behavior toggles
	StrictResolutionErrors bool `long:"strict-resolution-errors" env:"STRICT_RESOLUTION_ERRORS" description:"Propagate feed discovery errors instead of treating them as zero candidates"`
	Debug                  bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Refinery/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:                 raw.DBHost,
		DBPort:                 raw.DBPort,
		DBUser:                 raw.DBUser,
		DBPassword:             raw.DBPassword,
		DBName:                 raw.DBName,
		Port:                   raw.Port,
		APIAccessKey:           raw.APIAccessKey,
		WorkerCount:            raw.WorkerCount,
		SweepInterval:          raw.SweepInterval,
		SecretKeyBase:          raw.SecretKeyBase,
		PushHubURL:             raw.PushHubURL,
		BlockedHostsFile:       raw.BlockedHostsFile,
		StrictResolutionErrors: raw.StrictResolutionErrors,
		Debug:                  raw.Debug,
		UserAgent:              raw.UserAgent,
		Timezone:               raw.Timezone,
		Version:                GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Used by tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
