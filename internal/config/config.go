// Package config loads workstate settings from the config file and
// command-line flags
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/ayoisaiah/workstate/internal/osutil"
)

type (
	// Config holds all configuration settings.
	Config struct {
		Users    map[string]UserConfig `mapstructure:"users"`
		Server   ServerConfig          `mapstructure:"server"`
		Billing  BillingConfig         `mapstructure:"billing"`
		Rounding RoundingConfig        `mapstructure:"rounding"`
		Log      LogConfig             `mapstructure:"log"`
		CLI      CLIConfig             `mapstructure:"-"`
		Idle     IdleConfig            `mapstructure:"idle"`
		Store    StoreConfig           `mapstructure:"store"`
		Display  DisplayConfig         `mapstructure:"display"`
	}

	// ServerConfig holds the HTTP API settings.
	ServerConfig struct {
		Addr      string        `mapstructure:"addr"`
		JWTSecret string        `mapstructure:"jwt_secret"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
	}

	// IdleConfig holds idle detection settings.
	IdleConfig struct {
		Cmd              string        `mapstructure:"cmd"`
		CheckInterval    time.Duration `mapstructure:"check_interval"`
		ThresholdMinutes int           `mapstructure:"threshold_minutes"`
		DiscardContinues bool          `mapstructure:"discard_continues"`
		Notify           bool          `mapstructure:"notify"`
	}

	// RoundingConfig holds the default rounding policy.
	RoundingConfig struct {
		Method   string `mapstructure:"method"`
		Interval int    `mapstructure:"interval"`
	}

	// BillingConfig holds the default billable rate.
	BillingConfig struct {
		Currency    string  `mapstructure:"currency"`
		DefaultRate float64 `mapstructure:"default_rate"`
	}

	// StoreConfig holds storage settings.
	StoreConfig struct {
		ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
	}

	// LogConfig holds the log file settings.
	LogConfig struct {
		Level      string `mapstructure:"level"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days"`
	}

	// DisplayConfig holds terminal output settings.
	DisplayConfig struct {
		TwentyFourHour bool `mapstructure:"24hr_clock"`
	}

	// UserConfig overrides the defaults for one user. Unset fields fall back
	// to the top-level settings.
	UserConfig struct {
		IdleThresholdMinutes *int     `mapstructure:"idle_threshold_minutes"`
		RoundingInterval     *int     `mapstructure:"rounding_interval"`
		DefaultRate          *float64 `mapstructure:"default_rate"`
		RoundingMethod       string   `mapstructure:"rounding_method"`
		Currency             string   `mapstructure:"currency"`
	}

	// CLIConfig holds values that only come from the command line.
	CLIConfig struct {
		UserID string
	}

	// Option is a function that modifies Config.
	Option func(*Config) error
)

const Version = "v0.3.0"

var (
	configDir      = "workstate"
	configFileName = "config.yml"
	dbFileName     = "workstate.db"
	logFileName    = "workstate.log"
	dbFilePath     string
	configFilePath string
	logFilePath    string
)

var (
	Stdin  io.Reader = os.Stdin
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

func Dir() string {
	return configDir
}

func DBFilePath() string {
	return dbFilePath
}

func LogFilePath() string {
	return logFilePath
}

func ConfigFilePath() string {
	return configFilePath
}

// InitializePaths resolves the config, database and log file locations.
// Setting WORKSTATE_ENV keeps separate files per environment.
func InitializePaths() error {
	env := strings.TrimSpace(os.Getenv("WORKSTATE_ENV"))
	if env != "" {
		configFileName = fmt.Sprintf("config_%s.yml", env)
		dbFileName = fmt.Sprintf("workstate_%s.db", env)
		logFileName = fmt.Sprintf("workstate_%s.log", env)
	}

	var err error

	relPath := filepath.Join(configDir, configFileName)

	configFilePath, err = xdg.ConfigFile(relPath)
	if err != nil {
		return err
	}

	dataDir, err := xdg.DataFile(configDir)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(dataDir, osutil.DirPermission); err != nil {
		return err
	}

	dbFilePath = filepath.Join(dataDir, dbFileName)

	logFilePath = filepath.Join(dataDir, "log", logFileName)

	return nil
}

// New creates a new Config and applies options in order. The result is
// validated once every option has run.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, errConfigOption.Wrap(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errConfigValidation.Wrap(err)
	}

	return cfg, nil
}
