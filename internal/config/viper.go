package config

import (
	"errors"
	"os"

	"github.com/spf13/viper"
)

const (
	keyServerAddr        = "server.addr"
	keyServerJWTSecret   = "server.jwt_secret"
	keyServerTokenTTL    = "server.token_ttl"
	keyIdleInterval      = "idle.check_interval"
	keyIdleThreshold     = "idle.threshold_minutes"
	keyIdleDiscardCont   = "idle.discard_continues"
	keyIdleNotify        = "idle.notify"
	keyIdleCmd           = "idle.cmd"
	keyRoundingInterval  = "rounding.interval"
	keyRoundingMethod    = "rounding.method"
	keyBillingRate       = "billing.default_rate"
	keyBillingCurrency   = "billing.currency"
	keyReconcileInterval = "store.reconcile_interval"
	keyLogLevel          = "log.level"
	keyLogMaxSize        = "log.max_size_mb"
	keyLogMaxBackups     = "log.max_backups"
	keyLogMaxAge         = "log.max_age_days"
	keyTwentyFourHour    = "display.24hr_clock"
)

// WithViperConfig returns an Option that loads configuration from the YAML
// file at configPath. A missing file is created with the default settings,
// including any values already set on c by earlier options.
func WithViperConfig(configPath string) Option {
	return func(c *Config) error {
		v := viper.New()

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		setupViper(v, c)

		err := v.ReadInConfig()
		if err == nil {
			return v.Unmarshal(c)
		}

		if !errors.Is(err, os.ErrNotExist) {
			return errReadConfig.Wrap(err)
		}

		if err := v.WriteConfig(); err != nil {
			return errWriteConfig.Wrap(err)
		}

		return v.Unmarshal(c)
	}
}

func setupViper(v *viper.Viper, c *Config) {
	v.SetDefault(keyServerAddr, "127.0.0.1:7717")
	v.SetDefault(keyServerJWTSecret, "")
	v.SetDefault(keyServerTokenTTL, "720h")
	v.SetDefault(keyIdleInterval, "1m")
	v.SetDefault(keyIdleThreshold, 5)
	v.SetDefault(keyIdleDiscardCont, false)
	v.SetDefault(keyIdleNotify, true)
	v.SetDefault(keyIdleCmd, "")
	v.SetDefault(keyRoundingInterval, 0)
	v.SetDefault(keyRoundingMethod, "nearest")
	v.SetDefault(keyBillingRate, 0.0)
	v.SetDefault(keyBillingCurrency, "USD")
	v.SetDefault(keyReconcileInterval, "30s")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogMaxSize, 10)
	v.SetDefault(keyLogMaxBackups, 3)
	v.SetDefault(keyLogMaxAge, 28)
	v.SetDefault(keyTwentyFourHour, false)

	// answers from the first-run prompt
	if c.Rounding.Method != "" {
		v.Set(keyRoundingMethod, c.Rounding.Method)
		v.Set(keyRoundingInterval, c.Rounding.Interval)
	}

	// a negative answer means idle detection is off
	if c.Idle.ThresholdMinutes != 0 {
		v.Set(keyIdleThreshold, max(c.Idle.ThresholdMinutes, 0))
	}
}
