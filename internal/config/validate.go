package config

import (
	"regexp"
	"strings"
	"time"

	"github.com/ayoisaiah/workstate/internal/rounding"
)

var (
	minCheckInterval     = 5 * time.Second
	minReconcileInterval = time.Second

	currencyRegex = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

// Validate performs validation checks on the Config struct and its fields.
func (c *Config) Validate() error {
	if err := validateRounding(c.Rounding.Method, c.Rounding.Interval); err != nil {
		return err
	}

	if c.Idle.ThresholdMinutes < 0 {
		return errNegativeThreshold.Fmt("default", c.Idle.ThresholdMinutes)
	}

	if c.Idle.CheckInterval < minCheckInterval {
		return errInvalidInterval.Fmt("idle.check_interval", minCheckInterval, c.Idle.CheckInterval)
	}

	if c.Store.ReconcileInterval < minReconcileInterval {
		return errInvalidInterval.Fmt(
			"store.reconcile_interval",
			minReconcileInterval,
			c.Store.ReconcileInterval,
		)
	}

	if c.Billing.DefaultRate < 0 {
		return errNegativeRate.Fmt("default", c.Billing.DefaultRate)
	}

	if !currencyRegex.MatchString(c.Billing.Currency) {
		return errInvalidCurrency.Fmt("default", c.Billing.Currency)
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}

	for id, u := range c.Users {
		if err := u.validate(id); err != nil {
			return err
		}
	}

	return nil
}

func (u UserConfig) validate(id string) error {
	if u.RoundingMethod != "" {
		if _, err := rounding.ParseMethod(u.RoundingMethod); err != nil {
			return err
		}
	}

	if u.RoundingInterval != nil {
		if _, err := rounding.ParseInterval(*u.RoundingInterval); err != nil {
			return err
		}
	}

	if u.IdleThresholdMinutes != nil && *u.IdleThresholdMinutes < 0 {
		return errNegativeThreshold.Fmt(id, *u.IdleThresholdMinutes)
	}

	if u.DefaultRate != nil && *u.DefaultRate < 0 {
		return errNegativeRate.Fmt(id, *u.DefaultRate)
	}

	if u.Currency != "" && !currencyRegex.MatchString(u.Currency) {
		return errInvalidCurrency.Fmt(id, u.Currency)
	}

	return nil
}

func validateRounding(method string, interval int) error {
	if _, err := rounding.ParseMethod(method); err != nil {
		return err
	}

	_, err := rounding.ParseInterval(interval)

	return err
}

func parseLevel(level string) (string, error) {
	l := strings.ToLower(strings.TrimSpace(level))

	switch l {
	case "debug", "info", "warn", "error":
		return l, nil
	case "":
		return "info", nil
	}

	return "", errUnknownLogLevel.Fmt(level)
}
