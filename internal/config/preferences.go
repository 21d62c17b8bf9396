package config

import (
	"strings"
	"time"

	"github.com/ayoisaiah/workstate/internal/rounding"
	"github.com/ayoisaiah/workstate/internal/tasks"
)

// Preferences are the per-user settings the timer engine works with.
type Preferences struct {
	DefaultRate tasks.Rate
	Rounding    rounding.Policy
	// IdleThreshold is zero when idle detection is disabled.
	IdleThreshold time.Duration
}

// Preferences returns the settings of userID with any override from the
// users section applied. The config is assumed to be valid.
func (c *Config) Preferences(userID string) Preferences {
	method, _ := rounding.ParseMethod(c.Rounding.Method)

	p := Preferences{
		IdleThreshold: time.Duration(c.Idle.ThresholdMinutes) * time.Minute,
		Rounding: rounding.Policy{
			Method:   method,
			Interval: rounding.Interval(c.Rounding.Interval),
		},
		DefaultRate: tasks.Rate{
			Amount:   c.Billing.DefaultRate,
			Currency: strings.ToUpper(c.Billing.Currency),
		},
	}

	// keys of the users map are lowercased when the file is read
	u, ok := c.Users[strings.ToLower(userID)]
	if !ok {
		return p
	}

	if u.IdleThresholdMinutes != nil {
		p.IdleThreshold = time.Duration(*u.IdleThresholdMinutes) * time.Minute
	}

	if u.RoundingMethod != "" {
		p.Rounding.Method, _ = rounding.ParseMethod(u.RoundingMethod)
	}

	if u.RoundingInterval != nil {
		p.Rounding.Interval = rounding.Interval(*u.RoundingInterval)
	}

	if u.DefaultRate != nil {
		p.DefaultRate.Amount = *u.DefaultRate
	}

	if u.Currency != "" {
		p.DefaultRate.Currency = strings.ToUpper(u.Currency)
	}

	return p
}

// Provider looks up the preferences of a user.
type Provider interface {
	Preferences(userID string) Preferences
}
