package config

import (
	"os"
	"os/user"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/workstate/internal/timeutil"
)

// CLIOptions represents command-line configuration options.
type CLIOptions struct {
	UserID           string
	RoundingMethod   string
	IdleThreshold    string
	RoundingInterval int
}

// WithCLIConfig returns an Option that applies global command-line flags.
// Flags win over the config file.
func WithCLIConfig(ctx *cli.Context) Option {
	return func(c *Config) error {
		opts := CLIOptions{
			UserID:           ctx.String("user"),
			RoundingMethod:   ctx.String("round"),
			RoundingInterval: ctx.Int("round-interval"),
			IdleThreshold:    ctx.String("idle-threshold"),
		}

		return applyCLIOptions(c, opts)
	}
}

func applyCLIOptions(c *Config, opts CLIOptions) error {
	c.CLI.UserID = strings.TrimSpace(opts.UserID)
	if c.CLI.UserID == "" {
		c.CLI.UserID = defaultUserID()
	}

	if c.CLI.UserID == "" {
		return errMissingUser
	}

	if opts.RoundingMethod != "" {
		c.Rounding.Method = opts.RoundingMethod
	}

	if opts.RoundingInterval > 0 {
		c.Rounding.Interval = opts.RoundingInterval
	}

	if opts.IdleThreshold != "" {
		d, err := timeutil.ParseDuration(opts.IdleThreshold)
		if err != nil {
			return errInvalidCLIDuration.Fmt("idle-threshold", opts.IdleThreshold)
		}

		c.Idle.ThresholdMinutes = int(d.Minutes())
	}

	return nil
}

func defaultUserID() string {
	if id := strings.TrimSpace(os.Getenv("WORKSTATE_USER")); id != "" {
		return id
	}

	u, err := user.Current()
	if err != nil {
		return ""
	}

	return u.Username
}
