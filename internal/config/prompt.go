package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
)

const asciiLogo = `
██╗    ██╗ ██████╗ ██████╗ ██╗  ██╗███████╗████████╗ █████╗ ████████╗███████╗
██║    ██║██╔═══██╗██╔══██╗██║ ██╔╝██╔════╝╚══██╔══╝██╔══██╗╚══██╔══╝██╔════╝
██║ █╗ ██║██║   ██║██████╔╝█████╔╝ ███████╗   ██║   ███████║   ██║   █████╗
██║███╗██║██║   ██║██╔══██╗██╔═██╗ ╚════██║   ██║   ██╔══██║   ██║   ██╔══╝
╚███╔███╔╝╚██████╔╝██║  ██║██║  ██╗███████║   ██║   ██║  ██║   ██║   ███████╗
 ╚══╝╚══╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝   ╚═╝   ╚═╝  ╚═╝   ╚═╝   ╚══════╝`

// PromptOptions holds the user's responses to the first-run prompts.
type PromptOptions struct {
	RoundingMethod   string
	RoundingInterval int
	IdleThreshold    int
}

// WithPromptConfig returns an Option that asks for the main settings when no
// config file exists yet.
func WithPromptConfig(configPath string) Option {
	return func(c *Config) error {
		_, err := os.Stat(configPath)
		if err == nil || !errors.Is(err, os.ErrNotExist) {
			return err
		}

		opts, err := promptUser()
		if err != nil {
			return fmt.Errorf("user prompt failed: %w", err)
		}

		applyPromptOptions(c, opts)

		return nil
	}
}

func promptUser() (PromptOptions, error) {
	var opts PromptOptions

	pterm.Println(asciiLogo)

	_ = putils.BulletListFromString(`Follow the prompts below to configure Workstate for the first time.
Select your preferred value, or press ENTER to accept the defaults.
Edit the config file with 'workstate edit-config' to change any settings.`, " ").
		Render()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Round recorded time to").
				Options(
					huh.NewOption("Don't round", 0).Selected(true),
					huh.NewOption("5 minutes", 5),
					huh.NewOption("10 minutes", 10),
					huh.NewOption("15 minutes", 15),
					huh.NewOption("30 minutes", 30),
				).
				Value(&opts.RoundingInterval),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Rounding direction").
				Options(
					huh.NewOption("Nearest", "nearest").Selected(true),
					huh.NewOption("Up", "up"),
					huh.NewOption("Down", "down"),
				).
				Value(&opts.RoundingMethod),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Ask about idle time after").
				Options(
					huh.NewOption("5 minutes", 5).Selected(true),
					huh.NewOption("10 minutes", 10),
					huh.NewOption("15 minutes", 15),
					huh.NewOption("30 minutes", 30),
					huh.NewOption("Never", -1),
				).
				Value(&opts.IdleThreshold),
		),
	)

	if err := form.Run(); err != nil {
		return opts, fmt.Errorf("form interaction failed: %w", err)
	}

	return opts, nil
}

func applyPromptOptions(c *Config, opts PromptOptions) {
	c.Rounding.Method = opts.RoundingMethod
	c.Rounding.Interval = opts.RoundingInterval
	c.Idle.ThresholdMinutes = opts.IdleThreshold
}
