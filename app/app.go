// Package app defines the workstate command-line interface
package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/workstate/internal/config"
)

const (
	envNoColor          = "NO_COLOR"
	envWorkstateNoColor = "WORKSTATE_NO_COLOR"
)

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Debug.Prefix.Text = ""
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
	pterm.Fatal.Prefix.Text = ""
}

// Get retrieves the workstate app instance.
func Get() *cli.App {
	return &cli.App{
		Name: "workstate",
		Usage: `
		Workstate tracks the time you spend on tasks. Start a timer, stop it
		when you are done and the time is recorded, rounded and billed.`,
		UsageText:            "[COMMAND] [OPTIONS]",
		Version:              config.Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:      "start",
				Usage:     "Start a timer on a task",
				ArgsUsage: "<task-id>",
				Flags:     []cli.Flag{descriptionFlag, replaceFlag, pomodoroFlag},
				Action:    withEnv(startAction),
			},
			{
				Name:   "stop",
				Usage:  "Stop the running timer and record the time",
				Flags:  []cli.Flag{overrideFlag, previewFlag, jsonFlag},
				Action: withEnv(stopAction),
			},
			{
				Name:   "discard",
				Usage:  "Throw the running timer away without recording it",
				Flags:  []cli.Flag{yesFlag},
				Action: withEnv(discardAction),
			},
			{
				Name:   "status",
				Usage:  "Print the running timer",
				Flags:  []cli.Flag{jsonFlag},
				Action: withEnv(statusAction),
			},
			{
				Name:      "describe",
				Usage:     "Change the description of the running timer",
				ArgsUsage: "<text>",
				Action:    withEnv(describeAction),
			},
			{
				Name:   "touch",
				Usage:  "Record activity on the running timer",
				Action: withEnv(touchAction),
			},
			{
				Name:   "idle",
				Usage:  "Show the pending idle event of the running timer",
				Flags:  []cli.Flag{jsonFlag},
				Action: withEnv(idleAction),
				Subcommands: []*cli.Command{
					{
						Name:      "resolve",
						Usage:     "Resolve the pending idle event: keep, discard-idle or stop-at-idle-start",
						ArgsUsage: "[action]",
						Action:    withEnv(resolveIdleAction),
					},
				},
			},
			{
				Name:   "sweep",
				Usage:  "Check every running timer for idleness once",
				Action: withEnv(sweepAction),
			},
			{
				Name:  "entry",
				Usage: "Manage recorded time entries",
				Subcommands: []*cli.Command{
					{
						Name:  "add",
						Usage: "Add a time entry by hand",
						Flags: []cli.Flag{
							taskFlag, startFlag, endFlag, durationFlag, descriptionFlag,
							rateFlag, currencyFlag, billableFlag, tagFlag,
						},
						Action: withEnv(addEntryAction),
					},
					{
						Name:  "list",
						Usage: "List time entries with their totals",
						Flags: []cli.Flag{
							periodFlag, sinceFlag, untilFlag, taskFlag, projectFlag, billableFlag, jsonFlag,
						},
						Action: withEnv(listEntriesAction),
					},
					{
						Name:      "edit",
						Usage:     "Edit a time entry",
						ArgsUsage: "<entry-id>",
						Flags: []cli.Flag{
							taskFlag, startFlag, endFlag, durationFlag, descriptionFlag,
							rateFlag, currencyFlag, billableFlag, tagFlag,
						},
						Action:    withEnv(editEntryAction),
					},
					{
						Name:      "delete",
						Usage:     "Delete a time entry",
						ArgsUsage: "<entry-id>",
						Flags:     []cli.Flag{yesFlag},
						Action:    withEnv(deleteEntryAction),
					},
				},
			},
			{
				Name:  "task",
				Usage: "Manage tasks",
				Subcommands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Add a task",
						ArgsUsage: "<name>",
						Flags:     []cli.Flag{projectFlag, rateFlag, currencyFlag},
						Action:    withEnv(addTaskAction),
					},
					{
						Name:   "list",
						Usage:  "List your tasks",
						Flags:  []cli.Flag{jsonFlag},
						Action: withEnv(listTasksAction),
					},
				},
			},
			{
				Name:  "project",
				Usage: "Manage projects",
				Subcommands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Add a project",
						ArgsUsage: "<name>",
						Flags:     []cli.Flag{rateFlag, currencyFlag},
						Action:    withEnv(addProjectAction),
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and the idle detector",
				Flags:  []cli.Flag{addrFlag},
				Action: withEnv(serveAction),
			},
			{
				Name:   "watch",
				Usage:  "Show the running timer live",
				Action: withEnv(watchAction),
			},
			{
				Name:   "token",
				Usage:  "Print an API token for the current user",
				Flags:  []cli.Flag{ttlFlag},
				Action: tokenAction,
			},
			{
				Name:   "edit-config",
				Usage:  "Edit the configuration file",
				Action: editConfigAction,
			},
		},
		Flags: []cli.Flag{
			userFlag,
			roundFlag,
			roundIntervalFlag,
			idleThresholdFlag,
			noColorFlag,
		},
		Before: beforeAction,
		After:  afterAction,
	}
}

func beforeAction(ctx *cli.Context) error {
	// Override the default help template
	cli.AppHelpTemplate = helpText()

	oldVersionPrinter := cli.VersionPrinter
	cli.VersionPrinter = func(c *cli.Context) {
		oldVersionPrinter(c)
		fmt.Fprintf(
			config.Stdout,
			"https://github.com/ayoisaiah/workstate/releases/%s\n",
			c.App.Version,
		)
	}

	pterm.Error.MessageStyle = pterm.NewStyle(pterm.FgRed)
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}

	if _, exists := os.LookupEnv(envNoColor); exists {
		disableStyling()
	}

	if _, exists := os.LookupEnv(envWorkstateNoColor); exists {
		disableStyling()
	}

	if ctx.Bool("no-color") {
		disableStyling()
	}

	return nil
}

func afterAction(ctx *cli.Context) error {
	slog.DebugContext(ctx.Context, "exiting workstate")

	return nil
}
