package app

import "github.com/urfave/cli/v2"

var (
	userFlag = &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "Act as this user (default: $WORKSTATE_USER or the login name)",
	}

	roundFlag = &cli.StringFlag{
		Name:  "round",
		Usage: "Rounding method for recorded time: up, down or nearest",
	}

	roundIntervalFlag = &cli.IntFlag{
		Name:  "round-interval",
		Usage: "Rounding interval in minutes: 0, 5, 10, 15 or 30",
	}

	idleThresholdFlag = &cli.StringFlag{
		Name:  "idle-threshold",
		Usage: "Minutes without activity before a timer is flagged as idle (0 disables)",
	}

	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable coloured output",
	}

	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the result as JSON",
	}

	yesFlag = &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Do not ask for confirmation",
	}

	replaceFlag = &cli.StringFlag{
		Name:  "replace",
		Usage: "What to do with a running timer: stop or discard",
	}

	descriptionFlag = &cli.StringFlag{
		Name:    "description",
		Aliases: []string{"d"},
		Usage:   "Describe what you are working on",
	}

	pomodoroFlag = &cli.BoolFlag{
		Name:  "pomodoro",
		Usage: "Mark the timer as a pomodoro session",
	}

	overrideFlag = &cli.StringFlag{
		Name:  "duration",
		Usage: "Record this duration instead of the rounded elapsed time (e.g. '1h30m' or '90')",
	}

	previewFlag = &cli.BoolFlag{
		Name:  "preview",
		Usage: "Show what would be recorded without stopping the timer",
	}

	startFlag = &cli.StringFlag{
		Name:  "start",
		Usage: "When the work started (e.g. '09:30' or '2 hours ago')",
	}

	endFlag = &cli.StringFlag{
		Name:  "end",
		Usage: "When the work ended",
	}

	durationFlag = &cli.StringFlag{
		Name:  "duration",
		Usage: "How long the work took (e.g. '1h30m' or '90')",
	}

	taskFlag = &cli.StringFlag{
		Name:    "task",
		Aliases: []string{"t"},
		Usage:   "Task id",
	}

	projectFlag = &cli.StringFlag{
		Name:    "project",
		Aliases: []string{"p"},
		Usage:   "Project id",
	}

	rateFlag = &cli.Float64Flag{
		Name:  "rate",
		Usage: "Hourly billable rate",
	}

	currencyFlag = &cli.StringFlag{
		Name:  "currency",
		Usage: "Three-letter currency code of the rate",
	}

	billableFlag = &cli.BoolFlag{
		Name:  "billable",
		Usage: "Whether the entry is billable",
	}

	tagFlag = &cli.StringFlag{
		Name:  "tag",
		Usage: "Comma-delimited tags",
	}

	periodFlag = &cli.StringFlag{
		Name:  "period",
		Usage: "Limit to a period: today, yesterday, 7days, 14days, 30days, 90days, 365days or all-time",
	}

	sinceFlag = &cli.StringFlag{
		Name:  "since",
		Usage: "Only entries that started at or after this time",
	}

	untilFlag = &cli.StringFlag{
		Name:  "until",
		Usage: "Only entries that started before this time",
	}

	addrFlag = &cli.StringFlag{
		Name:  "addr",
		Usage: "Address the API listens on (default: server.addr)",
	}

	ttlFlag = &cli.StringFlag{
		Name:  "ttl",
		Usage: "How long the token stays valid (default: server.token_ttl)",
	}
)
