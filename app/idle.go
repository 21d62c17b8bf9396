package app

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/workstate/internal/config"
	"github.com/ayoisaiah/workstate/internal/idle"
	"github.com/ayoisaiah/workstate/internal/models"
	"github.com/ayoisaiah/workstate/internal/timeutil"
	"github.com/ayoisaiah/workstate/internal/ui"
)

func idleAction(ctx *cli.Context, e *env) error {
	ev, err := e.ctrl.PendingIdle(ctx.Context, e.user())
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		return printJSON(ev)
	}

	if ev == nil {
		info().Println("No idle time to resolve")
		return nil
	}

	fmt.Fprintf(config.Stdout, "Idle since %s (%s ago)\n",
		ui.Timestamp(&ev.IdleStart),
		timeutil.FormatDuration(time.Since(ev.IdleStart)),
	)

	return nil
}

func resolveIdleAction(ctx *cli.Context, e *env) error {
	action := models.IdleResolution(strings.TrimSpace(ctx.Args().First()))

	if action == "" {
		ev, err := e.ctrl.PendingIdle(ctx.Context, e.user())
		if err != nil {
			return err
		}

		if ev == nil {
			info().Println("No idle time to resolve")
			return nil
		}

		if !interactive() {
			return errMissingArg.Fmt("action (keep, discard-idle or stop-at-idle-start)")
		}

		if action, err = chooseIdleAction(); err != nil {
			return err
		}
	}

	res, err := e.ctrl.ResolveIdle(ctx.Context, e.user(), action)
	if err != nil {
		return err
	}

	switch {
	case res.Stale:
		info().Println("Nothing to resolve: the idle event no longer applies")
	case res.Entry != nil:
		success().Printfln("Timer stopped. Recorded %s", timeutil.FormatDuration(res.Entry.Duration))
	default:
		success().Printfln("Timer kept running (%s)", action)
	}

	return nil
}

// sweepAction runs a single idle check and accepts whatever it finds.
func sweepAction(ctx *cli.Context, e *env) error {
	d := idle.NewDetector(e.timers, e.cfg, e.ctrl, idle.WithLogger(e.log))

	found := d.Sweep(ctx.Context, time.Now())
	accepted := e.ctrl.Drain(ctx.Context)

	e.log.InfoContext(ctx.Context, "idle sweep finished",
		slog.Int("found", len(found)),
		slog.Int("accepted", accepted),
	)

	info().Printfln("%d idle timer(s) flagged", accepted)

	return nil
}
