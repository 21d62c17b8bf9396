package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/workstate/internal/apperr"
	"github.com/ayoisaiah/workstate/internal/config"
	"github.com/ayoisaiah/workstate/internal/timeutil"
	"github.com/ayoisaiah/workstate/internal/tracker"
	"github.com/ayoisaiah/workstate/internal/ui"
)

var (
	errMissingArg = &apperr.Error{
		Message: "missing argument: %s",
	}

	errInvalidReplace = &apperr.Error{
		Message: "invalid --replace value %q (expected stop or discard)",
	}
)

func parseReplace(s string) (tracker.Replace, error) {
	switch r := tracker.Replace(strings.ToLower(strings.TrimSpace(s))); r {
	case tracker.ReplaceNone, tracker.ReplaceStop, tracker.ReplaceDiscard:
		return r, nil
	default:
		return r, errInvalidReplace.Fmt(s)
	}
}

// startAction starts a timer. A running timer is only replaced after the
// user says how.
func startAction(ctx *cli.Context, e *env) error {
	taskID := strings.TrimSpace(ctx.Args().First())
	if taskID == "" {
		return errMissingArg.Fmt("task id")
	}

	replace, err := parseReplace(ctx.String("replace"))
	if err != nil {
		return err
	}

	req := tracker.StartRequest{
		TaskID:      taskID,
		Description: ctx.String("description"),
		Replace:     replace,
		Pomodoro:    ctx.Bool("pomodoro"),
	}

	res, err := e.ctrl.Start(ctx.Context, e.user(), req)

	var blocked *tracker.ConfirmationRequiredError
	if errors.As(err, &blocked) {
		req.Replace, err = chooseReplace(blocked)
		if err != nil {
			return err
		}

		if req.Replace == tracker.ReplaceNone {
			info().Println("The running timer was left alone")
			return nil
		}

		res, err = e.ctrl.Start(ctx.Context, e.user(), req)
	}

	if err != nil {
		return err
	}

	if res.Stopped != nil {
		printStop(config.Stdout, res.Stopped.Raw, res.Stopped.Rounded, res.Stopped.Entry)
	}

	if res.Discarded != nil {
		warning().Printfln("Discarded the timer on task %s", res.Discarded.TaskID)
	}

	success().Printfln("Timer started on task %s", res.Timer.TaskID)

	return nil
}

func stopAction(ctx *cli.Context, e *env) error {
	if ctx.Bool("preview") {
		p, err := e.ctrl.Preview(ctx.Context, e.user())
		if err != nil {
			return err
		}

		if ctx.Bool("json") {
			return printJSON(p)
		}

		fmt.Fprintf(config.Stdout, "Tracked %s, would record %s (rounding: %s)\n",
			ui.Duration(p.Raw), ui.Duration(p.Rounded), p.Policy,
		)

		return nil
	}

	var req tracker.StopRequest

	if v := ctx.String("duration"); v != "" {
		d, err := timeutil.ParseDuration(v)
		if err != nil {
			return tracker.ErrInvalidDuration.Wrap(err)
		}

		req.Override = &d
	}

	res, err := e.ctrl.Stop(ctx.Context, e.user(), req)
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		return printJSON(res)
	}

	printStop(config.Stdout, res.Raw, res.Rounded, res.Entry)

	return nil
}

func discardAction(ctx *cli.Context, e *env) error {
	confirmed := ctx.Bool("yes")

	res, err := e.ctrl.Discard(ctx.Context, e.user(), confirmed)
	if err != nil {
		return err
	}

	if res.ConfirmationRequired {
		ok, err := confirm(
			fmt.Sprintf("Discard %s tracked on task %s?",
				timeutil.FormatDuration(res.Elapsed), res.Timer.TaskID),
			"--yes",
		)
		if err != nil || !ok {
			return err
		}

		if _, err = e.ctrl.Discard(ctx.Context, e.user(), true); err != nil {
			return err
		}
	}

	warning().Printfln("Discarded %s on task %s",
		timeutil.FormatDuration(res.Elapsed), res.Timer.TaskID,
	)

	return nil
}

func statusAction(ctx *cli.Context, e *env) error {
	t, err := e.ctrl.Active(ctx.Context, e.user())
	if errors.Is(err, tracker.ErrNoActiveTimer) {
		if ctx.Bool("json") {
			return printJSON(nil)
		}

		info().Println(noTimerMsg)

		return nil
	}

	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		return printJSON(t)
	}

	printTimer(config.Stdout, t, time.Now())

	ev, err := e.ctrl.PendingIdle(ctx.Context, e.user())
	if err != nil {
		return err
	}

	if ev != nil {
		warning().Printfln("Idle since %s. Run 'workstate idle resolve' to decide what to keep",
			ui.Timestamp(&ev.IdleStart),
		)
	}

	return nil
}

func describeAction(ctx *cli.Context, e *env) error {
	text := strings.Join(ctx.Args().Slice(), " ")

	t, err := e.ctrl.UpdateDescription(ctx.Context, e.user(), text)
	if err != nil {
		return err
	}

	success().Printfln("Description set to %q", t.Description)

	return nil
}

func touchAction(ctx *cli.Context, e *env) error {
	return e.ctrl.Touch(ctx.Context, e.user())
}
