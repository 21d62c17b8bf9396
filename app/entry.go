package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/workstate/internal/apperr"
	"github.com/ayoisaiah/workstate/internal/config"
	"github.com/ayoisaiah/workstate/internal/entries"
	"github.com/ayoisaiah/workstate/internal/models"
	"github.com/ayoisaiah/workstate/internal/timeutil"
	"github.com/ayoisaiah/workstate/internal/ui"
)

var errAmbiguousID = &apperr.Error{
	Message: "%q matches more than one entry, use a longer prefix",
}

// spanFlags reads --start, --end and --duration. ok is false when none of
// them was given.
func spanFlags(ctx *cli.Context) (span entries.Span, ok bool, err error) {
	var (
		start, end *time.Time
		dur        *time.Duration
	)

	now := time.Now()

	if v := ctx.String("start"); v != "" {
		t, err := timeutil.FromStrAt(v, now)
		if err != nil {
			return nil, true, err
		}

		start = &t
	}

	if v := ctx.String("end"); v != "" {
		t, err := timeutil.FromStrAt(v, now)
		if err != nil {
			return nil, true, err
		}

		end = &t
	}

	if v := ctx.String("duration"); v != "" {
		d, err := timeutil.ParseDuration(v)
		if err != nil {
			return nil, true, entries.ErrInvalidTimeEntry.Wrap(err)
		}

		dur = &d
	}

	if start == nil && end == nil && dur == nil {
		return nil, false, nil
	}

	span, err = entries.ParseSpan(start, end, dur)

	return span, true, err
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var tags []string

	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

func addEntryAction(ctx *cli.Context, e *env) error {
	span, ok, err := spanFlags(ctx)
	if err != nil {
		return err
	}

	if !ok {
		return errMissingArg.Fmt("--start with --end or --duration, or --duration alone")
	}

	in := entries.NewEntry{
		Span:         span,
		UserID:       e.user(),
		TaskID:       ctx.String("task"),
		Description:  ctx.String("description"),
		Currency:     ctx.String("currency"),
		Tags:         splitTags(ctx.String("tag")),
		BillableRate: ctx.Float64("rate"),
	}

	if ctx.IsSet("billable") {
		b := ctx.Bool("billable")
		in.Billable = &b
	}

	entry, err := e.entries.Create(ctx.Context, in)
	if err != nil {
		return err
	}

	success().Printfln("Added %s on task %s (%s)",
		timeutil.FormatDuration(entry.Duration), entry.TaskID, entry.ID,
	)

	return nil
}

func listEntriesAction(ctx *cli.Context, e *env) error {
	f := entries.Filter{
		TaskID:    ctx.String("task"),
		ProjectID: ctx.String("project"),
	}

	now := time.Now()

	var err error

	if v := ctx.String("period"); v != "" {
		f.From, f.To, err = timeutil.PeriodBounds(timeutil.Period(v), now)
		if err != nil {
			return err
		}
	}

	if v := ctx.String("since"); v != "" {
		if f.From, err = timeutil.FromStrAt(v, now); err != nil {
			return err
		}
	}

	if v := ctx.String("until"); v != "" {
		if f.To, err = timeutil.FromStrAt(v, now); err != nil {
			return err
		}
	}

	if ctx.IsSet("billable") {
		b := ctx.Bool("billable")
		f.Billable = &b
	}

	list, err := e.entries.List(ctx.Context, e.user(), f)
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		if list == nil {
			list = []models.TimeEntry{}
		}

		return printJSON(list)
	}

	if len(list) == 0 {
		info().Println(noEntriesMsg)
		return nil
	}

	printEntriesTable(config.Stdout, list)

	return nil
}

// resolveEntryID expands a unique id prefix, as printed by entry list.
func resolveEntryID(ctx *cli.Context, e *env, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", errMissingArg.Fmt("entry id")
	}

	list, err := e.entries.List(ctx.Context, e.user(), entries.Filter{})
	if err != nil {
		return "", err
	}

	var match string

	for i := range list {
		id := list[i].ID

		if id == prefix {
			return id, nil
		}

		if strings.HasPrefix(id, prefix) {
			if match != "" {
				return "", errAmbiguousID.Fmt(prefix)
			}

			match = id
		}
	}

	if match == "" {
		return "", entries.ErrEntryNotFound.Fmt(prefix)
	}

	return match, nil
}

func editEntryAction(ctx *cli.Context, e *env) error {
	id, err := resolveEntryID(ctx, e, ctx.Args().First())
	if err != nil {
		return err
	}

	var c entries.Changes

	c.Span, _, err = spanFlags(ctx)
	if err != nil {
		return err
	}

	if ctx.IsSet("task") {
		v := ctx.String("task")
		c.TaskID = &v
	}

	if ctx.IsSet("description") {
		v := ctx.String("description")
		c.Description = &v
	}

	if ctx.IsSet("currency") {
		v := ctx.String("currency")
		c.Currency = &v
	}

	if ctx.IsSet("tag") {
		v := splitTags(ctx.String("tag"))
		c.Tags = &v
	}

	if ctx.IsSet("billable") {
		v := ctx.Bool("billable")
		c.Billable = &v
	}

	if ctx.IsSet("rate") {
		v := ctx.Float64("rate")
		c.BillableRate = &v
	}

	entry, err := e.entries.Update(ctx.Context, e.user(), id, c)
	if err != nil {
		return err
	}

	printEntriesTable(config.Stdout, []models.TimeEntry{*entry})

	return nil
}

func deleteEntryAction(ctx *cli.Context, e *env) error {
	id, err := resolveEntryID(ctx, e, ctx.Args().First())
	if err != nil {
		return err
	}

	if !ctx.Bool("yes") {
		ok, err := confirm(
			fmt.Sprintf("Delete entry %s permanently?", shortID(id)),
			"--yes",
		)
		if err != nil || !ok {
			return err
		}
	}

	if err := e.entries.Delete(ctx.Context, e.user(), id); err != nil {
		return err
	}

	warning().Printfln("Deleted entry %s", ui.Warn(shortID(id)))

	return nil
}
