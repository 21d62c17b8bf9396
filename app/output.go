package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/ayoisaiah/workstate/internal/config"
	"github.com/ayoisaiah/workstate/internal/entries"
	"github.com/ayoisaiah/workstate/internal/models"
	"github.com/ayoisaiah/workstate/internal/timeutil"
	"github.com/ayoisaiah/workstate/internal/ui"
)

const (
	noEntriesMsg = "No time entries found for the specified filters"
	noTasksMsg   = "No tasks yet. Add one with 'workstate task add <name>'"
	noTimerMsg   = "No timer is running"
)

func info() *pterm.PrefixPrinter {
	return pterm.Info.WithWriter(config.Stdout)
}

func success() *pterm.PrefixPrinter {
	return pterm.Success.WithWriter(config.Stdout)
}

func warning() *pterm.PrefixPrinter {
	return pterm.Warning.WithWriter(config.Stdout)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(config.Stdout, string(b))

	return err
}

// printTimer describes the running timer.
func printTimer(w io.Writer, t *models.ActiveTimer, now time.Time) {
	lines := []string{
		fmt.Sprintf("Task:      %s", t.TaskID),
		fmt.Sprintf("Started:   %s", ui.Timestamp(&t.StartTime)),
		fmt.Sprintf("Elapsed:   %s", ui.Duration(t.Elapsed(now))),
		fmt.Sprintf("Last seen: %s", ui.Timestamp(&t.LastActivity)),
	}

	if t.Description != "" {
		lines = append(lines, fmt.Sprintf("Note:      %s", t.Description))
	}

	fmt.Fprintln(w, pterm.DefaultBox.WithTitle("Running timer").Sprint(strings.Join(lines, "\n")))
}

// printEntriesTable prints entries with a totals row per currency.
func printEntriesTable(w io.Writer, list []models.TimeEntry) {
	body := make([][]string, 0, len(list)+1)

	body = append(body, []string{"#", "ID", "TASK", "START", "END", "DURATION", "BILLING", "DESCRIPTION"})

	for i := range list {
		e := &list[i]

		billing := ui.Billable(e.Billable)
		if e.Billable {
			billing = ui.Money(e.Revenue(), e.Currency)
		}

		body = append(body, []string{
			fmt.Sprintf("%d", i+1),
			shortID(e.ID),
			e.TaskID,
			ui.Timestamp(e.StartTime),
			ui.Timestamp(e.EndTime),
			ui.Duration(e.Duration),
			billing,
			e.Description,
		})
	}

	ui.PrintTable(w, body)

	sum := entries.Revenue(list)

	fmt.Fprintf(w, "Total: %s (billable %s)\n",
		ui.Duration(sum.Total),
		ui.Duration(sum.Billable),
	)

	for _, c := range sum.Currencies() {
		fmt.Fprintf(w, "Revenue: %s\n", ui.Money(sum.Revenue[c], c))
	}
}

func printTasksTable(w io.Writer, list []models.Task) {
	body := [][]string{{"ID", "NAME", "PROJECT", "RATE"}}

	for i := range list {
		t := &list[i]

		rate := ""
		if t.BillableRate > 0 {
			rate = ui.Money(t.BillableRate, t.Currency)
		}

		body = append(body, []string{t.ID, t.Name, t.ProjectID, rate})
	}

	ui.PrintTable(w, body)
}

// printStop reports what a stop recorded.
func printStop(w io.Writer, raw, rounded time.Duration, e *models.TimeEntry) {
	if e == nil {
		fmt.Fprintf(w, "Timer stopped after %s. Nothing was recorded.\n",
			timeutil.FormatDuration(raw),
		)

		return
	}

	msg := fmt.Sprintf("Recorded %s", timeutil.FormatDuration(e.Duration))
	if rounded != raw {
		msg += fmt.Sprintf(" (tracked %s)", timeutil.FormatDuration(raw))
	}

	if e.Billable {
		msg += " for " + ui.Money(e.Revenue(), e.Currency)
	}

	fmt.Fprintln(w, msg)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}
