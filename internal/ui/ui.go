// Package ui renders workstate records for the terminal
package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/ayoisaiah/workstate/internal/timeutil"
)

const (
	dateTime12 = "Jan 02, 2006 03:04 PM"
	dateTime24 = "Jan 02, 2006 15:04"
)

// TwentyFourHour switches timestamps to the 24-hour clock.
var TwentyFourHour bool

// PrintTable prints data as a boxed table. The first row is the header.
func PrintTable(w io.Writer, data [][]string) {
	table := pterm.DefaultTable
	table.Boxed = true

	str, err := table.WithHasHeader().WithData(data).Srender()
	if err != nil {
		pterm.Error.Printfln("Failed to render table: %s", err.Error())
		return
	}

	fmt.Fprintln(w, str)
}

// Timestamp formats t for display. Zero and nil times render empty.
func Timestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}

	if TwentyFourHour {
		return t.Local().Format(dateTime24)
	}

	return t.Local().Format(dateTime12)
}

// Duration formats d as hours and minutes.
func Duration(d time.Duration) string {
	return pterm.Cyan(timeutil.FormatDuration(d))
}

// Money formats an amount with its currency code.
func Money(amount float64, currency string) string {
	return pterm.Green(fmt.Sprintf("%.2f %s", amount, strings.ToUpper(currency)))
}

// Billable renders whether an entry is billed.
func Billable(b bool) string {
	if b {
		return pterm.Green("billable")
	}

	return pterm.Gray("non-billable")
}

// Warn highlights text that needs the user's attention.
func Warn(a any) string {
	return pterm.Yellow(a)
}
