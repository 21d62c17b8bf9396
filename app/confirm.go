package app

import (
	"github.com/charmbracelet/huh"

	"github.com/ayoisaiah/workstate/internal/apperr"
	"github.com/ayoisaiah/workstate/internal/models"
	"github.com/ayoisaiah/workstate/internal/tracker"
)

var errNeedsConfirmation = &apperr.Error{
	Message: "%s: pass %s to proceed without a prompt",
}

// confirm asks a yes/no question. Without a terminal it returns
// errNeedsConfirmation naming the flag that skips the prompt.
func confirm(title, flag string) (bool, error) {
	if !interactive() {
		return false, errNeedsConfirmation.Fmt(title, flag)
	}

	var ok bool

	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()

	return ok, err
}

// chooseReplace asks what to do with the timer that blocks a start.
func chooseReplace(running *tracker.ConfirmationRequiredError) (tracker.Replace, error) {
	if !interactive() {
		return tracker.ReplaceNone, running
	}

	choice := tracker.ReplaceStop

	err := huh.NewSelect[tracker.Replace]().
		Title(running.Error()).
		Options(
			huh.NewOption("Stop it and record the time", tracker.ReplaceStop),
			huh.NewOption("Discard it", tracker.ReplaceDiscard),
			huh.NewOption("Keep it running", tracker.ReplaceNone),
		).
		Value(&choice).
		Run()

	return choice, err
}

// chooseIdleAction asks how to resolve an idle event.
func chooseIdleAction() (models.IdleResolution, error) {
	choice := models.KeepIdle

	err := huh.NewSelect[models.IdleResolution]().
		Title("How should the idle time be handled?").
		Options(
			huh.NewOption("Keep it on the timer", models.KeepIdle),
			huh.NewOption("Discard the idle time", models.DiscardIdle),
			huh.NewOption("Stop the timer when I went idle", models.StopAtIdleStart),
		).
		Value(&choice).
		Run()

	return choice, err
}
