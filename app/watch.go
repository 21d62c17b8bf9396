package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/workstate/internal/idle"
	"github.com/ayoisaiah/workstate/internal/models"
	"github.com/ayoisaiah/workstate/internal/timeutil"
	"github.com/ayoisaiah/workstate/internal/tracker"
)

type keymap struct {
	stop    key.Binding
	discard key.Binding
	keep    key.Binding
	trim    key.Binding
	quit    key.Binding
}

var watchKeys = keymap{
	stop: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "stop"),
	),
	discard: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "discard"),
	),
	keep: key.NewBinding(
		key.WithKeys("k"),
		key.WithHelp("k", "keep idle time"),
	),
	trim: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "drop idle time"),
	),
	quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

var watchStyle = struct {
	base   lipgloss.Style
	main   lipgloss.Style
	hint   lipgloss.Style
	alert  lipgloss.Style
	status lipgloss.Style
}{
	base:   lipgloss.NewStyle().Padding(1, 2),
	main:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFDF5")),
	hint:   lipgloss.NewStyle().Foreground(lipgloss.Color("#7D7D7D")),
	alert:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94")),
	status: lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
}

type tickMsg time.Time

type stateMsg struct {
	timer *models.ActiveTimer
	idle  *models.IdleEvent
	err   error
}

type doneMsg struct {
	text string
	err  error
	// armDiscard is the id of the timer awaiting a second discard press.
	armDiscard string
}

// watcher is the live view of the user's running timer.
type watcher struct {
	env       *env
	ctx       context.Context
	timer     *models.ActiveTimer
	idle      *models.IdleEvent
	detector  *idle.Detector
	lastSweep time.Time
	now       time.Time
	err       error
	help      help.Model
	status    string
	// discardArmed holds the timer id once discard was pressed once.
	discardArmed string
}

func newWatcher(ctx context.Context, e *env) *watcher {
	return &watcher{
		env:      e,
		ctx:      ctx,
		now:      time.Now(),
		help:     help.New(),
		detector: idle.NewDetector(e.timers, e.cfg, e.ctrl, idle.WithLogger(e.log)),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh reads the timer, sweeping for idleness when it is due.
func (w *watcher) refresh(now time.Time) tea.Cmd {
	sweep := now.Sub(w.lastSweep) >= w.env.cfg.Idle.CheckInterval
	if sweep {
		w.lastSweep = now
	}

	return func() tea.Msg {
		if sweep {
			w.detector.Sweep(w.ctx, now)
			w.env.ctrl.Drain(w.ctx)
		}

		t, err := w.env.ctrl.Active(w.ctx, w.env.user())
		if errors.Is(err, tracker.ErrNoActiveTimer) {
			return stateMsg{}
		}

		if err != nil {
			return stateMsg{err: err}
		}

		ev, err := w.env.ctrl.PendingIdle(w.ctx, w.env.user())

		return stateMsg{timer: t, idle: ev, err: err}
	}
}

func (w *watcher) run(fn func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		text, err := fn()
		return doneMsg{text: text, err: err}
	}
}

func (w *watcher) Init() tea.Cmd {
	return tea.Batch(w.refresh(w.now), tick())
}

func (w *watcher) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		w.now = time.Time(msg)
		return w, tea.Batch(w.refresh(w.now), tick())

	case stateMsg:
		w.timer, w.idle, w.err = msg.timer, msg.idle, msg.err
		return w, nil

	case doneMsg:
		w.status, w.err = msg.text, msg.err
		w.discardArmed = msg.armDiscard
		return w, w.refresh(time.Now())

	case tea.KeyMsg:
		return w.handleKey(msg)
	}

	return w, nil
}

func (w *watcher) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	user := w.env.user()

	switch {
	case key.Matches(msg, watchKeys.quit):
		return w, tea.Quit

	case w.timer == nil:
		return w, nil

	case key.Matches(msg, watchKeys.discard):
		if w.discardArmed == w.timer.ID {
			w.discardArmed = ""

			return w, w.run(func() (string, error) {
				_, err := w.env.ctrl.Discard(w.ctx, user, true)
				return "Timer discarded", err
			})
		}

		return w, w.askDiscard()
	}

	w.discardArmed = ""

	switch {
	case key.Matches(msg, watchKeys.stop):
		return w, w.run(func() (string, error) {
			res, err := w.env.ctrl.Stop(w.ctx, user, tracker.StopRequest{})
			if err != nil {
				return "", err
			}

			if res.Entry == nil {
				return "Stopped, nothing recorded", nil
			}

			return "Recorded " + timeutil.FormatDuration(res.Entry.Duration), nil
		})

	case w.idle != nil && key.Matches(msg, watchKeys.keep):
		return w, w.resolve(models.KeepIdle)

	case w.idle != nil && key.Matches(msg, watchKeys.trim):
		return w, w.resolve(models.DiscardIdle)
	}

	// any other key counts as activity
	return w, w.run(func() (string, error) {
		return "", w.env.ctrl.Touch(w.ctx, user)
	})
}

// askDiscard shows what discarding would throw away without doing it.
func (w *watcher) askDiscard() tea.Cmd {
	return func() tea.Msg {
		res, err := w.env.ctrl.Discard(w.ctx, w.env.user(), false)
		if err != nil {
			return doneMsg{err: err}
		}

		return doneMsg{
			text: fmt.Sprintf(
				"Discard %s of tracked time? Press x again to confirm",
				timeutil.FormatDuration(res.Elapsed),
			),
			armDiscard: res.Timer.ID,
		}
	}
}

func (w *watcher) resolve(action models.IdleResolution) tea.Cmd {
	return w.run(func() (string, error) {
		res, err := w.env.ctrl.ResolveIdle(w.ctx, w.env.user(), action)
		if err != nil {
			return "", err
		}

		if res.Stale {
			return "Idle event no longer applies", nil
		}

		return "Idle time resolved: " + string(action), nil
	})
}

func (w *watcher) View() string {
	var s strings.Builder

	if w.timer == nil {
		s.WriteString(watchStyle.hint.Render(noTimerMsg))
	} else {
		title := "Task " + w.timer.TaskID
		if w.timer.Description != "" {
			title += ": " + w.timer.Description
		}

		s.WriteString(watchStyle.hint.Render(title))
		s.WriteString("\n\n")

		elapsed := w.timer.Elapsed(w.now)
		s.WriteString(watchStyle.main.Render(fmt.Sprintf(
			"%02d:%02d:%02d",
			int(elapsed.Hours()),
			int(elapsed.Minutes())%60,
			int(elapsed.Seconds())%60,
		)))

		if w.idle != nil {
			s.WriteString("\n\n")
			s.WriteString(watchStyle.alert.Render(fmt.Sprintf(
				"Idle since %s",
				w.idle.IdleStart.Local().Format(time.Kitchen),
			)))
		}
	}

	if w.status != "" {
		s.WriteString("\n\n" + watchStyle.status.Render(w.status))
	}

	if w.err != nil {
		s.WriteString("\n\n" + watchStyle.alert.Render(w.err.Error()))
	}

	bindings := []key.Binding{watchKeys.quit}

	switch {
	case w.timer != nil && w.idle != nil:
		bindings = []key.Binding{watchKeys.keep, watchKeys.trim, watchKeys.stop, watchKeys.quit}
	case w.timer != nil:
		bindings = []key.Binding{watchKeys.stop, watchKeys.discard, watchKeys.quit}
	}

	s.WriteString("\n\n" + w.help.ShortHelpView(bindings))

	return watchStyle.base.Render(s.String())
}

func watchAction(ctx *cli.Context, e *env) error {
	p := tea.NewProgram(newWatcher(ctx.Context, e))

	_, err := p.Run()

	return err
}
