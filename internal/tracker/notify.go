package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/gen2brain/beeep"
	"github.com/kballard/go-shellquote"

	"github.com/ayoisaiah/workstate/internal/models"
)

// Notifier tells a user that their timer went idle.
type Notifier interface {
	IdleDetected(ctx context.Context, ev models.IdleEvent, t *models.ActiveTimer)
}

type nopNotifier struct{}

func (nopNotifier) IdleDetected(context.Context, models.IdleEvent, *models.ActiveTimer) {}

// DesktopNotifier shows a desktop notification and runs an optional shell
// command for every idle event.
type DesktopNotifier struct {
	Log *slog.Logger
	// Cmd is run with WORKSTATE_USER_ID, WORKSTATE_TIMER_ID and
	// WORKSTATE_IDLE_START set.
	Cmd     string
	AppDir  string
	Enabled bool
}

func (n *DesktopNotifier) IdleDetected(ctx context.Context, ev models.IdleEvent, t *models.ActiveTimer) {
	if n.Enabled {
		// empty when no icon is installed
		icon, _ := xdg.SearchDataFile(filepath.Join(n.AppDir, "static", "icon.png"))

		msg := fmt.Sprintf(
			"No activity since %s. Run 'workstate idle' to resolve.",
			ev.IdleStart.Local().Format(time.Kitchen),
		)

		if t.Description != "" {
			msg = t.Description + ": " + msg
		}

		if err := beeep.Notify("Timer idle", msg, icon); err != nil {
			n.Log.WarnContext(ctx, "unable to display notification",
				slog.Any("error", err),
			)
		}
	}

	if err := n.runCmd(ctx, ev); err != nil {
		n.Log.WarnContext(ctx, "idle command failed",
			slog.String("cmd", n.Cmd),
			slog.Any("error", err),
		)
	}
}

func (n *DesktopNotifier) runCmd(ctx context.Context, ev models.IdleEvent) error {
	if n.Cmd == "" {
		return nil
	}

	cmdSlice, err := shellquote.Split(n.Cmd)
	if err != nil {
		return fmt.Errorf("unable to parse idle.cmd option: %w", err)
	}

	if len(cmdSlice) == 0 {
		return nil
	}

	cmd := exec.CommandContext(ctx, cmdSlice[0], cmdSlice[1:]...)
	cmd.Env = append(os.Environ(),
		"WORKSTATE_USER_ID="+ev.UserID,
		"WORKSTATE_TIMER_ID="+ev.TimerID,
		"WORKSTATE_IDLE_START="+ev.IdleStart.Format(time.RFC3339),
	)

	return cmd.Run()
}
