package app

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ayoisaiah/workstate/internal/api"
	"github.com/ayoisaiah/workstate/internal/apperr"
	"github.com/ayoisaiah/workstate/internal/config"
	"github.com/ayoisaiah/workstate/internal/idle"
	"github.com/ayoisaiah/workstate/internal/osutil"
	"github.com/ayoisaiah/workstate/internal/timeutil"
)

var errMissingSecret = &apperr.Error{
	Message: "server.jwt_secret is not set: add it to the config file with 'workstate edit-config'",
}

// serveAction runs the API, the idle detector, the idle inbox and the cache
// reconciler until interrupted.
func serveAction(ctx *cli.Context, e *env) error {
	if e.cfg.Server.JWTSecret == "" {
		return errMissingSecret
	}

	addr := e.cfg.Server.Addr
	if v := ctx.String("addr"); v != "" {
		addr = v
	}

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := e.timers.Rehydrate(sigCtx); err != nil {
		return err
	}

	if e.cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := api.New(e.ctrl, e.entries, e.cfg.Server.JWTSecret, e.log)
	detector := idle.NewDetector(e.timers, e.cfg, e.ctrl,
		idle.WithInterval(e.cfg.Idle.CheckInterval),
		idle.WithLogger(e.log),
	)

	g, gctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		return srv.ListenAndServe(gctx, addr)
	})

	g.Go(func() error {
		return e.ctrl.Run(gctx)
	})

	g.Go(func() error {
		return detector.Run(gctx)
	})

	g.Go(func() error {
		return e.timers.RunReconciler(gctx, e.cfg.Store.ReconcileInterval)
	})

	info().Printfln("Serving the workstate API on %s", addr)

	err := g.Wait()

	e.log.InfoContext(context.WithoutCancel(ctx.Context), "server stopped", slog.Any("error", err))

	return err
}

// tokenAction prints a signed API token for the current user.
func tokenAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	if cfg.Server.JWTSecret == "" {
		return errMissingSecret
	}

	ttl := cfg.Server.TokenTTL

	if v := ctx.String("ttl"); v != "" {
		if ttl, err = timeutil.ParseDuration(v); err != nil {
			return err
		}
	}

	tok, err := api.IssueToken(cfg.Server.JWTSecret, cfg.CLI.UserID, ttl)
	if err != nil {
		return err
	}

	info().Printfln("Token for %s, valid until %s",
		cfg.CLI.UserID, time.Now().Add(ttl).Format(time.RFC1123),
	)

	_, err = config.Stdout.Write([]byte(tok + "\n"))

	return err
}

// firstNonEmptyString returns its first non-empty argument, or "" if all
// arguments are empty.
func firstNonEmptyString(ss ...string) string {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}

	return ""
}

// editConfigAction opens the config file in the user's editor.
func editConfigAction(ctx *cli.Context) error {
	if _, err := loadConfig(ctx); err != nil {
		return err
	}

	defaultEditor := "nano"

	if runtime.GOOS == osutil.Windows {
		defaultEditor = "C:\\Windows\\system32\\notepad.exe"
	}

	editor := firstNonEmptyString(
		os.Getenv("VISUAL"),
		os.Getenv("EDITOR"),
		defaultEditor,
	)

	cmd := exec.CommandContext(ctx.Context, editor, config.ConfigFilePath())

	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout

	return cmd.Run()
}
