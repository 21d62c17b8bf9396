package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/workstate/internal/config"
	"github.com/ayoisaiah/workstate/internal/entries"
	"github.com/ayoisaiah/workstate/internal/logging"
	"github.com/ayoisaiah/workstate/internal/tasks"
	"github.com/ayoisaiah/workstate/internal/timerstate"
	"github.com/ayoisaiah/workstate/internal/tracker"
	"github.com/ayoisaiah/workstate/store"
)

// env wires the components a command works with.
type env struct {
	cfg     *config.Config
	log     *slog.Logger
	db      *store.Client
	catalog *tasks.Catalog
	timers  *timerstate.Store
	entries *entries.Repository
	ctrl    *tracker.Controller
	closers []io.Closer
}

// interactive reports whether the user can answer prompts.
func interactive() bool {
	f, ok := config.Stdin.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	if err := config.InitializePaths(); err != nil {
		return nil, err
	}

	var opts []config.Option

	if interactive() {
		opts = append(opts, config.WithPromptConfig(config.ConfigFilePath()))
	}

	opts = append(opts,
		config.WithViperConfig(config.ConfigFilePath()),
		config.WithCLIConfig(ctx),
	)

	return config.New(opts...)
}

// setup loads the config and opens the database. The returned env must be
// closed.
func setup(ctx *cli.Context) (*env, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	log, logCloser, err := logging.New(logging.Options{
		Path:       config.LogFilePath(),
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, err
	}

	slog.SetDefault(log)

	db, err := store.NewClient(config.DBFilePath())
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}

	e := &env{
		cfg:     cfg,
		log:     log,
		db:      db,
		catalog: tasks.NewCatalog(db),
		closers: []io.Closer{db, logCloser},
	}

	e.timers = timerstate.New(db, timerstate.WithLogger(log))
	e.entries = entries.New(db, e.catalog, cfg)

	notifier := &tracker.DesktopNotifier{
		Log:     log,
		Cmd:     cfg.Idle.Cmd,
		AppDir:  config.Dir(),
		Enabled: cfg.Idle.Notify,
	}

	e.ctrl = tracker.New(e.timers, e.entries, e.catalog, cfg, db,
		tracker.WithLogger(log),
		tracker.WithNotifier(notifier),
		tracker.WithDiscardContinues(cfg.Idle.DiscardContinues),
	)

	return e, nil
}

func (e *env) user() string {
	return e.cfg.CLI.UserID
}

// Close flushes cached timer activity and releases the database.
func (e *env) Close() error {
	errs := []error{e.timers.Reconcile(context.Background())}

	for _, c := range e.closers {
		errs = append(errs, c.Close())
	}

	return errors.Join(errs...)
}

// withEnv runs fn with a fresh env and closes it afterwards.
func withEnv(fn func(ctx *cli.Context, e *env) error) cli.ActionFunc {
	return func(ctx *cli.Context) (err error) {
		e, err := setup(ctx)
		if err != nil {
			return err
		}

		defer func() {
			err = errors.Join(err, e.Close())
		}()

		return fn(ctx, e)
	}
}
