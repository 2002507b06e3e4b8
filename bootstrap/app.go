package bootstrap

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/getfnative/logger"
)

// App runs one finite task with uniform lifecycle management: validated
// config, initialized logging, signal-driven cancellation and stop hooks.
// The type parameter C is the config type.
//
// Example:
//
//	app, err := bootstrap.NewApp(&cfg, bootstrap.WithVersion(v))
//	app.OnStop(func(ctx context.Context) error { return tp.Shutdown(ctx) })
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return sweep(ctx)
//	})
type App[C Config] struct {
	Name    string
	Version string
	Cfg     C
	Logger  *logger.Logger
	Summary *Summary

	gracefulTimeout time.Duration
	summaryOut      io.Writer

	onStart []Hook
	onStop  []Hook
}

// NewApp creates a new application instance from a typed config.
// It applies defaults, validates the config, and initializes the logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := resolveOptions(opts)
	app := &App[C]{
		Name:            cfg.AppName(),
		Version:         o.version,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
		summaryOut:      o.summaryOut,
	}
	if app.Version == "" {
		app.Version = "dev"
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}

	// Logger: use custom if provided, otherwise init from config.
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(cfg.LoggingConfig())
		app.Logger = logger.GetGlobalLogger()
	}
	logger.Register(app.Name, app.Logger)

	app.Summary = NewSummary(app.Name, app.Version)
	return app, nil
}

// RunTask executes a finite task: OnStart hooks, summary, task, OnStop
// hooks. SIGINT and SIGTERM cancel the task's context; the task is
// expected to return promptly with whatever it has. Stop hooks run in all
// cases and the task's error takes precedence over theirs.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	start := time.Now()
	a.Logger.Info("Starting "+a.Name, logger.Fields("version", a.Version))

	// Set up signal-based cancellation for the task
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Warn("Received signal, canceling task", logger.Fields("signal", sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	var taskErr error
	if err := runHooks(taskCtx, a.onStart); err != nil {
		taskErr = err
	} else {
		a.Summary.SetStartupDuration(time.Since(start))
		a.DisplaySummary()
		taskErr = task(taskCtx)
	}

	if stopErr := a.stop(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

// DisplaySummary prints the run summary if an output is configured.
func (a *App[C]) DisplaySummary() {
	if a.summaryOut == nil {
		return
	}
	a.Summary.Display(a.summaryOut)
}

// Shutdown runs the stop hooks. Use when managing your own lifecycle.
func (a *App[C]) Shutdown() error {
	return a.stop()
}

// stop runs the stop hooks within the graceful timeout. It uses a fresh
// context so hooks can flush after the task context was canceled.
func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	hooks := a.onStop
	a.onStop = nil
	if err := runStopHooks(ctx, hooks); err != nil {
		a.Logger.Error("Shutdown completed with errors", logger.Fields("error", err.Error()))
		return err
	}
	a.Logger.Debug("Shutdown complete")
	return nil
}
