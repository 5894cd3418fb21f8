package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ReplyBot/internal/config"
	"ReplyBot/internal/infrastructure/archive"
	"ReplyBot/internal/infrastructure/gemini"
	"ReplyBot/internal/infrastructure/scheduler"
	"ReplyBot/internal/infrastructure/twitterx"
	"ReplyBot/internal/logging"
	"ReplyBot/internal/ports"
	"ReplyBot/internal/state"
	"ReplyBot/internal/usecase"
)

const stopTimeout = 10 * time.Second

// Application wires configs to the engine and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	timeline ports.Timeline
	store    *state.Store
	arch     ports.ReplyArchive
	gen      ports.ReplyGenerator
}

// New builds a runnable application instance. Construction fails on anything
// the service cannot start without: a bad speaking style file or an
// unreachable reply archive.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	gen, err := gemini.New(cfg.Gemini, baseLogger.With("component", "gemini"))
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	app := &Application{
		cfg:      cfg,
		logger:   baseLogger,
		timeline: twitterx.New(cfg.Twitter, baseLogger.With("component", "twitter")),
		store: state.New(cfg.State.FilePath, cfg.State.MaxEntries,
			baseLogger.With("component", "state")),
		gen: gen,
	}

	if cfg.Archive.DBPath != "" {
		arch, err := archive.New(cfg.Archive.DBPath, baseLogger.With("component", "archive"))
		if err != nil {
			return nil, fmt.Errorf("init reply archive: %w", err)
		}
		app.arch = arch
	}

	return app, nil
}

// Run executes iterations on the configured interval until ctx is cancelled
// or the timeline integration turns out to be broken. Either way the state
// store gets one best-effort final flush before resources are released.
func (a *Application) Run(ctx context.Context) error {
	a.store.Load()

	self, err := a.timeline.Verify(ctx)
	if err != nil {
		return fmt.Errorf("verify twitter credentials: %w", err)
	}
	a.logger.Info("authenticated", "user_id", self.ID, "handle", self.Handle)

	engine := usecase.NewEngine(usecase.EngineDeps{
		Timeline:      a.timeline,
		Generator:     a.gen,
		Store:         a.store,
		Archive:       a.arch,
		Logger:        a.logger.With("component", "engine"),
		SelfID:        self.ID,
		TweetsToFetch: a.cfg.Bot.TweetsToFetch,
		MinReplyDelay: a.cfg.Bot.MinReplyDelay(),
		MaxReplyDelay: a.cfg.Bot.MaxReplyDelay(),
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	fatal := make(chan error, 1)
	job := func(time.Time) {
		if err := engine.RunIteration(runCtx); err != nil {
			select {
			case fatal <- err:
			default:
			}
			cancel()
		}
	}

	driver := scheduler.NewIntervalScheduler(a.cfg.Bot.FetchInterval())
	if err := driver.Start(runCtx, job); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("entered run loop", "fetch_interval", a.cfg.Bot.FetchInterval())

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown requested")
	case runErr = <-fatal:
	}
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	if err := driver.Stop(stopCtx); err != nil {
		a.logger.Warn("scheduler did not stop cleanly", "error", err)
	}

	a.logger.Info("performing final state save")
	if err := a.store.Save(); err != nil {
		a.logger.Error("failed to save state during shutdown", "error", err)
	}

	if a.arch != nil {
		if err := a.arch.Close(); err != nil {
			a.logger.Warn("failed to close reply archive", "error", err)
		}
	}

	a.logger.Info("service stopped")
	return runErr
}
