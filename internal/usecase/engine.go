package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"ReplyBot/internal/domain"
	"ReplyBot/internal/ports"
)

// EngineDeps wires all collaborators into the iteration engine.
type EngineDeps struct {
	Timeline  ports.Timeline
	Generator ports.ReplyGenerator
	Store     ports.ProcessedStore
	Archive   ports.ReplyArchive
	Logger    *slog.Logger

	SelfID        string
	TweetsToFetch int
	MinReplyDelay time.Duration
	MaxReplyDelay time.Duration
}

// Engine runs one full timeline pass: fetch a batch, dispatch each item
// oldest first, pace successful posts, and flush state if anything changed.
type Engine struct {
	timeline   ports.Timeline
	store      ports.ProcessedStore
	dispatcher *Dispatcher
	logger     *slog.Logger

	selfID        string
	tweetsToFetch int
	minDelay      time.Duration
	maxDelay      time.Duration

	// Hooks, overridable in tests.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(min, max time.Duration) time.Duration
}

// NewEngine constructs the orchestration component.
func NewEngine(deps EngineDeps) *Engine {
	return &Engine{
		timeline: deps.Timeline,
		store:    deps.Store,
		dispatcher: &Dispatcher{
			timeline:  deps.Timeline,
			generator: deps.Generator,
			store:     deps.Store,
			archive:   deps.Archive,
			logger:    deps.Logger,
		},
		logger:        deps.Logger,
		selfID:        deps.SelfID,
		tweetsToFetch: deps.TweetsToFetch,
		minDelay:      deps.MinReplyDelay,
		maxDelay:      deps.MaxReplyDelay,
		sleep:         sleepCtx,
		jitter:        uniformDelay,
	}
}

// RunIteration performs one pass over the timeline. It returns an error only
// when the timeline integration itself is broken (domain.ErrContract) —
// retrying in-process cannot help then and the caller is expected to exit.
// Ordinary fetch failures end the pass early; the next scheduled pass retries.
func (e *Engine) RunIteration(ctx context.Context) error {
	e.logger.Info("starting iteration")
	start := time.Now()

	e.ensureSelfID(ctx)

	e.logger.Info("fetching latest timeline", "count", e.tweetsToFetch)
	tweets, err := e.timeline.FetchLatest(ctx, e.tweetsToFetch)
	if err != nil {
		if errors.Is(err, domain.ErrContract) {
			e.logger.Error("timeline integration broken, giving up", "error", err)
			return err
		}
		e.logger.Error("failed to fetch timeline", "error", err)
		return nil
	}
	if len(tweets) == 0 {
		e.logger.Info("no new tweets in timeline fetch")
		return nil
	}

	e.logger.Info("processing fetched tweets oldest first", "count", len(tweets))

	var counters domain.Counters
	stateChanged := false

	// The timeline arrives newest first; walk it backwards so replies go
	// out in conversational order.
	for i := len(tweets) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			e.logger.Info("iteration cancelled, unwinding", "remaining", i+1)
			break
		}

		t := tweets[i]
		if t.ID == "" {
			e.logger.Warn("skipping timeline item without id")
			continue
		}

		out := e.dispatcher.Dispatch(ctx, t, e.selfID)

		if out.Mutated {
			stateChanged = true
		}
		if out.Reason != domain.ReasonAlreadyHandled && out.Reason != domain.ReasonSelfAuthored {
			counters.Considered++
		}
		if out.Kind == domain.OutcomeReplied {
			counters.Replied++
		}
		if out.Errored {
			counters.Errored++
		}

		if out.Kind == domain.OutcomeReplied && i > 0 {
			delay := e.jitter(e.minDelay, e.maxDelay)
			e.logger.Info("pacing before next tweet", "delay", delay)
			if err := e.sleep(ctx, delay); err != nil {
				e.logger.Info("pacing delay cancelled, unwinding")
				break
			}
		}
	}

	if stateChanged {
		if err := e.store.Save(); err != nil {
			e.logger.Error("failed to save state, in-memory set stays authoritative", "error", err)
		}
	}

	e.logger.Info("iteration completed",
		"duration", time.Since(start).Round(10*time.Millisecond),
		"considered", counters.Considered,
		"replied", counters.Replied,
		"errored", counters.Errored)
	return nil
}

// ensureSelfID lazily resolves the bot's own account id when it was not
// configured. Failure is tolerated: the pass runs without the self-skip rule
// and the next pass tries again.
func (e *Engine) ensureSelfID(ctx context.Context) {
	if e.selfID != "" {
		return
	}

	user, err := e.timeline.Verify(ctx)
	if err != nil {
		e.logger.Warn("could not resolve own account id", "error", err)
		return
	}
	e.selfID = user.ID
	e.logger.Info("resolved own account", "user_id", user.ID, "handle", user.Handle)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func uniformDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
