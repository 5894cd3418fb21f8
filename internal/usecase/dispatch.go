package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"ReplyBot/internal/content"
	"ReplyBot/internal/domain"
	"ReplyBot/internal/ports"
)

// Dispatcher decides the final disposition of one timeline item: skip it,
// generate and post a reply, or classify the failure. Collaborator errors are
// translated into a tagged Outcome here; nothing propagates out.
type Dispatcher struct {
	timeline  ports.Timeline
	generator ports.ReplyGenerator
	store     ports.ProcessedStore
	archive   ports.ReplyArchive
	logger    *slog.Logger
}

func skipped(reason domain.Reason, mutated, errored bool) domain.Outcome {
	return domain.Outcome{Kind: domain.OutcomeSkipped, Reason: reason, Mutated: mutated, Errored: errored}
}

func failed(reason domain.Reason, mutated bool) domain.Outcome {
	return domain.Outcome{Kind: domain.OutcomeFailed, Reason: reason, Mutated: mutated, Errored: true}
}

// Dispatch processes one tweet. selfID is the engine-owned identity of the
// bot's own account; when known, own tweets and replies to the bot are
// permanently skipped. Each terminal path mutates the store at most once and
// posts at most once.
func (d *Dispatcher) Dispatch(ctx context.Context, t domain.Tweet, selfID string) (out domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("unexpected failure dispatching tweet", "tweet_id", t.ID, "panic", r)
			out = failed(domain.ReasonUnexpected, false)
		}
	}()

	if d.store.IsProcessed(t.ID) {
		d.logger.Debug("skipping already processed tweet", "tweet_id", t.ID)
		return skipped(domain.ReasonAlreadyHandled, false, false)
	}

	if selfID != "" && (t.AuthorID == selfID || t.InReplyToUserID == selfID) {
		d.logger.Info("skipping own tweet or reply to self", "tweet_id", t.ID)
		d.store.MarkProcessed(t.ID)
		return skipped(domain.ReasonSelfAuthored, true, false)
	}

	nc := content.Normalize(t)
	if nc.Empty() {
		d.logger.Warn("skipping tweet with no effective text and no images", "tweet_id", t.ID)
		d.store.MarkProcessed(t.ID)
		return skipped(domain.ReasonNoContent, true, false)
	}

	d.logger.Info("generating reply",
		"tweet_id", t.ID, "author", t.AuthorHandle,
		"text_preview", preview(nc.Text), "images", len(nc.ImageURLs))

	reply, err := d.generator.Generate(ctx, nc.Text, nc.ImageURLs)
	if err != nil {
		d.logger.Warn("reply generation failed, skipping post", "tweet_id", t.ID, "error", err)
		reply = ""
	}
	if strings.TrimSpace(reply) == "" {
		if err == nil {
			d.logger.Warn("generator returned no usable reply, skipping post", "tweet_id", t.ID)
		}
		d.store.MarkProcessed(t.ID)
		return skipped(domain.ReasonGenerationEmpty, true, true)
	}

	posted, err := d.timeline.PostReply(ctx, t, reply)
	switch {
	case err == nil:
		d.store.MarkProcessed(t.ID)
		d.logger.Info("posted reply", "tweet_id", t.ID, "reply_id", posted.ID)
		d.record(ctx, t, posted, reply)
		return domain.Outcome{Kind: domain.OutcomeReplied, Mutated: true}

	case errors.Is(err, domain.ErrNotFound):
		d.logger.Warn("reply target not found, marking as handled", "tweet_id", t.ID, "error", err)
		d.store.MarkProcessed(t.ID)
		return failed(domain.ReasonNotFound, true)

	case errors.Is(err, domain.ErrForbidden):
		d.logger.Warn("reply forbidden, marking as handled", "tweet_id", t.ID, "error", err)
		d.store.MarkProcessed(t.ID)
		return failed(domain.ReasonForbidden, true)

	default:
		// Transient API failure: leave unmarked so a future iteration
		// can retry the reply.
		d.logger.Error("transient failure posting reply", "tweet_id", t.ID, "error", err)
		return failed(domain.ReasonTransient, false)
	}
}

func (d *Dispatcher) record(ctx context.Context, target, posted domain.Tweet, reply string) {
	if d.archive == nil {
		return
	}
	err := d.archive.RecordReply(ctx, domain.ReplyRecord{
		InReplyToID:  target.ID,
		AuthorHandle: target.AuthorHandle,
		ReplyID:      posted.ID,
		Text:         reply,
	})
	if err != nil {
		d.logger.Warn("failed to archive posted reply", "tweet_id", target.ID, "error", err)
	}
}

func preview(s string) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > 30 {
		return string(runes[:30]) + "..."
	}
	return string(runes)
}
