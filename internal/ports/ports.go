package ports

import (
	"context"
	"time"

	"ReplyBot/internal/domain"
)

// Timeline pulls fresh items from the feed and posts replies back.
type Timeline interface {
	// FetchLatest returns up to count items, newest first, already
	// normalized into one materialized slice.
	FetchLatest(ctx context.Context, count int) ([]domain.Tweet, error)

	// PostReply publishes text as a reply scoped to the target item.
	PostReply(ctx context.Context, target domain.Tweet, text string) (domain.Tweet, error)

	// Verify resolves the authenticated account, used for the self-skip rule.
	Verify(ctx context.Context) (domain.User, error)
}

// ReplyGenerator produces reply text for normalized content. An empty string
// with a nil error is an ordinary "nothing usable" result, not a failure.
type ReplyGenerator interface {
	Generate(ctx context.Context, text string, imageURLs []string) (string, error)
}

// ProcessedStore is the durable set of finally-handled item ids.
type ProcessedStore interface {
	IsProcessed(id string) bool
	MarkProcessed(id string)
	Save() error
}

// ReplyArchive keeps an audit trail of posted replies.
type ReplyArchive interface {
	RecordReply(ctx context.Context, rec domain.ReplyRecord) error
	Close() error
}

// Scheduler controls when iterations execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
