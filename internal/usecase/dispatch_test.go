package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"ReplyBot/internal/domain"
)

func newDispatcher(timeline *fakeTimeline, gen *fakeGenerator, store *fakeStore) *Dispatcher {
	return &Dispatcher{
		timeline:  timeline,
		generator: gen,
		store:     store,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestDispatchAlreadyHandled(t *testing.T) {
	t.Parallel()

	timeline := &fakeTimeline{}
	store := newFakeStore("1")
	d := newDispatcher(timeline, &fakeGenerator{reply: "hi"}, store)

	out := d.Dispatch(context.Background(), domain.Tweet{ID: "1", Text: "hello"}, "self")

	assert.Equal(t, domain.OutcomeSkipped, out.Kind)
	assert.Equal(t, domain.ReasonAlreadyHandled, out.Reason)
	assert.False(t, out.Mutated)
	assert.False(t, out.Errored)
	assert.Empty(t, timeline.posts)
}

func TestDispatchSelfAuthored(t *testing.T) {
	t.Parallel()

	for name, tweet := range map[string]domain.Tweet{
		"own tweet":     {ID: "1", AuthorID: "self", Text: "hello"},
		"reply to self": {ID: "1", AuthorID: "other", InReplyToUserID: "self", Text: "hello"},
	} {
		timeline := &fakeTimeline{}
		store := newFakeStore()
		d := newDispatcher(timeline, &fakeGenerator{reply: "hi"}, store)

		out := d.Dispatch(context.Background(), tweet, "self")

		assert.Equal(t, domain.ReasonSelfAuthored, out.Reason, name)
		assert.True(t, out.Mutated, name)
		assert.True(t, store.IsProcessed("1"), name)
		assert.Empty(t, timeline.posts, name)
	}
}

func TestDispatchUnknownIdentitySkipsSelfCheck(t *testing.T) {
	t.Parallel()

	timeline := &fakeTimeline{}
	store := newFakeStore()
	d := newDispatcher(timeline, &fakeGenerator{reply: "hi"}, store)

	out := d.Dispatch(context.Background(), domain.Tweet{ID: "1", AuthorID: "self", Text: "hello"}, "")

	assert.Equal(t, domain.OutcomeReplied, out.Kind)
}

func TestDispatchNoContent(t *testing.T) {
	t.Parallel()

	timeline := &fakeTimeline{}
	store := newFakeStore()
	d := newDispatcher(timeline, &fakeGenerator{reply: "hi"}, store)

	out := d.Dispatch(context.Background(), domain.Tweet{ID: "1", Text: "   "}, "self")

	assert.Equal(t, domain.OutcomeSkipped, out.Kind)
	assert.Equal(t, domain.ReasonNoContent, out.Reason)
	assert.True(t, out.Mutated)
	assert.False(t, out.Errored)
	assert.True(t, store.IsProcessed("1"))
	assert.Empty(t, timeline.posts)
}

func TestDispatchGenerationEmpty(t *testing.T) {
	t.Parallel()

	for name, gen := range map[string]*fakeGenerator{
		"empty reply":     {reply: ""},
		"blank reply":     {reply: "  \n"},
		"generator error": {err: errors.New("api quota exhausted")},
	} {
		timeline := &fakeTimeline{}
		store := newFakeStore()
		d := newDispatcher(timeline, gen, store)

		out := d.Dispatch(context.Background(), domain.Tweet{ID: "1", Text: "hello"}, "self")

		assert.Equal(t, domain.OutcomeSkipped, out.Kind, name)
		assert.Equal(t, domain.ReasonGenerationEmpty, out.Reason, name)
		assert.True(t, out.Mutated, name)
		assert.True(t, out.Errored, name, "soft content failure still counts as an error")
		assert.True(t, store.IsProcessed("1"), name)
		assert.Empty(t, timeline.posts, name)
	}
}

func TestDispatchReplied(t *testing.T) {
	t.Parallel()

	timeline := &fakeTimeline{}
	store := newFakeStore()
	d := newDispatcher(timeline, &fakeGenerator{reply: "hi"}, store)

	out := d.Dispatch(context.Background(), domain.Tweet{ID: "1", Text: "hello"}, "self")

	assert.Equal(t, domain.OutcomeReplied, out.Kind)
	assert.True(t, out.Mutated)
	assert.False(t, out.Errored)
	assert.Equal(t, []string{"1"}, timeline.posts)
	assert.True(t, store.IsProcessed("1"))
}

func TestDispatchPermanentPostFailuresAreMarked(t *testing.T) {
	t.Parallel()

	for reason, err := range map[domain.Reason]error{
		domain.ReasonNotFound:  fmt.Errorf("%w: status gone", domain.ErrNotFound),
		domain.ReasonForbidden: fmt.Errorf("%w: blocked by author", domain.ErrForbidden),
	} {
		timeline := &fakeTimeline{postErrs: map[string]error{"1": err}}
		store := newFakeStore()
		d := newDispatcher(timeline, &fakeGenerator{reply: "hi"}, store)

		out := d.Dispatch(context.Background(), domain.Tweet{ID: "1", Text: "hello"}, "self")

		assert.Equal(t, domain.OutcomeFailed, out.Kind)
		assert.Equal(t, reason, out.Reason)
		assert.True(t, out.Mutated, "unrecoverable failures are final dispositions")
		assert.True(t, out.Errored)
		assert.True(t, store.IsProcessed("1"))
	}
}

func TestDispatchTransientPostFailureStaysRetryable(t *testing.T) {
	t.Parallel()

	timeline := &fakeTimeline{postErrs: map[string]error{"1": errors.New("over capacity")}}
	store := newFakeStore()
	d := newDispatcher(timeline, &fakeGenerator{reply: "hi"}, store)

	out := d.Dispatch(context.Background(), domain.Tweet{ID: "1", Text: "hello"}, "self")

	assert.Equal(t, domain.OutcomeFailed, out.Kind)
	assert.Equal(t, domain.ReasonTransient, out.Reason)
	assert.False(t, out.Mutated)
	assert.False(t, store.IsProcessed("1"), "transient failures must stay eligible for retry")
}

func TestDispatchAtMostOnePostPerID(t *testing.T) {
	t.Parallel()

	timeline := &fakeTimeline{}
	store := newFakeStore()
	d := newDispatcher(timeline, &fakeGenerator{reply: "hi"}, store)

	tweet := domain.Tweet{ID: "1", Text: "hello"}
	for i := 0; i < 5; i++ {
		d.Dispatch(context.Background(), tweet, "self")
	}

	assert.Equal(t, []string{"1"}, timeline.posts)
}
