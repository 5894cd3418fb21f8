// Package twitterx adapts the dghubble X API client to the ports the engine
// depends on. All library error shapes are translated into the domain error
// taxonomy here; nothing outside this package inspects twitter errors.
package twitterx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dghubble/go-twitter/twitter"
	"github.com/dghubble/oauth1"

	"ReplyBot/internal/config"
	"ReplyBot/internal/domain"
	"ReplyBot/internal/ports"
)

// Client implements ports.Timeline over the X v1.1 API.
type Client struct {
	api    *twitter.Client
	logger *slog.Logger
}

var _ ports.Timeline = (*Client)(nil)

// New builds an OAuth1-authenticated client.
func New(cfg config.TwitterConfig, logger *slog.Logger) *Client {
	oauthCfg := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret)
	httpClient := oauthCfg.Client(context.Background(), token)

	return &Client{
		api:    twitter.NewClient(httpClient),
		logger: logger,
	}
}

// FetchLatest returns up to count home-timeline items, newest first.
func (c *Client) FetchLatest(ctx context.Context, count int) ([]domain.Tweet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	includeEntities := true
	raw, _, err := c.api.Timelines.HomeTimeline(&twitter.HomeTimelineParams{
		Count:           count,
		IncludeEntities: &includeEntities,
		TweetMode:       "extended",
	})
	if err != nil {
		return nil, classifyFetchError(err)
	}

	tweets := make([]domain.Tweet, 0, len(raw))
	for _, t := range raw {
		tweets = append(tweets, toDomain(t))
	}
	c.logger.Debug("fetched home timeline", "requested", count, "received", len(tweets))
	return tweets, nil
}

// PostReply publishes text as a reply to the target tweet.
func (c *Client) PostReply(ctx context.Context, target domain.Tweet, text string) (domain.Tweet, error) {
	if err := ctx.Err(); err != nil {
		return domain.Tweet{}, err
	}

	targetID, err := strconv.ParseInt(target.ID, 10, 64)
	if err != nil {
		return domain.Tweet{}, fmt.Errorf("%w: non-numeric tweet id %q", domain.ErrContract, target.ID)
	}

	posted, resp, err := c.api.Statuses.Update(text, &twitter.StatusUpdateParams{
		InReplyToStatusID: targetID,
	})
	if err != nil {
		return domain.Tweet{}, classifyPostError(err, resp)
	}
	if posted == nil {
		return domain.Tweet{}, fmt.Errorf("%w: empty status update response", domain.ErrContract)
	}

	return toDomain(*posted), nil
}

// Verify resolves the authenticated account.
func (c *Client) Verify(ctx context.Context) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}

	user, _, err := c.api.Accounts.VerifyCredentials(&twitter.AccountVerifyParams{})
	if err != nil {
		return domain.User{}, fmt.Errorf("verify credentials: %w", err)
	}
	if user == nil {
		return domain.User{}, fmt.Errorf("%w: empty verify response", domain.ErrContract)
	}

	return domain.User{ID: user.IDStr, Handle: user.ScreenName}, nil
}

// toDomain flattens a library tweet into the engine's value type, keeping one
// level of retweet/quote nesting.
func toDomain(t twitter.Tweet) domain.Tweet {
	out := domain.Tweet{
		ID:              t.IDStr,
		Text:            tweetText(t),
		ImageURLs:       photoURLs(t),
		InReplyToUserID: t.InReplyToUserIDStr,
	}
	if out.ID == "" && t.ID != 0 {
		out.ID = strconv.FormatInt(t.ID, 10)
	}
	if t.User != nil {
		out.AuthorID = t.User.IDStr
		out.AuthorHandle = t.User.ScreenName
	}
	if t.RetweetedStatus != nil {
		rt := toDomain(*t.RetweetedStatus)
		out.Retweeted = &rt
	}
	if t.QuotedStatus != nil {
		qt := toDomain(*t.QuotedStatus)
		out.Quoted = &qt
	}
	return out
}

func tweetText(t twitter.Tweet) string {
	if t.FullText != "" {
		return t.FullText
	}
	return t.Text
}

// photoURLs collects https URLs of photo media, extended entities first since
// the classic entities block only carries the first attachment.
func photoURLs(t twitter.Tweet) []string {
	var media []twitter.MediaEntity
	switch {
	case t.ExtendedEntities != nil && len(t.ExtendedEntities.Media) > 0:
		media = t.ExtendedEntities.Media
	case t.Entities != nil:
		media = t.Entities.Media
	}

	var urls []string
	for _, m := range media {
		if m.Type == "photo" && m.MediaURLHttps != "" {
			urls = append(urls, m.MediaURLHttps)
		}
	}
	return urls
}

// classifyFetchError separates broken-integration failures from ordinary API
// hiccups. A payload the client library cannot decode means the contract with
// the API itself is violated and retrying in-process cannot help.
func classifyFetchError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	if errors.As(err, &typeErr) || errors.As(err, &syntaxErr) {
		return fmt.Errorf("%w: %v", domain.ErrContract, err)
	}
	return fmt.Errorf("fetch timeline: %w", err)
}

// Error codes from the X API that make a reply permanently impossible.
var (
	notFoundCodes  = map[int]bool{34: true, 144: true, 385: true}
	forbiddenCodes = map[int]bool{179: true, 187: true, 220: true, 226: true, 326: true}
)

func classifyPostError(err error, resp *http.Response) error {
	var apiErr twitter.APIError
	if errors.As(err, &apiErr) {
		for _, detail := range apiErr.Errors {
			if notFoundCodes[detail.Code] {
				return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
			}
			if forbiddenCodes[detail.Code] {
				return fmt.Errorf("%w: %v", domain.ErrForbidden, err)
			}
		}
	}

	if resp != nil {
		switch resp.StatusCode {
		case http.StatusNotFound, http.StatusGone:
			return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		case http.StatusForbidden, http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", domain.ErrForbidden, err)
		}
	}

	return fmt.Errorf("post reply: %w", err)
}
