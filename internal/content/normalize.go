// Package content derives the effective text and image references of a
// timeline item, unwrapping retweets and quote tweets.
package content

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ReplyBot/internal/domain"
)

// Labels used when combining a quote tweet with its quoted original. The
// generator prompt relies on these exact strings.
const (
	commenterLabel = "Commenter's Text: "
	quotedLabel    = "Original Quoted Text: "
)

// Normalize resolves what a tweet is actually about. For a retweet the
// original's content wins (the wrapper carries no text of its own); for a
// quote tweet both texts are kept as labeled segments. The wrapper's own
// media always has priority over the wrapped tweet's media. A result with no
// text and no images means there is nothing to reply to.
func Normalize(t domain.Tweet) domain.NormalizedContent {
	text := sanitize(t.Text)
	images := append([]string(nil), t.ImageURLs...)

	switch {
	case t.Retweeted != nil:
		text = sanitize(t.Retweeted.Text)
		if len(images) == 0 {
			images = append(images, t.Retweeted.ImageURLs...)
		}
	case t.Quoted != nil:
		text = fmt.Sprintf("%s%s\n%s%s",
			commenterLabel, sanitize(t.Text),
			quotedLabel, sanitize(t.Quoted.Text))
		if len(images) == 0 {
			images = append(images, t.Quoted.ImageURLs...)
		}
	}

	if strings.TrimSpace(text) == "" && len(images) == 0 {
		return domain.NormalizedContent{}
	}

	return domain.NormalizedContent{Text: text, ImageURLs: images}
}

// sanitize strips markup and decodes entities that the scraped timeline API
// leaves embedded in tweet text. Plain text passes through untouched.
func sanitize(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}

	return doc.Text()
}
