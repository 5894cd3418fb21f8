package domain

// Tweet is a core entity describing one timeline item as delivered by the
// timeline adapter. It may wrap a retweeted or quoted original.
type Tweet struct {
	ID              string
	AuthorID        string
	AuthorHandle    string
	Text            string
	ImageURLs       []string
	InReplyToUserID string
	Retweeted       *Tweet
	Quoted          *Tweet
}

// User identifies the authenticated account.
type User struct {
	ID     string
	Handle string
}

// NormalizedContent is the effective text and image references fed to the
// reply generator, derived from a Tweet and any wrapped original.
type NormalizedContent struct {
	Text      string
	ImageURLs []string
}

// Empty reports whether there is nothing to reply to.
func (c NormalizedContent) Empty() bool {
	return c.Text == "" && len(c.ImageURLs) == 0
}

// ReplyRecord is one posted reply persisted to the audit archive.
type ReplyRecord struct {
	InReplyToID  string
	AuthorHandle string
	ReplyID      string
	Text         string
}
