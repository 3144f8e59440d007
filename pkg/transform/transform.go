package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"feedjournal/pkg/feed"
)

// ReplyMarker opens the body of a post addressed to another user
const ReplyMarker = "@"

// DefaultTimeFormat matches the date argument the note command expects
const DefaultTimeFormat = "2006-01-02 15:04:05 -0700"

// createdAtLayouts are the timestamp shapes the feed API has been seen to emit
var createdAtLayouts = []string{
	time.RubyDate, // Wed Aug 29 17:12:58 +0000 2012
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -07:00",
}

// Entry is a post rendered for the note exporter
type Entry struct {
	PostID    int64
	Text      string
	Timestamp string
}

// IsReply reports whether the post body opens with an @-mention
func IsReply(post feed.Post) bool {
	return strings.HasPrefix(post.Text, ReplyMarker)
}

// ExpandURLs replaces every literal occurrence of each shortened URL in the
// body with its expanded form. Entities are matched by string, not offset,
// so a URL appearing twice is expanded twice.
func ExpandURLs(post feed.Post) string {
	text := post.Text
	if post.Entities == nil {
		return text
	}
	for _, entity := range post.Entities.URLs {
		if entity.URL == "" || entity.ExpandedURL == "" {
			continue
		}
		text = strings.ReplaceAll(text, entity.URL, entity.ExpandedURL)
	}
	return text
}

// ParseCreatedAt parses the feed-native creation timestamp
func ParseCreatedAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized created_at timestamp %q", raw)
}

// LocalTime renders the post's creation time in loc using layout
func LocalTime(post feed.Post, loc *time.Location, layout string) (string, error) {
	t, err := ParseCreatedAt(post.CreatedAt)
	if err != nil {
		return "", err
	}
	if loc == nil {
		loc = time.Local
	}
	if layout == "" {
		layout = DefaultTimeFormat
	}
	return t.In(loc).Format(layout), nil
}

// Permalink builds the public web URL of the post. base ends where the
// screen name begins, e.g. "https://twitter.com/#!/".
func Permalink(base string, post feed.Post) string {
	id := post.IDStr
	if id == "" {
		id = strconv.FormatInt(post.ID, 10)
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + post.User.ScreenName + "/status/" + id
}

// Transformer renders posts into note entries
type Transformer struct {
	PermalinkBase string
	TimeFormat    string
	Location      *time.Location
}

// New creates a transformer rendering times in the local timezone
func New(permalinkBase, timeFormat string) *Transformer {
	return &Transformer{
		PermalinkBase: permalinkBase,
		TimeFormat:    timeFormat,
		Location:      time.Local,
	}
}

// Render produces the text and timestamp handed to the exporter:
// the expanded body followed by an attribution trailer.
func (t *Transformer) Render(post feed.Post) (Entry, error) {
	ts, err := LocalTime(post, t.Location, t.TimeFormat)
	if err != nil {
		return Entry{}, fmt.Errorf("post %d: %w", post.ID, err)
	}

	return Entry{
		PostID:    post.ID,
		Text:      ExpandURLs(post) + " via " + Permalink(t.PermalinkBase, post),
		Timestamp: ts,
	}, nil
}
