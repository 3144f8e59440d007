package feed

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimelineURL(t *testing.T) {
	raw := TimelineURL("https://api.twitter.com/", "/1/statuses/user_timeline.json", "alice", 2)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "api.twitter.com", u.Host)
	assert.Equal(t, "/1/statuses/user_timeline.json", u.Path)
	assert.Equal(t, "alice", u.Query().Get("screen_name"))
	assert.Equal(t, "t", u.Query().Get("include_entities"))
	assert.Equal(t, "2", u.Query().Get("page"))
}

func TestSanitizeHandle(t *testing.T) {
	tests := map[string]string{
		"alice":     "alice",
		"@alice":    "alice",
		"  @alice/": "alice",
		"":          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeHandle(in), "input %q", in)
	}
}

func TestIsValidHandle(t *testing.T) {
	assert.True(t, IsValidHandle("alice_01"))
	assert.False(t, IsValidHandle(""))
	assert.False(t, IsValidHandle("alice.smith"))
	assert.False(t, IsValidHandle("alice smith"))
}
