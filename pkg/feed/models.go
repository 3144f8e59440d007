package feed

// Post is one record of a user's timeline as returned by the feed API.
// The identifier is decoded straight into an int64; IDStr is kept for URL
// construction because clients in other languages may round the number.
type Post struct {
	ID        int64     `json:"id"`
	IDStr     string    `json:"id_str"`
	Text      string    `json:"text"`
	CreatedAt string    `json:"created_at"`
	User      User      `json:"user"`
	Entities  *Entities `json:"entities,omitempty"`
}

// User is the author of a post
type User struct {
	ScreenName string `json:"screen_name"`
}

// Entities holds metadata extracted from the post body
type Entities struct {
	URLs []URLEntity `json:"urls"`
}

// URLEntity maps a shortened URL in the body to its expanded form
type URLEntity struct {
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
}

// Page is one timeline response, newest post first
type Page []Post
