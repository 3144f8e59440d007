package feed

import (
	"net/url"
	"strconv"
	"strings"
)

// TimelineURL builds the request URL for one page of a user's timeline
func TimelineURL(baseURL, timelinePath, handle string, page int) string {
	params := url.Values{}
	params.Set("screen_name", handle)
	params.Set("include_entities", "t")
	params.Set("page", strconv.Itoa(page))

	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(timelinePath, "/") + "?" + params.Encode()
}

// SanitizeHandle strips a leading @ and surrounding whitespace or slashes
func SanitizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	handle = strings.TrimPrefix(handle, "@")
	return strings.TrimRight(handle, "/ ")
}

// IsValidHandle reports whether handle only has the characters screen names allow
func IsValidHandle(handle string) bool {
	if handle == "" || len(handle) > 50 {
		return false
	}
	for _, char := range handle {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_') {
			return false
		}
	}
	return true
}
