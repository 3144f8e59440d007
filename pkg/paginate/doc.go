// Package paginate implements the page-by-page import loop.
//
// The engine starts in FETCHING at the begin page and processes one page per
// step. Each step returns Continue, Done or RateLimited:
//
//	FETCHING --non-empty page--> FETCHING (next page)
//	FETCHING --empty page------> DONE
//	FETCHING --watermark hit---> DONE (first-page runs only)
//	FETCHING --rate limit------> RATE_LIMITED
//
// The running maximum identifier is updated before the watermark check and
// before the reply filter, so replies and the post that hits the watermark
// still count. Runs are bounded by a page cap.
package paginate
