// Package feed provides a client for the paginated timeline API.
//
// The client fetches one page at a time and classifies failures:
//   - *errors.RateLimitError when the API reports an exhausted quota
//   - *errors.Error for network, status and JSON decoding failures
//
// Example usage:
//
//	client := feed.NewClient(&cfg.Feed, ratelimit.NewPacer(0), log)
//	posts, err := client.FetchPage(ctx, "alice", 1)
//	var rl *errors.RateLimitError
//	if errors.As(err, &rl) {
//	    // stop and report rl.Limit and rl.WaitSeconds(time.Now())
//	}
package feed
