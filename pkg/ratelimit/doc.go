// Package ratelimit paces requests to the feed API on the client side.
//
// The pacer is a thin wrapper over golang.org/x/time/rate. It only spaces
// requests out; it never retries. When the API itself reports an exhausted
// quota the run stops (see pkg/errors.RateLimitError).
//
// Usage:
//
//	pacer := ratelimit.NewPacer(cfg.Feed.RequestsPerMinute)
//	if err := pacer.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
