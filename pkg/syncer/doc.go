// Package syncer ties the watermark store, the pagination engine and the
// operator output together into one import run.
//
//	s, err := syncer.NewFromConfig(cfg, log)
//	res, err := s.Run(ctx, "alice", 1)
//
// The watermark is restored before the first fetch and the highest identifier
// seen is persisted once the engine stops, whether it finished, hit the rate
// limit or failed. A failure to restore is fatal and nothing is fetched.
package syncer
