// Package logger provides a structured logging interface for feedjournal.
//
// It wraps zerolog with a small interface so components can take a Logger
// and tests can swap in NewTestLogger or NewNopLogger.
//
//	log := logger.GetLogger().WithField("handle", "alice")
//	log.InfoWithFields("Feed page fetched", map[string]interface{}{
//	    "page":  1,
//	    "posts": 20,
//	})
//
// Console output is written to stderr so that the importer's own progress
// lines on stdout stay clean. Set logging.file to also append to a file.
package logger
