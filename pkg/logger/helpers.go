package logger

// LogPageFetched logs the outcome of one feed page request
func LogPageFetched(l Logger, handle string, page, posts int) {
	l.DebugWithFields("Feed page fetched", map[string]interface{}{
		"handle": handle,
		"page":   page,
		"posts":  posts,
	})
}

// LogRateLimit logs a rate limit signal from the feed API
func LogRateLimit(l Logger, handle string, limit int, waitSeconds int64) {
	l.WithFields(map[string]interface{}{
		"handle":       handle,
		"limit":        limit,
		"wait_seconds": waitSeconds,
		"action":       "rate_limited",
	}).Warn("Feed API rate limit reached, stopping run")
}

// LogExport logs a post handed to the note exporter
func LogExport(l Logger, handle string, postID int64, err error) {
	fields := map[string]interface{}{
		"handle":  handle,
		"post_id": postID,
	}
	if err != nil {
		l.WithError(err).ErrorWithFields("Export failed", fields)
		return
	}
	l.DebugWithFields("Post exported", fields)
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
