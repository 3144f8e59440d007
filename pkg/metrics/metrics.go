package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives the summary of a finished run
type Recorder interface {
	RecordRun(run Run)
}

// Run is what a single sync run reports
type Run struct {
	Handle       string
	State        string
	PagesFetched int
	PostsSeen    int
	Exported     int
	Replies      int
	Watermark    int64
	Duration     time.Duration
	Failed       bool
}

// Collector keeps run metrics in a prometheus registry
type Collector struct {
	pages     *prometheus.CounterVec
	posts     *prometheus.CounterVec
	exported  *prometheus.CounterVec
	replies   *prometheus.CounterVec
	runs      *prometheus.CounterVec
	watermark *prometheus.GaugeVec
	duration  prometheus.Histogram
	lastRun   *prometheus.GaugeVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedjournal_pages_fetched_total",
			Help: "Feed pages fetched",
		}, []string{"handle"}),
		posts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedjournal_posts_seen_total",
			Help: "Posts read from the feed",
		}, []string{"handle"}),
		exported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedjournal_posts_exported_total",
			Help: "Posts handed to the note exporter",
		}, []string{"handle"}),
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedjournal_replies_skipped_total",
			Help: "Reply posts excluded from export",
		}, []string{"handle"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedjournal_runs_total",
			Help: "Sync runs by final state",
		}, []string{"handle", "state"}),
		watermark: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "feedjournal_watermark",
			Help: "Highest post identifier imported",
		}, []string{"handle"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "feedjournal_run_duration_seconds",
			Help:    "Sync run duration",
			Buckets: prometheus.DefBuckets,
		}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "feedjournal_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}, []string{"handle"}),
	}

	reg.MustRegister(
		c.pages,
		c.posts,
		c.exported,
		c.replies,
		c.runs,
		c.watermark,
		c.duration,
		c.lastRun,
	)

	return c
}

// RecordRun records the counters of a finished run
func (c *Collector) RecordRun(run Run) {
	c.pages.WithLabelValues(run.Handle).Add(float64(run.PagesFetched))
	c.posts.WithLabelValues(run.Handle).Add(float64(run.PostsSeen))
	c.exported.WithLabelValues(run.Handle).Add(float64(run.Exported))
	c.replies.WithLabelValues(run.Handle).Add(float64(run.Replies))

	state := run.State
	if run.Failed {
		state = "FAILED"
	}
	c.runs.WithLabelValues(run.Handle, state).Inc()

	if run.Watermark > 0 {
		c.watermark.WithLabelValues(run.Handle).Set(float64(run.Watermark))
	}
	c.duration.Observe(run.Duration.Seconds())
	c.lastRun.WithLabelValues(run.Handle).SetToCurrentTime()
}

// WriteTextfile writes every metric in g to path in the text exposition
// format, for the node exporter textfile collector
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Nop discards runs
type Nop struct{}

func (Nop) RecordRun(Run) {}
