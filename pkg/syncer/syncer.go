package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"feedjournal/pkg/config"
	"feedjournal/pkg/exporter"
	"feedjournal/pkg/feed"
	"feedjournal/pkg/logger"
	"feedjournal/pkg/metrics"
	"feedjournal/pkg/paginate"
	"feedjournal/pkg/ratelimit"
	"feedjournal/pkg/transform"
	"feedjournal/pkg/ui"
	"feedjournal/pkg/watermark"
)

// WatermarkStore restores and persists the highest imported identifier
type WatermarkStore interface {
	Restore() (int64, error)
	Persist(value int64) error
}

// Result describes a finished run
type Result struct {
	RunID     string
	Handle    string
	BeginPage int
	Outcome   paginate.Outcome
	// PreviousWatermark is the value restored at start, Watermark the one on disk afterwards
	PreviousWatermark int64
	Watermark         int64
	// WaitSeconds is set when the run ended rate limited
	WaitSeconds int64
	Duration    time.Duration
}

// Syncer runs one incremental import of a handle's posts
type Syncer struct {
	store             WatermarkStore
	engine            *paginate.Engine
	console           *ui.Console
	notifier          *ui.Notifier
	notifyOnRateLimit bool
	recorder          metrics.Recorder
	logger            logger.Logger
	now               func() time.Time
}

// New creates a Syncer around an already configured engine
func New(store WatermarkStore, engine *paginate.Engine, log logger.Logger) *Syncer {
	if log == nil {
		log = logger.GetLogger()
	}
	s := &Syncer{
		store:    store,
		engine:   engine,
		recorder: metrics.Nop{},
		logger:   log,
		now:      time.Now,
	}
	s.SetConsole(ui.NewConsole(os.Stdout))
	return s
}

// NewFromConfig wires the feed client, transformer, exporter and watermark
// store described by cfg
func NewFromConfig(cfg *config.Config, log logger.Logger) (*Syncer, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	pacer := ratelimit.NewPacer(cfg.Feed.RequestsPerMinute)
	client := feed.NewClient(&cfg.Feed, pacer, log)
	renderer := transform.New(cfg.Feed.PermalinkBase, cfg.Exporter.TimeFormat)

	exp, err := exporter.New(&cfg.Exporter, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	engine := paginate.New(client, renderer, exp, cfg.Feed.MaxPages, log)
	store := watermark.NewStore(cfg.Watermark.Path, log)

	s := New(store, engine, log)
	s.SetNotifier(ui.NewNotifier(cfg.Notifications.Enabled), cfg.Notifications.OnRateLimit)
	return s, nil
}

// SetConsole sets where progress is printed
func (s *Syncer) SetConsole(c *ui.Console) {
	s.console = c
	s.engine.SetObserver(consoleObserver{console: c})
}

// SetNotifier sets the desktop notifier used when the run is rate limited
func (s *Syncer) SetNotifier(n *ui.Notifier, onRateLimit bool) {
	s.notifier = n
	s.notifyOnRateLimit = onRateLimit
}

// SetRecorder sets the metrics recorder
func (s *Syncer) SetRecorder(r metrics.Recorder) {
	if r == nil {
		r = metrics.Nop{}
	}
	s.recorder = r
}

// Run imports the handle's new posts starting at beginPage. A rate limit
// ends the run without error. The running maximum is persisted on every
// path once the watermark has been restored, including when the import
// fails part way.
func (s *Syncer) Run(ctx context.Context, handle string, beginPage int) (*Result, error) {
	if !feed.IsValidHandle(handle) {
		return nil, fmt.Errorf("invalid handle %q", handle)
	}
	if beginPage < 1 {
		return nil, fmt.Errorf("page must be at least 1, got %d", beginPage)
	}

	res := &Result{
		RunID:     uuid.NewString(),
		Handle:    handle,
		BeginPage: beginPage,
	}
	log := s.logger.WithFields(map[string]interface{}{
		"run_id": res.RunID,
		"handle": handle,
	})
	started := s.now()

	previous, err := s.store.Restore()
	if err != nil {
		log.WithError(err).Error("Failed to restore watermark")
		return nil, fmt.Errorf("failed to restore watermark: %w", err)
	}
	res.PreviousWatermark = previous
	res.Watermark = previous

	log.InfoWithFields("Starting import", map[string]interface{}{
		"begin_page": beginPage,
		"watermark":  previous,
	})

	outcome, runErr := s.engine.Run(ctx, paginate.RunContext{
		Handle:    handle,
		BeginPage: beginPage,
		Watermark: previous,
	})
	res.Outcome = outcome

	persistErr := s.store.Persist(outcome.MaxID)
	if persistErr != nil {
		log.WithError(persistErr).Error("Failed to persist watermark")
	} else if outcome.MaxID > 0 {
		res.Watermark = outcome.MaxID
	}

	if outcome.State == paginate.StateRateLimited && outcome.RateLimit != nil {
		s.reportRateLimit(log, handle, res)
	}

	if runErr != nil {
		log.WithError(runErr).ErrorWithFields("Import aborted", map[string]interface{}{
			"page":      outcome.LastPage,
			"exported":  outcome.Exported,
			"watermark": res.Watermark,
		})
	}

	res.Duration = s.now().Sub(started)
	s.recorder.RecordRun(metrics.Run{
		Handle:       handle,
		State:        string(outcome.State),
		PagesFetched: outcome.PagesFetched,
		PostsSeen:    outcome.PostsSeen,
		Exported:     outcome.Exported,
		Replies:      outcome.Replies,
		Watermark:    res.Watermark,
		Duration:     res.Duration,
		Failed:       runErr != nil || persistErr != nil,
	})

	log.InfoWithFields("Import finished", map[string]interface{}{
		"state":              outcome.State,
		"pages":              outcome.PagesFetched,
		"posts":              outcome.PostsSeen,
		"exported":           outcome.Exported,
		"replies":            outcome.Replies,
		"watermark_previous": previous,
		"watermark":          res.Watermark,
		"duration":           res.Duration.String(),
	})

	if persistErr != nil {
		persistErr = fmt.Errorf("failed to persist watermark: %w", persistErr)
	}
	if err := errors.Join(runErr, persistErr); err != nil {
		return res, err
	}
	return res, nil
}

func (s *Syncer) reportRateLimit(log logger.Logger, handle string, res *Result) {
	rl := res.Outcome.RateLimit
	res.WaitSeconds = rl.WaitSeconds(s.now())

	logger.LogRateLimit(log, handle, rl.Limit, res.WaitSeconds)
	s.console.RateLimited(rl.Limit, res.WaitSeconds)

	if s.notifyOnRateLimit {
		msg := fmt.Sprintf("Try again in %d seconds.", res.WaitSeconds)
		if err := s.notifier.SendNotification("feedjournal: rate limited", msg); err != nil {
			log.WithError(err).Debug("Desktop notification failed")
		}
	}
}

// consoleObserver forwards engine progress to the console
type consoleObserver struct {
	console *ui.Console
}

func (o consoleObserver) PageStarted(handle string, page int) {
	o.console.PageStarted(handle, page)
}

func (o consoleObserver) PostExported(entry transform.Entry, output string) {
	o.console.PostExported(output)
}
