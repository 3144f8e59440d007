package paginate

import (
	"context"
	"errors"
	"fmt"

	errs "feedjournal/pkg/errors"
	"feedjournal/pkg/exporter"
	"feedjournal/pkg/feed"
	"feedjournal/pkg/logger"
	"feedjournal/pkg/transform"
)

// DefaultMaxPages bounds the pages attempted by a single run
const DefaultMaxPages = 200

// State is the engine state. DONE and RATE_LIMITED are terminal.
type State string

const (
	StateFetching    State = "FETCHING"
	StateDone        State = "DONE"
	StateRateLimited State = "RATE_LIMITED"
)

// Step is the result of processing one page
type Step int

const (
	Continue Step = iota
	Done
	RateLimited
)

func (s Step) String() string {
	switch s {
	case Continue:
		return "continue"
	case Done:
		return "done"
	case RateLimited:
		return "rate_limited"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Fetcher returns one page of a handle's posts, newest first
type Fetcher interface {
	FetchPage(ctx context.Context, handle string, page int) (feed.Page, error)
}

// Renderer turns a post into the text and timestamp handed to the exporter
type Renderer interface {
	Render(post feed.Post) (transform.Entry, error)
}

// Observer receives progress while the engine runs
type Observer interface {
	PageStarted(handle string, page int)
	PostExported(entry transform.Entry, output string)
}

// RunContext holds the inputs of one run
type RunContext struct {
	Handle    string
	BeginPage int
	// Watermark is the highest identifier imported by earlier runs
	Watermark int64
}

// IsFirstPage reports whether the run starts at page 1. Only then is the
// watermark compared: later pages cannot be assumed newer than it.
func (rc RunContext) IsFirstPage() bool {
	return rc.BeginPage == 1
}

// Outcome summarizes a run. When Run returns an error, State is still
// FETCHING and the counters reflect the work done before the failure.
type Outcome struct {
	State            State
	MaxID            int64
	LastPage         int
	PagesFetched     int
	PostsSeen        int
	Exported         int
	Replies          int
	WatermarkReached bool
	PageCapReached   bool
	RateLimit        *errs.RateLimitError
}

// Engine fetches pages sequentially and exports every new non-reply post
type Engine struct {
	fetcher  Fetcher
	renderer Renderer
	exporter exporter.Exporter
	observer Observer
	maxPages int
	logger   logger.Logger
}

// New creates an engine. maxPages <= 0 selects DefaultMaxPages.
func New(fetcher Fetcher, renderer Renderer, exp exporter.Exporter, maxPages int, log logger.Logger) *Engine {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Engine{
		fetcher:  fetcher,
		renderer: renderer,
		exporter: exp,
		observer: nopObserver{},
		maxPages: maxPages,
		logger:   log,
	}
}

// SetObserver sets the progress observer
func (e *Engine) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	e.observer = o
}

// Run drives the engine from rc.BeginPage until a terminal state, the page
// cap, or a failure. A rate limit is an outcome, not an error.
func (e *Engine) Run(ctx context.Context, rc RunContext) (Outcome, error) {
	out := Outcome{State: StateFetching}
	if rc.BeginPage < 1 {
		return out, fmt.Errorf("begin page must be at least 1, got %d", rc.BeginPage)
	}

	lastPage := rc.BeginPage + e.maxPages - 1
	for page := rc.BeginPage; page <= lastPage; page++ {
		step, err := e.step(ctx, rc, page, &out)
		if err != nil {
			return out, err
		}

		switch step {
		case Done:
			out.State = StateDone
			return out, nil
		case RateLimited:
			out.State = StateRateLimited
			return out, nil
		}
	}

	e.logger.WarnWithFields("Page limit reached without an end signal", map[string]interface{}{
		"handle":     rc.Handle,
		"begin_page": rc.BeginPage,
		"max_pages":  e.maxPages,
	})
	out.State = StateDone
	out.PageCapReached = true
	return out, nil
}

// step fetches and processes a single page
func (e *Engine) step(ctx context.Context, rc RunContext, page int, out *Outcome) (Step, error) {
	e.observer.PageStarted(rc.Handle, page)
	out.LastPage = page

	posts, err := e.fetcher.FetchPage(ctx, rc.Handle, page)
	if err != nil {
		var rateErr *errs.RateLimitError
		if errors.As(err, &rateErr) {
			out.RateLimit = rateErr
			return RateLimited, nil
		}
		return Continue, fmt.Errorf("fetching page %d: %w", page, err)
	}
	out.PagesFetched++
	logger.LogPageFetched(e.logger, rc.Handle, page, len(posts))

	if len(posts) == 0 {
		return Done, nil
	}

	for _, post := range posts {
		out.PostsSeen++
		if post.ID > out.MaxID {
			out.MaxID = post.ID
		}

		if rc.IsFirstPage() && post.ID <= rc.Watermark {
			e.logger.DebugWithFields("Watermark reached", map[string]interface{}{
				"handle":    rc.Handle,
				"page":      page,
				"post_id":   post.ID,
				"watermark": rc.Watermark,
			})
			out.WatermarkReached = true
			return Done, nil
		}

		if transform.IsReply(post) {
			out.Replies++
			continue
		}

		if err := e.export(ctx, rc.Handle, post, out); err != nil {
			return Continue, err
		}
	}

	return Continue, nil
}

func (e *Engine) export(ctx context.Context, handle string, post feed.Post, out *Outcome) error {
	entry, err := e.renderer.Render(post)
	if err != nil {
		logger.LogExport(e.logger, handle, post.ID, err)
		return fmt.Errorf("rendering post %d: %w", post.ID, err)
	}

	output, err := e.exporter.Export(ctx, entry.Text, entry.Timestamp)
	logger.LogExport(e.logger, handle, post.ID, err)
	if err != nil {
		return fmt.Errorf("exporting post %d: %w", post.ID, err)
	}

	out.Exported++
	e.observer.PostExported(entry, output)
	return nil
}

type nopObserver struct{}

func (nopObserver) PageStarted(string, int)              {}
func (nopObserver) PostExported(transform.Entry, string) {}
