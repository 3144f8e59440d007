package syncer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"feedjournal/pkg/config"
	errs "feedjournal/pkg/errors"
	"feedjournal/pkg/feed"
	"feedjournal/pkg/logger"
	"feedjournal/pkg/metrics"
	"feedjournal/pkg/paginate"
	"feedjournal/pkg/transform"
	"feedjournal/pkg/ui"
	"feedjournal/pkg/watermark"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	pages  map[int]feed.Page
	errs   map[int]error
	called []int
}

func (f *fakeFetcher) FetchPage(ctx context.Context, handle string, page int) (feed.Page, error) {
	f.called = append(f.called, page)
	if err, ok := f.errs[page]; ok {
		return nil, err
	}
	return f.pages[page], nil
}

type fakeExporter struct {
	texts []string
}

func (f *fakeExporter) Export(ctx context.Context, text, timestamp string) (string, error) {
	f.texts = append(f.texts, text)
	return fmt.Sprintf("New entry : %d.doentry", len(f.texts)), nil
}

type recorder struct {
	runs []metrics.Run
}

func (r *recorder) RecordRun(run metrics.Run) {
	r.runs = append(r.runs, run)
}

// memoryStore counts persist calls so tests can check the value is written once
type memoryStore struct {
	value      int64
	persists   int
	restoreErr error
}

func (m *memoryStore) Restore() (int64, error) {
	return m.value, m.restoreErr
}

func (m *memoryStore) Persist(value int64) error {
	m.persists++
	if value > 0 {
		m.value = value
	}
	return nil
}

func post(id int64, text string) feed.Post {
	return feed.Post{
		ID:        id,
		IDStr:     strconv.FormatInt(id, 10),
		Text:      text,
		CreatedAt: "Wed Aug 29 17:12:58 +0000 2012",
		User:      feed.User{ScreenName: "alice"},
	}
}

type harness struct {
	syncer   *Syncer
	fetcher  *fakeFetcher
	exporter *fakeExporter
	output   *bytes.Buffer
	log      *logger.TestLogger
	recorder *recorder
	now      time.Time
}

func newHarness(t *testing.T, store WatermarkStore, fetcher *fakeFetcher) *harness {
	t.Helper()
	ui.SetColor(false)

	renderer := transform.New("https://twitter.com/#!/", transform.DefaultTimeFormat)
	renderer.Location = time.UTC
	exp := &fakeExporter{}
	log := logger.NewTestLogger()

	engine := paginate.New(fetcher, renderer, exp, 0, log)
	s := New(store, engine, log)

	out := &bytes.Buffer{}
	s.SetConsole(ui.NewConsole(out))
	rec := &recorder{}
	s.SetRecorder(rec)

	now := time.Date(2012, 8, 29, 18, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	return &harness{
		syncer:   s,
		fetcher:  fetcher,
		exporter: exp,
		output:   out,
		log:      log,
		recorder: rec,
		now:      now,
	}
}

func fileStore(t *testing.T, initial int64) (*watermark.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tweets_last_id.txt")
	store := watermark.NewStore(path, logger.NewNopLogger())
	if initial > 0 {
		require.NoError(t, store.Persist(initial))
	}
	return store, path
}

func readWatermark(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunStopsAtWatermarkAndPersistsMaximum(t *testing.T) {
	store, path := fileStore(t, 500)
	h := newHarness(t, store, &fakeFetcher{pages: map[int]feed.Page{
		1: {post(700, "seven hundred"), post(650, "six fifty"), post(500, "old"), post(450, "older")},
	}})

	res, err := h.syncer.Run(context.Background(), "alice", 1)
	require.NoError(t, err)

	assert.Equal(t, paginate.StateDone, res.Outcome.State)
	assert.Equal(t, []string{
		"seven hundred via https://twitter.com/#!/alice/status/700",
		"six fifty via https://twitter.com/#!/alice/status/650",
	}, h.exporter.texts)
	assert.Equal(t, int64(500), res.PreviousWatermark)
	assert.Equal(t, int64(700), res.Watermark)
	assert.Equal(t, "700", readWatermark(t, path))
	assert.Equal(t, []int{1}, h.fetcher.called)

	assert.Contains(t, h.output.String(), "Importing page 1\n")
	assert.Contains(t, h.output.String(), "New entry : 1.doentry\n")
	assert.NotEmpty(t, res.RunID)
}

func TestRunRateLimitedReportsAndKeepsWatermark(t *testing.T) {
	store, path := fileStore(t, 500)
	fetcher := &fakeFetcher{}
	h := newHarness(t, store, fetcher)
	fetcher.errs = map[int]error{1: &errs.RateLimitError{
		Code:  400,
		Limit: 180,
		Reset: h.now.Add(300 * time.Second),
	}}

	res, err := h.syncer.Run(context.Background(), "alice", 1)
	require.NoError(t, err, "rate limiting ends the run normally")

	assert.Equal(t, paginate.StateRateLimited, res.Outcome.State)
	assert.Equal(t, int64(300), res.WaitSeconds)
	assert.Contains(t, h.output.String(), "You are running out of the 180 requests rate limit.")
	assert.Contains(t, h.output.String(), "Try again in 300 seconds.")
	assert.Equal(t, "500", readWatermark(t, path))
	assert.Empty(t, h.exporter.texts)
	assert.True(t, h.log.HasMessage("Feed API rate limit reached, stopping run"))
}

func TestRunRateLimitNotifies(t *testing.T) {
	store := &memoryStore{}
	fetcher := &fakeFetcher{}
	h := newHarness(t, store, fetcher)
	fetcher.errs = map[int]error{1: &errs.RateLimitError{Code: 429, Limit: 150, Reset: h.now.Add(time.Minute)}}

	sender := &fakeSender{}
	h.syncer.SetNotifier(ui.NewNotifierWithSender(sender), true)

	_, err := h.syncer.Run(context.Background(), "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Try again in 60 seconds."}, sender.messages)
}

func TestRunEmptyFirstPage(t *testing.T) {
	store, path := fileStore(t, 500)
	h := newHarness(t, store, &fakeFetcher{})

	res, err := h.syncer.Run(context.Background(), "alice", 1)
	require.NoError(t, err)

	assert.Equal(t, paginate.StateDone, res.Outcome.State)
	assert.Equal(t, int64(500), res.Watermark)
	assert.Equal(t, "500", readWatermark(t, path))
}

func TestRunFirstRunWithoutWatermark(t *testing.T) {
	store, path := fileStore(t, 0)
	h := newHarness(t, store, &fakeFetcher{})

	_, err := h.syncer.Run(context.Background(), "alice", 1)
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing observed, nothing written")
}

func TestRunLaterBeginPageSkipsWatermarkComparison(t *testing.T) {
	store, path := fileStore(t, 1000)
	h := newHarness(t, store, &fakeFetcher{pages: map[int]feed.Page{
		2: {post(300, "older"), post(200, "even older")},
	}})

	res, err := h.syncer.Run(context.Background(), "alice", 2)
	require.NoError(t, err)

	assert.Len(t, h.exporter.texts, 2)
	assert.Equal(t, []int{2, 3}, h.fetcher.called)
	assert.Equal(t, int64(300), res.Watermark)
	assert.Equal(t, "300", readWatermark(t, path))
}

func TestRunIsIdempotent(t *testing.T) {
	store, _ := fileStore(t, 0)
	fetcher := &fakeFetcher{pages: map[int]feed.Page{
		1: {post(42, "answer"), post(41, "question")},
	}}
	h := newHarness(t, store, fetcher)

	first, err := h.syncer.Run(context.Background(), "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Outcome.Exported)

	second, err := h.syncer.Run(context.Background(), "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Outcome.Exported)
	assert.Equal(t, int64(42), second.Watermark)
	assert.Len(t, h.exporter.texts, 2)
}

func TestRunAbortedKeepsPartialProgress(t *testing.T) {
	store, path := fileStore(t, 10)
	h := newHarness(t, store, &fakeFetcher{
		pages: map[int]feed.Page{1: {post(90, "made it")}},
		errs:  map[int]error{2: &errs.Error{Type: errs.ErrorTypeNetwork, Message: "connection reset"}},
	})

	res, err := h.syncer.Run(context.Background(), "alice", 1)
	require.Error(t, err)

	var apiErr *errs.Error
	assert.ErrorAs(t, err, &apiErr)
	require.NotNil(t, res)
	assert.Equal(t, int64(90), res.Watermark)
	assert.Equal(t, "90", readWatermark(t, path))
	assert.True(t, h.log.HasError())

	require.Len(t, h.recorder.runs, 1)
	assert.True(t, h.recorder.runs[0].Failed)
}

func TestRunPersistsOncePerRun(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *fakeFetcher
		wantErr bool
	}{
		{name: "done", fetcher: &fakeFetcher{pages: map[int]feed.Page{1: {post(5, "x")}}}},
		{name: "rate limited", fetcher: &fakeFetcher{errs: map[int]error{1: &errs.RateLimitError{Limit: 1}}}},
		{name: "aborted", fetcher: &fakeFetcher{errs: map[int]error{1: errors.New("boom")}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryStore{}
			h := newHarness(t, store, tt.fetcher)

			_, err := h.syncer.Run(context.Background(), "alice", 1)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, 1, store.persists)
		})
	}
}

func TestRunRestoreFailureIsFatal(t *testing.T) {
	store := &memoryStore{restoreErr: errors.New("permission denied")}
	fetcher := &fakeFetcher{}
	h := newHarness(t, store, fetcher)

	res, err := h.syncer.Run(context.Background(), "alice", 1)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Empty(t, fetcher.called)
	assert.Equal(t, 0, store.persists)
}

func TestRunRejectsBadArguments(t *testing.T) {
	h := newHarness(t, &memoryStore{}, &fakeFetcher{})

	_, err := h.syncer.Run(context.Background(), "not a handle!", 1)
	assert.Error(t, err)

	_, err = h.syncer.Run(context.Background(), "alice", 0)
	assert.Error(t, err)

	assert.Empty(t, h.fetcher.called)
}

func TestRunRecordsMetrics(t *testing.T) {
	h := newHarness(t, &memoryStore{}, &fakeFetcher{pages: map[int]feed.Page{
		1: {post(3, "c"), post(2, "@bob b"), post(1, "a")},
	}})

	_, err := h.syncer.Run(context.Background(), "alice", 1)
	require.NoError(t, err)

	require.Len(t, h.recorder.runs, 1)
	run := h.recorder.runs[0]
	assert.Equal(t, "DONE", run.State)
	assert.Equal(t, 2, run.PagesFetched)
	assert.Equal(t, 3, run.PostsSeen)
	assert.Equal(t, 2, run.Exported)
	assert.Equal(t, 1, run.Replies)
	assert.Equal(t, int64(3), run.Watermark)
	assert.False(t, run.Failed)
}

type fakeSender struct {
	messages []string
}

func (f *fakeSender) Send(title, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

func TestNewFromConfigAgainstFeedServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alice", r.URL.Query().Get("screen_name"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `[
				{"id": 800, "id_str": "800", "text": "look http://t.co/x", "created_at": "Wed Aug 29 17:12:58 +0000 2012",
				 "user": {"screen_name": "alice"}, "entities": {"urls": [{"url": "http://t.co/x", "expanded_url": "https://example.com/x"}]}},
				{"id": 799, "id_str": "799", "text": "@bob yes", "created_at": "Wed Aug 29 17:00:00 +0000 2012",
				 "user": {"screen_name": "alice"}}
			]`)
		default:
			fmt.Fprint(w, `[]`)
		}
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.Feed.BaseURL = server.URL
	cfg.Exporter.Backend = config.BackendStdout
	cfg.Watermark.Path = filepath.Join(t.TempDir(), "Journal.dayone", "tweets_last_id.txt")

	s, err := NewFromConfig(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	var out bytes.Buffer
	s.SetConsole(ui.NewConsole(&out))

	res, err := s.Run(context.Background(), "alice", 1)
	require.NoError(t, err)

	assert.Equal(t, paginate.StateDone, res.Outcome.State)
	assert.Equal(t, 1, res.Outcome.Exported)
	assert.Equal(t, 1, res.Outcome.Replies)
	assert.Equal(t, "800", readWatermark(t, cfg.Watermark.Path))
	assert.Equal(t, "Importing page 1\nImporting page 2\n", out.String())
}

func TestNewFromConfigUnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Exporter.Backend = "evernote"

	_, err := NewFromConfig(cfg, logger.NewNopLogger())
	assert.Error(t, err)
}
