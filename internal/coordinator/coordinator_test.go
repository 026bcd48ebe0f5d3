package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jimezsa/ghostcli/internal/backend"
	"github.com/jimezsa/ghostcli/internal/cache"
	"github.com/jimezsa/ghostcli/internal/history"
	"github.com/jimezsa/ghostcli/internal/models"
	"github.com/rs/zerolog"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type scorerFunc func(ctx context.Context, base string, signal models.JobSignal) (models.AnalysisResult, error)

func (f scorerFunc) Analyze(ctx context.Context, base string, signal models.JobSignal) (models.AnalysisResult, error) {
	return f(ctx, base, signal)
}

type publishLog struct {
	mu      sync.Mutex
	results map[string][]models.AnalysisResult
}

func (p *publishLog) Publish(origin string, result models.AnalysisResult) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.results == nil {
		p.results = map[string][]models.AnalysisResult{}
	}
	p.results[origin] = append(p.results[origin], result)
	return 1
}

func (p *publishLog) count(origin string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.results[origin])
}

type fixture struct {
	coord   *Coordinator
	clock   *clock
	store   *history.Store
	pub     *publishLog
	cache   *cache.Cache
	signal  models.JobSignal
	ctx     context.Context
	entries func() []models.HistoryEntry
}

func newFixture(t *testing.T, endpoints []string, scorer Scorer) *fixture {
	t.Helper()
	clk := newClock()
	store := history.NewStore(history.NewMemoryBackend())
	pub := &publishLog{}
	c := cache.New(cache.DefaultFreshness, clk.Now)
	coord := New(Options{
		Endpoints: endpoints,
		Scorer:    scorer,
		Cache:     c,
		History:   store,
		Publisher: pub,
		Now:       clk.Now,
		Logger:    zerolog.Nop(),
	})
	f := &fixture{
		coord: coord,
		clock: clk,
		store: store,
		pub:   pub,
		cache: c,
		ctx:   context.Background(),
		signal: models.JobSignal{
			URL:      "https://boards.greenhouse.io/acme/jobs/1",
			Title:    "Site Reliability Engineer",
			Company:  "Acme",
			RawText:  "Keep things up.",
			Platform: models.PlatformGreenhouse,
		},
	}
	f.entries = func() []models.HistoryEntry {
		entries, err := store.List(context.Background())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		return entries
	}
	return f
}

func ghostResult(url string, analyzedAt string) models.AnalysisResult {
	return models.AnalysisResult{
		JobURL:      url,
		GhostScore:  models.GhostScore{Score: 85, Label: models.LabelGhost, Color: models.ColorRed},
		RedFlags:    []models.RedFlag{{Type: models.FlagAge, Message: "Posted 90 days ago", Severity: models.SeverityHigh}},
		AnalyzedAt:  analyzedAt,
		CompanyName: "Acme",
		JobTitle:    "Site Reliability Engineer",
	}
}

func TestConcurrentCallsShareOneBackendCall(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	scorer := scorerFunc(func(ctx context.Context, base string, signal models.JobSignal) (models.AnalysisResult, error) {
		n := calls.Add(1)
		entered <- struct{}{}
		<-release
		return ghostResult(signal.URL, time.Unix(int64(n), 0).UTC().Format(time.RFC3339)), nil
	})
	f := newFixture(t, []string{"http://primary"}, scorer)

	const callers = 5
	results := make([]models.AnalysisResult, callers)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = f.coord.Analyze(f.ctx, f.signal, "tab-0")
	}()
	<-entered

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			signal := f.signal
			if i%2 == 0 {
				signal.URL += "/"
			}
			results[i] = f.coord.Analyze(f.ctx, signal, "tab-1")
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one backend call, got %d", got)
	}
	for i, r := range results {
		if r.AnalyzedAt != results[0].AnalyzedAt {
			t.Fatalf("caller %d got analyzedAt %q, want %q", i, r.AnalyzedAt, results[0].AnalyzedAt)
		}
	}
	if n := len(f.entries()); n != 1 {
		t.Fatalf("expected one history entry, got %d", n)
	}
	if f.pub.count("tab-0") != 1 || f.pub.count("tab-1") != callers-1 {
		t.Fatalf("expected one delivery per call, got %d and %d", f.pub.count("tab-0"), f.pub.count("tab-1"))
	}
}

func TestCacheServesWithinFreshnessWindow(t *testing.T) {
	var calls atomic.Int32
	f := newFixture(t, []string{"http://primary"}, nil)
	f.coord.scorer = scorerFunc(func(ctx context.Context, base string, signal models.JobSignal) (models.AnalysisResult, error) {
		calls.Add(1)
		return ghostResult(signal.URL, f.clock.Now().Format(time.RFC3339)), nil
	})

	first := f.coord.Analyze(f.ctx, f.signal, "tab")
	f.clock.Advance(29 * time.Minute)
	second := f.coord.Analyze(f.ctx, f.signal, "tab")
	if calls.Load() != 1 {
		t.Fatalf("expected cached second call, got %d backend calls", calls.Load())
	}
	if second.AnalyzedAt != first.AnalyzedAt {
		t.Fatalf("expected cached result, got %q vs %q", second.AnalyzedAt, first.AnalyzedAt)
	}
	if f.pub.count("tab") != 2 {
		t.Fatalf("expected cache hits to be delivered too, got %d", f.pub.count("tab"))
	}

	f.clock.Advance(time.Minute)
	third := f.coord.Analyze(f.ctx, f.signal, "tab")
	if calls.Load() != 2 {
		t.Fatalf("expected refresh after window, got %d backend calls", calls.Load())
	}
	if third.AnalyzedAt == first.AnalyzedAt {
		t.Fatalf("expected a fresh result after the window")
	}
	entries := f.entries()
	if len(entries) != 1 || entries[0].AnalyzedAt != third.AnalyzedAt {
		t.Fatalf("expected rescan to replace the history entry, got %+v", entries)
	}
}

func TestSlowPrimaryFailsOverToSecondary(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer primary.Close()

	var secondaryCalls atomic.Int32
	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondaryCalls.Add(1)
		var req backend.AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ghostResult(req.URL, "2026-10-16T09:00:00Z"))
	}))
	defer secondary.Close()

	transport := &http.Transport{}
	t.Cleanup(transport.CloseIdleConnections)
	scorer := backend.NewClient(&http.Client{Transport: transport}, 50*time.Millisecond)
	f := newFixture(t, []string{primary.URL, secondary.URL}, scorer)

	got := f.coord.Analyze(f.ctx, f.signal, "tab")
	if got.GhostScore != (models.GhostScore{Score: 85, Label: models.LabelGhost, Color: models.ColorRed}) {
		t.Fatalf("unexpected score: %+v", got.GhostScore)
	}
	if secondaryCalls.Load() != 1 {
		t.Fatalf("expected one secondary call, got %d", secondaryCalls.Load())
	}
	if cached, ok := f.cache.Get(models.JobIdentity(f.signal.URL)); !ok || cached.GhostScore.Score != 85 {
		t.Fatalf("expected result cached, got %+v (ok=%v)", cached, ok)
	}
	entries := f.entries()
	if len(entries) != 1 || entries[0].GhostScore.Score != 85 {
		t.Fatalf("expected result persisted, got %+v", entries)
	}
}

func TestAllEndpointsFailingYieldsFallback(t *testing.T) {
	var calls atomic.Int32
	scorer := scorerFunc(func(ctx context.Context, base string, signal models.JobSignal) (models.AnalysisResult, error) {
		calls.Add(1)
		return models.AnalysisResult{}, backend.ErrEndpointFailed
	})
	f := newFixture(t, []string{"http://a", "http://b"}, scorer)

	got := f.coord.Analyze(f.ctx, f.signal, "tab")
	if calls.Load() != 2 {
		t.Fatalf("expected each endpoint tried once, got %d", calls.Load())
	}
	assertFallback(t, got, f.signal)
	if got.AnalyzedAt != "2026-10-16T09:00:00Z" {
		t.Fatalf("unexpected analyzedAt %q", got.AnalyzedAt)
	}
	if _, ok := f.cache.Get(models.JobIdentity(f.signal.URL)); !ok {
		t.Fatalf("expected fallback cached")
	}
	if len(f.entries()) != 1 {
		t.Fatalf("expected fallback persisted")
	}
	if f.pub.count("tab") != 1 {
		t.Fatalf("expected fallback delivered")
	}
}

func TestPanickingScorerYieldsFallback(t *testing.T) {
	scorer := scorerFunc(func(ctx context.Context, base string, signal models.JobSignal) (models.AnalysisResult, error) {
		panic("boom")
	})
	f := newFixture(t, []string{"http://a"}, scorer)

	assertFallback(t, f.coord.Analyze(f.ctx, f.signal, "tab"), f.signal)
}

func TestBackendCallIgnoresCallerCancellation(t *testing.T) {
	scorer := scorerFunc(func(ctx context.Context, base string, signal models.JobSignal) (models.AnalysisResult, error) {
		if err := ctx.Err(); err != nil {
			return models.AnalysisResult{}, err
		}
		return ghostResult(signal.URL, "2026-10-16T09:00:00Z"), nil
	})
	f := newFixture(t, []string{"http://a"}, scorer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := f.coord.Analyze(ctx, f.signal, "tab"); got.GhostScore.Score != 85 {
		t.Fatalf("expected scored result despite cancelled caller, got %+v", got)
	}
}

func TestRecordClosedPersistsWithoutBackend(t *testing.T) {
	var calls atomic.Int32
	scorer := scorerFunc(func(ctx context.Context, base string, signal models.JobSignal) (models.AnalysisResult, error) {
		calls.Add(1)
		return models.AnalysisResult{}, errors.New("unexpected")
	})
	f := newFixture(t, []string{"http://a"}, scorer)

	closed := ghostResult("https://jobs.lever.co/acme/1", "2026-10-15T08:00:00Z")
	closed.RedFlags = nil
	f.coord.RecordClosed(f.ctx, closed)

	if calls.Load() != 0 {
		t.Fatalf("expected no backend call")
	}
	if f.cache.Len() != 0 {
		t.Fatalf("expected cache untouched")
	}
	entries := f.entries()
	if len(entries) != 1 || entries[0].JobURL != closed.JobURL || entries[0].RedFlags == nil {
		t.Fatalf("unexpected history: %+v", entries)
	}
}

func TestResetDropsCache(t *testing.T) {
	var calls atomic.Int32
	scorer := scorerFunc(func(ctx context.Context, base string, signal models.JobSignal) (models.AnalysisResult, error) {
		calls.Add(1)
		return ghostResult(signal.URL, "2026-10-16T09:00:00Z"), nil
	})
	f := newFixture(t, []string{"http://a"}, scorer)

	f.coord.Analyze(f.ctx, f.signal, "tab")
	f.coord.Reset()
	f.coord.Analyze(f.ctx, f.signal, "tab")
	if calls.Load() != 2 {
		t.Fatalf("expected reset to force a new backend call, got %d", calls.Load())
	}
}

func TestSweepDropsStaleResults(t *testing.T) {
	scorer := scorerFunc(func(ctx context.Context, base string, signal models.JobSignal) (models.AnalysisResult, error) {
		return ghostResult(signal.URL, "2026-10-16T09:00:00Z"), nil
	})
	f := newFixture(t, []string{"http://a"}, scorer)

	f.coord.Analyze(f.ctx, f.signal, "tab")
	if removed := f.coord.Sweep(); removed != 0 {
		t.Fatalf("Sweep() on fresh cache = %d, want 0", removed)
	}

	f.clock.Advance(31 * time.Minute)
	if removed := f.coord.Sweep(); removed != 1 {
		t.Fatalf("Sweep() = %d, want 1", removed)
	}
	if f.cache.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", f.cache.Len())
	}
}

func TestSweepEveryStopsWithContext(t *testing.T) {
	f := newFixture(t, []string{"http://a"}, scorerFunc(func(ctx context.Context, base string, signal models.JobSignal) (models.AnalysisResult, error) {
		return ghostResult(signal.URL, "2026-10-16T09:00:00Z"), nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.coord.SweepEvery(ctx, time.Millisecond)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("SweepEvery did not return after cancel")
	}
}

func TestDefaultEndpoints(t *testing.T) {
	coord := New(Options{Logger: zerolog.Nop()})
	got := coord.Endpoints()
	if len(got) != 2 || got[1] != backend.LocalEndpoint {
		t.Fatalf("unexpected default endpoints: %v", got)
	}
}

func assertFallback(t *testing.T, got models.AnalysisResult, signal models.JobSignal) {
	t.Helper()
	if got.GhostScore != (models.GhostScore{Score: 0, Label: models.LabelSafe, Color: models.ColorGreen}) {
		t.Fatalf("expected 0/safe/green, got %+v", got.GhostScore)
	}
	if len(got.RedFlags) != 1 {
		t.Fatalf("expected exactly one flag, got %+v", got.RedFlags)
	}
	if got.RedFlags[0].Type != models.FlagParity || got.RedFlags[0].Severity != models.SeverityLow {
		t.Fatalf("unexpected fallback flag: %+v", got.RedFlags[0])
	}
	if got.JobURL != signal.URL || got.JobTitle != signal.Title || got.CompanyName != signal.Company {
		t.Fatalf("fallback lost signal fields: %+v", got)
	}
}
