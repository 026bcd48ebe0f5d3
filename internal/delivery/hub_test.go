package delivery

import (
	"context"
	"sync"
	"testing"

	"github.com/jimezsa/ghostcli/internal/models"
	"github.com/rs/zerolog"
)

type boardSurface struct {
	board  *Board
	mu     sync.Mutex
	shows  int
	closed int
}

func newBoardSurface() *boardSurface {
	return &boardSurface{board: NewBoard()}
}

func (s *boardSurface) Show(result models.AnalysisResult) {
	s.mu.Lock()
	s.shows++
	s.mu.Unlock()
	s.board.Put(result)
}

func (s *boardSurface) Clear(jobURL string) { s.board.Remove(jobURL) }

func (s *boardSurface) Close() {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	s.board.Reset()
}

func scored(url string, score int) models.AnalysisResult {
	return models.AnalysisResult{
		JobURL:     url,
		GhostScore: models.GhostScore{Score: score, Label: models.LabelSafe, Color: models.ColorGreen},
		RedFlags:   []models.RedFlag{},
	}
}

func TestPublishReachesEverySurfaceOfOrigin(t *testing.T) {
	hub := NewHub()
	badge := newBoardSurface()
	panel := newBoardSurface()
	other := newBoardSurface()
	hub.Attach("tab-1", SurfaceBadge, badge)
	hub.Attach("tab-1", SurfacePanel, panel)
	hub.Attach("tab-2", SurfaceBadge, other)

	if n := hub.Publish("tab-1", scored("https://x.com/job/1", 10)); n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}
	if badge.board.Len() != 1 || panel.board.Len() != 1 {
		t.Fatalf("expected tab-1 surfaces to show the result")
	}
	if other.board.Len() != 0 {
		t.Fatalf("expected tab-2 surface untouched")
	}
}

func TestRepeatedResultUpdatesInPlace(t *testing.T) {
	hub := NewHub()
	badge := newBoardSurface()
	hub.Attach("tab", SurfaceBadge, badge)

	hub.Publish("tab", scored("https://x.com/job/1", 10))
	hub.Publish("tab", scored("https://x.com/job/1/", 75))

	items := badge.board.Items()
	if len(items) != 1 {
		t.Fatalf("expected one displayed result, got %d", len(items))
	}
	if items[0].GhostScore.Score != 75 {
		t.Fatalf("expected updated score 75, got %d", items[0].GhostScore.Score)
	}
}

func TestDetachUnknownSurfaceIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Detach("tab", SurfacePanel)

	badge := newBoardSurface()
	hub.Attach("tab", SurfaceBadge, badge)
	hub.Detach("tab", SurfacePanel)
	if badge.closed != 0 {
		t.Fatalf("expected badge to stay open")
	}
	if hub.Surfaces("tab") != 1 {
		t.Fatalf("expected badge still attached")
	}
}

func TestAttachReplacesAndClosesPrevious(t *testing.T) {
	hub := NewHub()
	first := newBoardSurface()
	second := newBoardSurface()
	hub.Attach("tab", SurfacePanel, first)
	hub.Attach("tab", SurfacePanel, second)

	if first.closed != 1 {
		t.Fatalf("expected replaced surface closed once, got %d", first.closed)
	}
	hub.Publish("tab", scored("https://x.com/a", 1))
	if second.shows != 1 || first.shows != 0 {
		t.Fatalf("expected only the new surface to receive results")
	}
}

func TestClearRemovesIndicator(t *testing.T) {
	hub := NewHub()
	badge := newBoardSurface()
	hub.Attach("tab", SurfaceBadge, badge)
	hub.Publish("tab", scored("https://x.com/job/1", 10))

	hub.Clear("tab", "https://x.com/job/1/")
	if badge.board.Len() != 0 {
		t.Fatalf("expected indicator cleared")
	}
}

func TestStreamDeliversAndCloses(t *testing.T) {
	hub := NewHub()
	stream := NewStream()
	hub.Attach("tab", SurfaceStream, stream)

	hub.Publish("tab", scored("https://x.com/a", 5))
	got := <-stream.Results()
	if got.JobURL != "https://x.com/a" {
		t.Fatalf("unexpected streamed result: %+v", got)
	}

	hub.Detach("tab", SurfaceStream)
	if _, ok := <-stream.Results(); ok {
		t.Fatalf("expected closed results channel")
	}
	select {
	case <-stream.Done():
	default:
		t.Fatalf("expected done closed")
	}
	stream.Show(scored("https://x.com/b", 1))
	stream.Close()
}

func TestStreamDropsOldestWhenFull(t *testing.T) {
	stream := NewStream()
	for i := 0; i < streamBuffer+3; i++ {
		stream.Show(scored("https://x.com/job", i))
	}
	first := <-stream.Results()
	if first.GhostScore.Score != 3 {
		t.Fatalf("expected oldest kept score 3, got %d", first.GhostScore.Score)
	}
}

type fakeAnalyzer struct {
	hub     *Hub
	signals []models.JobSignal
	closed  []models.AnalysisResult
}

func (f *fakeAnalyzer) Analyze(_ context.Context, signal models.JobSignal, origin string) models.AnalysisResult {
	f.signals = append(f.signals, signal)
	result := scored(signal.URL, 42)
	f.hub.Publish(origin, result)
	return result
}

func (f *fakeAnalyzer) RecordClosed(_ context.Context, result models.AnalysisResult) {
	f.closed = append(f.closed, result)
}

func TestRouterAnalyzeJob(t *testing.T) {
	hub := NewHub()
	badge := newBoardSurface()
	hub.Attach("tab", SurfaceBadge, badge)
	analyzer := &fakeAnalyzer{hub: hub}
	router := NewRouter(analyzer, hub, zerolog.Nop())

	data, err := Encode(AnalyzeJob{Signal: models.JobSignal{URL: "https://x.com/job/1", Title: "SRE", Platform: models.PlatformUnknown}})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	reply := router.Handle(context.Background(), "tab", data)
	res, ok := reply.(AnalysisResult)
	if !ok {
		t.Fatalf("expected AnalysisResult reply, got %T", reply)
	}
	if res.Result.GhostScore.Score != 42 {
		t.Fatalf("unexpected reply: %+v", res.Result)
	}
	if len(analyzer.signals) != 1 || badge.shows != 1 {
		t.Fatalf("expected one analyze call and one delivery, got %d/%d", len(analyzer.signals), badge.shows)
	}
}

func TestRouterIgnoresUnknownAndMalformed(t *testing.T) {
	hub := NewHub()
	analyzer := &fakeAnalyzer{hub: hub}
	router := NewRouter(analyzer, hub, zerolog.Nop())

	for _, data := range []string{`{"type":"PING"}`, `garbage`, `{"type":"ANALYZE_JOB","payload":"x"}`} {
		if reply := router.Handle(context.Background(), "tab", []byte(data)); reply != nil {
			t.Fatalf("expected no reply for %s, got %T", data, reply)
		}
	}
	if len(analyzer.signals) != 0 {
		t.Fatalf("expected no analyze calls")
	}
}

func TestRouterCloseSidebarAndClosedListing(t *testing.T) {
	hub := NewHub()
	panel := newBoardSurface()
	analyzer := &fakeAnalyzer{hub: hub}
	router := NewRouter(analyzer, hub, zerolog.Nop())

	if reply := router.Dispatch(context.Background(), "tab", CloseSidebar{}); reply != nil {
		t.Fatalf("expected no reply for unopened panel close")
	}

	hub.Attach("tab", SurfacePanel, panel)
	router.Dispatch(context.Background(), "tab", CloseSidebar{})
	if panel.closed != 1 || hub.Surfaces("tab") != 0 {
		t.Fatalf("expected panel closed and detached")
	}

	router.Dispatch(context.Background(), "tab", ClosedListing{Result: scored("https://x.com/job/9", 88)})
	if len(analyzer.closed) != 1 || analyzer.closed[0].GhostScore.Score != 88 {
		t.Fatalf("expected closed listing recorded, got %+v", analyzer.closed)
	}
}

func TestReleaseKeepsReplacement(t *testing.T) {
	hub := NewHub()
	first := newBoardSurface()
	second := newBoardSurface()
	hub.Attach("tab", SurfacePanel, first)
	hub.Attach("tab", SurfacePanel, second)

	hub.Release("tab", SurfacePanel, first)
	if hub.Surfaces("tab") != 1 || second.closed != 0 {
		t.Fatalf("expected replacement panel to stay attached")
	}

	hub.Release("tab", SurfacePanel, second)
	if hub.Surfaces("tab") != 0 || second.closed != 1 {
		t.Fatalf("expected panel released")
	}
}
