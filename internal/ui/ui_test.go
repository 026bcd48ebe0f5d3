package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jimezsa/ghostcli/internal/models"
)

func newTestUI() (*UI, *bytes.Buffer) {
	var out bytes.Buffer
	return New(&out, &bytes.Buffer{}, ColorNever, false), &out
}

func sample(url string, score int) models.AnalysisResult {
	return models.AnalysisResult{
		JobURL:      url,
		GhostScore:  models.GhostScore{Score: score, Label: models.LabelGhost, Color: models.ColorRed},
		RedFlags:    []models.RedFlag{{Type: models.FlagAge, Message: "Posted 90 days ago", Severity: models.SeverityHigh}},
		AnalyzedAt:  "2026-10-16T09:00:00Z",
		CompanyName: "Acme",
		JobTitle:    "SRE",
	}
}

func TestBadgeLine(t *testing.T) {
	u, _ := newTestUI()
	got := u.BadgeLine(sample("https://x.com/1", 85))
	if got != " 85 GHOST      SRE @ Acme" {
		t.Fatalf("unexpected badge line %q", got)
	}

	bare := sample("https://x.com/1", 5)
	bare.JobTitle, bare.CompanyName = "", ""
	if got := u.BadgeLine(bare); !strings.HasSuffix(got, "https://x.com/1") {
		t.Fatalf("expected url when job is unnamed, got %q", got)
	}
}

func TestBadgeUpdatesInPlace(t *testing.T) {
	u, out := newTestUI()
	badge := NewBadge(u)

	badge.Show(sample("https://x.com/1", 40))
	badge.Show(sample("https://x.com/1/", 85))

	shown := badge.Shown()
	if len(shown) != 1 || shown[0].GhostScore.Score != 85 {
		t.Fatalf("expected one updated result, got %+v", shown)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "updated ") {
		t.Fatalf("unexpected badge output %q", out.String())
	}

	badge.Clear("https://x.com/1")
	if len(badge.Shown()) != 0 {
		t.Fatalf("expected cleared badge")
	}
}

func TestPanelDetails(t *testing.T) {
	u, out := newTestUI()
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	panel := NewPanel(u, func() time.Time { return now })

	panel.Track(models.JobSignal{URL: "https://x.com/1", PostedDate: "2026-10-06"})
	panel.Show(sample("https://x.com/1/", 85))

	text := out.String()
	for _, want := range []string{"SRE @ Acme", "posted:   10 days ago", "red flags (1):", "high", "Posted 90 days ago"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in panel output:\n%s", want, text)
		}
	}
}

func TestPanelIgnoresResultsAfterClose(t *testing.T) {
	u, out := newTestUI()
	panel := NewPanel(u, nil)
	panel.Close()
	panel.Show(sample("https://x.com/1", 85))
	if out.Len() != 0 {
		t.Fatalf("expected no output after close, got %q", out.String())
	}
}

func TestPostingAge(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2026-10-16", "today", true},
		{"2026-10-15T08:00:00Z", "1 day ago", true},
		{"2026-09-16", "30 days ago", true},
		{"2026-11-01", "", false},
		{"last week", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := PostingAge(tc.in, now)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("PostingAge(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestPaintHonorsColorMode(t *testing.T) {
	u, _ := newTestUI()
	if got := u.Paint(models.ColorRed, "x"); got != "x" {
		t.Fatalf("expected plain text with color disabled, got %q", got)
	}
	if NormalizeColorMode(" Always ") != ColorAlways || NormalizeColorMode("bogus") != ColorAuto {
		t.Fatalf("unexpected color mode normalization")
	}
}
