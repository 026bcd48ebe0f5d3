package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jimezsa/ghostcli/internal/delivery"
	"github.com/jimezsa/ghostcli/internal/models"
)

var severityColors = map[models.Severity]models.ScoreColor{
	models.SeverityHigh:   models.ColorRed,
	models.SeverityMedium: models.ColorYellow,
	models.SeverityLow:    models.ColorGreen,
}

// Panel renders the detailed view of a result: flags, timestamps and the
// posting age when the page exposed a posted date.
type Panel struct {
	ui    *UI
	board *delivery.Board
	now   func() time.Time

	mu     sync.Mutex
	posted map[string]string
	closed bool
}

func NewPanel(u *UI, now func() time.Time) *Panel {
	if now == nil {
		now = time.Now
	}
	return &Panel{
		ui:     u,
		board:  delivery.NewBoard(),
		now:    now,
		posted: map[string]string{},
	}
}

// Track remembers the posted date of a submitted signal.
func (p *Panel) Track(signal models.JobSignal) {
	if strings.TrimSpace(signal.PostedDate) == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posted[models.JobIdentity(signal.URL)] = signal.PostedDate
}

func (p *Panel) Show(result models.AnalysisResult) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	posted := p.posted[models.JobIdentity(result.JobURL)]
	p.mu.Unlock()

	p.board.Put(result)
	p.ui.WriteDetails(p.ui.Out, result, posted, p.now())
}

func (p *Panel) Clear(jobURL string) {
	p.board.Remove(jobURL)
}

func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.board.Reset()
}

// WriteDetails prints the full breakdown of result.
func (u *UI) WriteDetails(w io.Writer, result models.AnalysisResult, postedDate string, now time.Time) {
	fmt.Fprintln(w, u.BadgeLine(result))
	fmt.Fprintf(w, "  url:      %s\n", u.LinkText(result.JobURL))
	if age, ok := PostingAge(postedDate, now); ok {
		fmt.Fprintf(w, "  posted:   %s\n", age)
	}
	if at := result.AnalyzedTime(); !at.IsZero() {
		fmt.Fprintf(w, "  analyzed: %s\n", at.Local().Format("2006-01-02 15:04"))
	}
	if len(result.RedFlags) == 0 {
		fmt.Fprintln(w, "  no red flags")
		return
	}
	fmt.Fprintf(w, "  red flags (%d):\n", len(result.RedFlags))
	for _, flag := range result.RedFlags {
		severity := u.Paint(severityColors[flag.Severity], fmt.Sprintf("%-6s", flag.Severity))
		fmt.Fprintf(w, "    %s %-12s %s\n", severity, flag.Type, flag.Message)
	}
}

// PostingAge describes how long ago postedDate was, accepting RFC3339 and
// plain dates.
func PostingAge(postedDate string, now time.Time) (string, bool) {
	postedDate = strings.TrimSpace(postedDate)
	if postedDate == "" {
		return "", false
	}
	posted, err := time.Parse(time.RFC3339, postedDate)
	if err != nil {
		posted, err = time.Parse("2006-01-02", postedDate)
		if err != nil {
			return "", false
		}
	}

	days := int(now.Sub(posted).Hours() / 24)
	switch {
	case days < 0:
		return "", false
	case days == 0:
		return "today", true
	case days == 1:
		return "1 day ago", true
	default:
		return fmt.Sprintf("%d days ago", days), true
	}
}
