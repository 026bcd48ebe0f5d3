package ui

import (
	"fmt"
	"strings"

	"github.com/jimezsa/ghostcli/internal/delivery"
	"github.com/jimezsa/ghostcli/internal/models"
)

// Badge is the one-line score indicator for a page session.
type Badge struct {
	ui    *UI
	board *delivery.Board
}

func NewBadge(u *UI) *Badge {
	return &Badge{ui: u, board: delivery.NewBoard()}
}

func (b *Badge) Show(result models.AnalysisResult) {
	updated := b.board.Put(result)
	line := b.ui.BadgeLine(result)
	if updated {
		line = "updated " + line
	}
	fmt.Fprintln(b.ui.Out, line)
}

func (b *Badge) Clear(jobURL string) {
	b.board.Remove(jobURL)
}

func (b *Badge) Close() {
	b.board.Reset()
}

// Shown returns the results the badge currently displays.
func (b *Badge) Shown() []models.AnalysisResult {
	return b.board.Items()
}

// BadgeLine formats score, label and job as a single line.
func (u *UI) BadgeLine(result models.AnalysisResult) string {
	score := fmt.Sprintf("%3d %-10s", result.GhostScore.Score, strings.ToUpper(string(result.GhostScore.Label)))
	parts := []string{u.Paint(result.GhostScore.Color, score)}
	if job := jobLabel(result); job != "" {
		parts = append(parts, job)
	}
	return strings.Join(parts, " ")
}

func jobLabel(result models.AnalysisResult) string {
	title := strings.TrimSpace(result.JobTitle)
	company := strings.TrimSpace(result.CompanyName)
	switch {
	case title != "" && company != "":
		return title + " @ " + company
	case title != "":
		return title
	case company != "":
		return company
	default:
		return result.JobURL
	}
}
