package models

import "strings"

// Platform identifies the job board a page belongs to.
type Platform string

const (
	PlatformLinkedIn   Platform = "linkedin"
	PlatformIndeed     Platform = "indeed"
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformUnknown    Platform = "unknown"
)

// MaxRawText bounds the visible text sent to the scoring backend.
const MaxRawText = 8000

// JobSignal is the best-effort metadata pulled out of a job page.
type JobSignal struct {
	URL        string   `json:"url"`
	Title      string   `json:"title"`
	Company    string   `json:"company"`
	PostedDate string   `json:"postedDate,omitempty"`
	RawText    string   `json:"rawText"`
	Platform   Platform `json:"platform"`
}

// Usable reports whether the signal carries a title or a company.
func (s JobSignal) Usable() bool {
	return strings.TrimSpace(s.Title) != "" || strings.TrimSpace(s.Company) != ""
}
