package models

import "time"

type ScoreLabel string

const (
	LabelSafe       ScoreLabel = "safe"
	LabelSuspicious ScoreLabel = "suspicious"
	LabelGhost      ScoreLabel = "ghost"
)

type ScoreColor string

const (
	ColorGreen  ScoreColor = "green"
	ColorYellow ScoreColor = "yellow"
	ColorRed    ScoreColor = "red"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Flag types reported by the scoring backend.
const (
	FlagAge          = "age"
	FlagParity       = "parity"
	FlagSentiment    = "sentiment"
	FlagFinancial    = "financial"
	FlagCompany      = "company"
	FlagCompensation = "compensation"
	FlagStructure    = "structure"
)

// GhostScore is rendered as-is; label and color are owned by the backend.
type GhostScore struct {
	Score int        `json:"score"`
	Label ScoreLabel `json:"label"`
	Color ScoreColor `json:"color"`
}

type RedFlag struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// AnalysisResult is the scored outcome for one job posting.
type AnalysisResult struct {
	JobURL      string     `json:"jobUrl"`
	GhostScore  GhostScore `json:"ghostScore"`
	RedFlags    []RedFlag  `json:"redFlags"`
	AnalyzedAt  string     `json:"analyzedAt"`
	CompanyName string     `json:"companyName"`
	JobTitle    string     `json:"jobTitle"`
}

// AnalyzedTime parses AnalyzedAt, returning the zero time when it is not RFC3339.
func (r AnalysisResult) AnalyzedTime() time.Time {
	ts, err := time.Parse(time.RFC3339Nano, r.AnalyzedAt)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// HistoryEntry is a persisted result with a generated id.
type HistoryEntry struct {
	ID string `json:"id"`
	AnalysisResult
}

func ValidLabel(label ScoreLabel) bool {
	switch label {
	case LabelSafe, LabelSuspicious, LabelGhost:
		return true
	}
	return false
}

func ValidColor(color ScoreColor) bool {
	switch color {
	case ColorGreen, ColorYellow, ColorRed:
		return true
	}
	return false
}

func ValidSeverity(severity Severity) bool {
	switch severity {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}
