package extract

import (
	"github.com/jimezsa/ghostcli/internal/models"
)

// Extractor turns a page into a JobSignal by dispatching on platform.
type Extractor struct {
	strategies []Strategy
	fallback   Strategy
}

// NewExtractor returns an extractor that knows every supported platform.
// Platforms are matched in order against the page hostname.
func NewExtractor() *Extractor {
	return &Extractor{
		strategies: []Strategy{
			newLinkedIn(),
			newIndeed(),
			newGreenhouse(),
			newLever(),
		},
		fallback: newGeneric(),
	}
}

// Detect returns the platform serving rawURL.
func (e *Extractor) Detect(rawURL string) models.Platform {
	return e.strategyFor(rawURL).Platform()
}

func (e *Extractor) strategyFor(rawURL string) Strategy {
	host := hostOf(rawURL)
	if host != "" {
		for _, strategy := range e.strategies {
			if strategy.Matches(host) {
				return strategy
			}
		}
	}
	return e.fallback
}

// Extract reads a best-effort signal from the page. It never fails: missing
// data is reported as empty fields.
func (e *Extractor) Extract(p *Page) models.JobSignal {
	if p == nil {
		return models.JobSignal{Platform: models.PlatformUnknown}
	}
	strategy := e.strategyFor(p.URL)
	fields := strategy.Extract(p)

	text := fields.Description
	if text == "" {
		text = p.VisibleText()
	}

	return models.JobSignal{
		URL:        p.URL,
		Title:      fields.Title,
		Company:    fields.Company,
		PostedDate: fields.PostedDate,
		RawText:    clip(text, models.MaxRawText),
		Platform:   strategy.Platform(),
	}
}
