package extract

import (
	"net/url"
	"strings"

	"github.com/jimezsa/ghostcli/internal/models"
)

// Fields is what a strategy reads from a page before it becomes a JobSignal.
type Fields struct {
	Title       string
	Company     string
	PostedDate  string
	Description string
}

// Strategy extracts job fields for one platform.
type Strategy interface {
	Platform() models.Platform
	Matches(host string) bool
	Extract(p *Page) Fields
}

// ruleStrategy tries ordered rules per field; the first non-empty match wins.
type ruleStrategy struct {
	platform    models.Platform
	hosts       []string
	title       []Rule
	company     []Rule
	posted      []Rule
	description []Rule
}

func (s *ruleStrategy) Platform() models.Platform {
	return s.platform
}

func (s *ruleStrategy) Matches(host string) bool {
	for _, suffix := range s.hosts {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

func (s *ruleStrategy) Extract(p *Page) Fields {
	return Fields{
		Title:       first(p, s.title),
		Company:     first(p, s.company),
		PostedDate:  first(p, s.posted),
		Description: first(p, s.description),
	}
}

// hostOf returns the lowercased hostname of rawURL without a www. prefix.
func hostOf(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// minDescription is the shortest description block preferred over full page text.
const minDescription = 100

// Description matches the text of the first selected block long enough to be a job description.
func Description(selectors ...string) Rule {
	return func(p *Page) string {
		if p == nil || p.Doc == nil {
			return ""
		}
		for _, selector := range selectors {
			text := selectionText(p.Doc.Find(selector).First())
			if len(text) > minDescription {
				return text
			}
		}
		return ""
	}
}
