package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Rule reads one candidate value from a page. An empty result means the
// rule did not match and the next candidate should be tried.
type Rule func(p *Page) string

// first returns the first non-empty value produced by rules, in order.
func first(p *Page, rules []Rule) string {
	for _, rule := range rules {
		if value := strings.TrimSpace(rule(p)); value != "" {
			return value
		}
	}
	return ""
}

// Text matches the text of the first element selected by selector that has any.
func Text(selector string) Rule {
	return func(p *Page) string {
		if p == nil || p.Doc == nil {
			return ""
		}
		var value string
		p.Doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			value = cleanText(s.Text())
			return value == ""
		})
		return value
	}
}

// Attr matches an attribute of the first element selected by selector.
func Attr(selector, name string) Rule {
	return func(p *Page) string {
		if p == nil || p.Doc == nil {
			return ""
		}
		return cleanText(p.Doc.Find(selector).First().AttrOr(name, ""))
	}
}

// Meta matches <meta property|name=...> content, trying names in order.
func Meta(names ...string) Rule {
	return func(p *Page) string {
		if p == nil || p.Doc == nil {
			return ""
		}
		for _, name := range names {
			selector := "meta[property='" + name + "'], meta[name='" + name + "']"
			if value := cleanText(p.Doc.Find(selector).First().AttrOr("content", "")); value != "" {
				return value
			}
		}
		return ""
	}
}

// Posting fields exposed by JSONLD.
const (
	PostingTitle   = "title"
	PostingCompany = "company"
	PostingPosted  = "datePosted"
)

// JSONLD matches a field of the page's schema.org JobPosting.
func JSONLD(field string) Rule {
	return func(p *Page) string {
		if p == nil {
			return ""
		}
		posting := jobPosting(p.Doc)
		if posting == nil {
			return ""
		}
		switch field {
		case PostingTitle:
			return stringValue(posting["title"], posting["name"])
		case PostingCompany:
			return stringValue(mapValue(posting["hiringOrganization"], "name"), posting["hiringOrganization"])
		default:
			return stringValue(posting[field])
		}
	}
}

// DocumentTitle matches the page's own <title>.
func DocumentTitle() Rule {
	return func(p *Page) string {
		return p.Title()
	}
}

// Map post-processes the value matched by rule.
func Map(rule Rule, fn func(string) string) Rule {
	return func(p *Page) string {
		value := rule(p)
		if value == "" {
			return ""
		}
		return strings.TrimSpace(fn(value))
	}
}

// URLSlug derives a display name from the first capture group of pattern
// applied to the page URL, e.g. a board slug.
func URLSlug(pattern *regexp.Regexp) Rule {
	return func(p *Page) string {
		if p == nil {
			return ""
		}
		parsed, err := url.Parse(p.URL)
		if err != nil {
			return ""
		}
		match := pattern.FindStringSubmatch(strings.ToLower(parsed.Host) + parsed.Path)
		if len(match) < 2 {
			return ""
		}
		return titleCase(strings.NewReplacer("-", " ", "_", " ").Replace(match[1]))
	}
}

func titleCase(value string) string {
	words := strings.Fields(value)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// before keeps the part of value preceding sep, or value when sep is absent.
func before(sep string) func(string) string {
	return func(value string) string {
		if idx := strings.Index(value, sep); idx >= 0 {
			return value[:idx]
		}
		return value
	}
}
