package extract

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func cleanText(value string) string {
	value = html.UnescapeString(value)
	return strings.Join(strings.Fields(value), " ")
}

// jobPosting returns the first schema.org JobPosting embedded in the page.
func jobPosting(doc *goquery.Document) map[string]any {
	if doc == nil {
		return nil
	}
	var found map[string]any
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}
		data, err := decodeJSONLD(raw)
		if err != nil {
			return true
		}
		found = findJobPosting(data)
		return found == nil
	})
	return found
}

func decodeJSONLD(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "<!--")
	raw = strings.TrimSuffix(raw, "-->")
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, "\u2028", "")
	raw = strings.ReplaceAll(raw, "\u2029", "")

	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, err
	}
	return data, nil
}

func findJobPosting(data any) map[string]any {
	switch value := data.(type) {
	case []any:
		for _, item := range value {
			if posting := findJobPosting(item); posting != nil {
				return posting
			}
		}
	case map[string]any:
		if isJobPosting(value["@type"]) {
			return value
		}
		for _, key := range []string{"@graph", "mainEntity", "itemListElement"} {
			if nested, ok := value[key]; ok {
				if posting := findJobPosting(nested); posting != nil {
					return posting
				}
			}
		}
	}
	return nil
}

func isJobPosting(typ any) bool {
	switch v := typ.(type) {
	case string:
		return strings.EqualFold(v, "JobPosting")
	case []any:
		for _, item := range v {
			if isJobPosting(item) {
				return true
			}
		}
	}
	return false
}

func stringValue(values ...any) string {
	for _, value := range values {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return cleanText(v)
			}
		case float64:
			return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
		case json.Number:
			return v.String()
		case map[string]any:
			if name := stringValue(v["name"]); name != "" {
				return name
			}
		}
	}
	return ""
}

func mapValue(value any, key string) any {
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}
