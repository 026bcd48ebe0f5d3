package extract

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// hiddenTags never contribute to visible text.
var hiddenTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"svg":      true,
	"head":     true,
	"template": true,
}

// Page is one rendering of a job page: its address and parsed DOM.
type Page struct {
	URL string
	Doc *goquery.Document
}

func NewPage(rawURL string, r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Page{URL: rawURL, Doc: doc}, nil
}

// EmptyPage stands in for a page whose content could not be loaded.
func EmptyPage(rawURL string) *Page {
	return &Page{URL: rawURL}
}

// Title returns the document's own <title>.
func (p *Page) Title() string {
	if p == nil || p.Doc == nil {
		return ""
	}
	return cleanText(p.Doc.Find("title").First().Text())
}

// VisibleText returns the page's rendered text with whitespace collapsed.
func (p *Page) VisibleText() string {
	if p == nil || p.Doc == nil {
		return ""
	}
	root := p.Doc.Find("body").First()
	if root.Length() == 0 {
		root = p.Doc.Selection
	}
	return selectionText(root)
}

func selectionText(s *goquery.Selection) string {
	var b strings.Builder
	for _, node := range s.Nodes {
		writeText(node, &b)
	}
	return cleanText(b.String())
}

func writeText(node *html.Node, b *strings.Builder) {
	switch node.Type {
	case html.TextNode:
		b.WriteString(node.Data)
		b.WriteByte(' ')
		return
	case html.ElementNode:
		if hiddenTags[node.Data] {
			return
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		writeText(child, b)
	}
}

// clip cuts value to at most max runes.
func clip(value string, max int) string {
	value = strings.TrimSpace(value)
	if max <= 0 || utf8.RuneCountInString(value) <= max {
		return value
	}
	runes := []rune(value)
	return strings.TrimSpace(string(runes[:max]))
}
