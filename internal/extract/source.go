package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/jimezsa/ghostcli/internal/network"
)

// Source produces the current rendering of a page. Each call may observe
// more content than the last on pages that render client-side.
type Source interface {
	URL() string
	Load(ctx context.Context) (*Page, error)
}

// HTTPSource fetches the page with a browser-like client on every Load.
type HTTPSource struct {
	client *network.Client
	target string
}

func NewHTTPSource(client *network.Client, target string) *HTTPSource {
	return &HTTPSource{client: client, target: target}
}

func (s *HTTPSource) URL() string {
	return s.target
}

func (s *HTTPSource) Load(ctx context.Context) (*Page, error) {
	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, s.target, nil)
	if err != nil {
		return nil, err
	}

	applyHeaders(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	return NewPage(s.target, resp.Body)
}

func applyHeaders(req *fhttp.Request) {
	req.Header.Set("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("accept-language", "en-US,en;q=0.9")
}

// StaticSource serves a fixed HTML document, e.g. a saved page.
type StaticSource struct {
	target string
	html   string
}

func NewStaticSource(target string, html string) *StaticSource {
	return &StaticSource{target: target, html: html}
}

// NewFileSource reads a saved page from disk.
func NewFileSource(target string, path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page %q: %w", path, err)
	}
	return NewStaticSource(target, string(data)), nil
}

func (s *StaticSource) URL() string {
	return s.target
}

func (s *StaticSource) Load(_ context.Context) (*Page, error) {
	return NewPage(s.target, strings.NewReader(s.html))
}
