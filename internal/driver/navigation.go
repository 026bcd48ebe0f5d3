package driver

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Navigator detects URL changes on pages that navigate without a reload by
// comparing each observed URL with the last one seen.
type Navigator struct {
	mu       sync.Mutex
	last     string
	onChange func(url string)
}

func NewNavigator(initial string, onChange func(url string)) *Navigator {
	return &Navigator{last: strings.TrimSpace(initial), onChange: onChange}
}

// Observe records url and fires onChange when it differs from the last one.
func (n *Navigator) Observe(url string) bool {
	url = strings.TrimSpace(url)
	if url == "" {
		return false
	}
	n.mu.Lock()
	if url == n.last {
		n.mu.Unlock()
		return false
	}
	n.last = url
	n.mu.Unlock()

	if n.onChange != nil {
		n.onChange(url)
	}
	return true
}

// Last returns the most recently observed URL.
func (n *Navigator) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

// Poll samples current every interval until ctx is done.
func (n *Navigator) Poll(ctx context.Context, interval time.Duration, current func() string) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.Observe(current())
		}
	}
}

// Follow observes every URL received on urls until the channel closes or ctx is done.
func (n *Navigator) Follow(ctx context.Context, urls <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case url, ok := <-urls:
			if !ok {
				return
			}
			n.Observe(url)
		}
	}
}
