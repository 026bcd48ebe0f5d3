// Package backend talks to the remote scoring service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jimezsa/ghostcli/internal/models"
)

const (
	// DefaultTimeout bounds one analyze call against one endpoint.
	DefaultTimeout = 20 * time.Second
	// LocalEndpoint is the last-resort address of a locally running backend.
	LocalEndpoint = "http://localhost:8000"

	maxResponseBytes = 1 << 20
	healthTimeout    = 3 * time.Second
)

var (
	ErrEndpointFailed  = errors.New("endpoint failed")
	ErrMalformedResult = errors.New("malformed analysis result")
)

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	URL      string           `json:"url"`
	Metadata models.JobSignal `json:"metadata"`
}

// Client issues analyze calls against one endpoint at a time.
type Client struct {
	http    *http.Client
	timeout time.Duration
}

func NewClient(httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{http: httpClient, timeout: timeout}
}

// Analyze posts signal to base/analyze and returns the decoded result.
// Timeouts, transport errors, non-2xx statuses and malformed bodies are errors.
func (c *Client) Analyze(ctx context.Context, base string, signal models.JobSignal) (models.AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(AnalyzeRequest{URL: signal.URL, Metadata: signal})
	if err != nil {
		return models.AnalysisResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL(base, "/analyze"), bytes.NewReader(body))
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("%w: %s: %v", ErrEndpointFailed, base, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("%w: %s: %v", ErrEndpointFailed, base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return models.AnalysisResult{}, fmt.Errorf("%w: %s: http %d", ErrEndpointFailed, base, resp.StatusCode)
	}

	var result models.AnalysisResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&result); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("%w: %s: %v", ErrMalformedResult, base, err)
	}
	if err := Validate(result); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("%s: %w", base, err)
	}
	if result.RedFlags == nil {
		result.RedFlags = []models.RedFlag{}
	}
	return result, nil
}

// Health reports whether base answers GET /health with a 2xx status.
func (c *Client) Health(ctx context.Context, base string) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL(base, "/health"), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	return nil
}

// Validate checks the fields the client renders.
func Validate(result models.AnalysisResult) error {
	score := result.GhostScore
	if score.Score < 0 || score.Score > 100 {
		return fmt.Errorf("%w: score %d out of range", ErrMalformedResult, score.Score)
	}
	if !models.ValidLabel(score.Label) {
		return fmt.Errorf("%w: label %q", ErrMalformedResult, score.Label)
	}
	if !models.ValidColor(score.Color) {
		return fmt.Errorf("%w: color %q", ErrMalformedResult, score.Color)
	}
	for _, flag := range result.RedFlags {
		if !models.ValidSeverity(flag.Severity) {
			return fmt.Errorf("%w: severity %q", ErrMalformedResult, flag.Severity)
		}
	}
	return nil
}

func endpointURL(base string, path string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/") + path
}
