// Package coordinator turns job signals into analysis results: it serves
// fresh cached results, coalesces concurrent requests for the same job,
// fails over between scoring endpoints and never returns an error.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jimezsa/ghostcli/internal/backend"
	"github.com/jimezsa/ghostcli/internal/cache"
	"github.com/jimezsa/ghostcli/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultPrimaryEndpoint is the hosted scoring service.
const DefaultPrimaryEndpoint = "https://ghostcli-backend.vercel.app"

// DefaultEndpoints is the endpoint order used when none is configured.
var DefaultEndpoints = []string{DefaultPrimaryEndpoint, backend.LocalEndpoint}

var errNoEndpoints = errors.New("no endpoints configured")

// Scorer calls one scoring endpoint.
type Scorer interface {
	Analyze(ctx context.Context, base string, signal models.JobSignal) (models.AnalysisResult, error)
}

// Publisher fans a result out to the surfaces of a page session.
type Publisher interface {
	Publish(origin string, result models.AnalysisResult) int
}

// Recorder persists results.
type Recorder interface {
	Append(ctx context.Context, result models.AnalysisResult) (models.HistoryEntry, error)
}

type Options struct {
	Endpoints []string
	Scorer    Scorer
	Cache     *cache.Cache
	History   Recorder
	Publisher Publisher
	Now       func() time.Time
	Logger    zerolog.Logger
}

type Coordinator struct {
	endpoints []string
	scorer    Scorer
	cache     *cache.Cache
	history   Recorder
	publisher Publisher
	now       func() time.Time
	log       zerolog.Logger
	pending   singleflight.Group
}

func New(opts Options) *Coordinator {
	endpoints := opts.Endpoints
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	c := opts.Cache
	if c == nil {
		c = cache.New(cache.DefaultFreshness, now)
	}
	scorer := opts.Scorer
	if scorer == nil {
		scorer = backend.NewClient(nil, backend.DefaultTimeout)
	}
	return &Coordinator{
		endpoints: append([]string{}, endpoints...),
		scorer:    scorer,
		cache:     c,
		history:   opts.History,
		publisher: opts.Publisher,
		now:       now,
		log:       opts.Logger.With().Str("component", "coordinator").Logger(),
	}
}

// Analyze returns the result for signal and delivers it to every surface of
// origin. Callers arriving while a request for the same job is in flight
// share that request. The backend round is detached from ctx cancellation.
func (c *Coordinator) Analyze(ctx context.Context, signal models.JobSignal, origin string) models.AnalysisResult {
	key := models.JobIdentity(signal.URL)
	log := c.log.With().Str("job", key).Str("origin", origin).Logger()

	if result, ok := c.cache.Get(key); ok {
		log.Debug().Msg("cache hit")
		c.deliver(origin, result)
		return result
	}

	detached := context.WithoutCancel(ctx)
	v, _, shared := c.pending.Do(key, func() (any, error) {
		if result, ok := c.cache.Get(key); ok {
			return result, nil
		}
		result := c.resolve(detached, signal, log)
		c.cache.Put(key, result)
		c.record(detached, result, log)
		return result, nil
	})

	result := v.(models.AnalysisResult)
	if shared {
		log.Debug().Msg("joined in-flight request")
	}
	c.deliver(origin, result)
	return result
}

// RecordClosed persists a result observed out of band. It does not touch
// the cache or the backend.
func (c *Coordinator) RecordClosed(ctx context.Context, result models.AnalysisResult) {
	if result.RedFlags == nil {
		result.RedFlags = []models.RedFlag{}
	}
	c.record(context.WithoutCancel(ctx), result, c.log.With().Str("job", models.JobIdentity(result.JobURL)).Logger())
}

// Reset drops all cached results.
func (c *Coordinator) Reset() {
	c.cache.Reset()
}

// Sweep drops cached results that have left the freshness window.
func (c *Coordinator) Sweep() int {
	removed := c.cache.Purge()
	if removed > 0 {
		c.log.Debug().Int("removed", removed).Msg("swept stale results")
	}
	return removed
}

// SweepEvery runs Sweep on interval until ctx is done.
func (c *Coordinator) SweepEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Endpoints returns the configured endpoint order.
func (c *Coordinator) Endpoints() []string {
	return append([]string{}, c.endpoints...)
}

// resolve tries each endpoint once, in order, and synthesizes a fallback
// result when none answers. Panics are recovered into the fallback.
func (c *Coordinator) resolve(ctx context.Context, signal models.JobSignal, log zerolog.Logger) (result models.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("analysis panicked")
			result = Fallback(signal, c.now(), fmt.Errorf("panic: %v", r))
		}
	}()

	lastErr := errNoEndpoints
	for _, endpoint := range c.endpoints {
		res, err := c.scorer.Analyze(ctx, endpoint, signal)
		if err == nil {
			log.Info().Str("endpoint", endpoint).Int("score", res.GhostScore.Score).Str("label", string(res.GhostScore.Label)).Msg("analysis complete")
			return res
		}
		lastErr = err
		log.Warn().Str("endpoint", endpoint).Err(err).Msg("endpoint failed")
	}

	log.Warn().Err(lastErr).Msg("all endpoints failed, using fallback result")
	return Fallback(signal, c.now(), lastErr)
}

func (c *Coordinator) record(ctx context.Context, result models.AnalysisResult, log zerolog.Logger) {
	if c.history == nil {
		return
	}
	if _, err := c.history.Append(ctx, result); err != nil {
		log.Warn().Err(err).Msg("history append failed")
	}
}

func (c *Coordinator) deliver(origin string, result models.AnalysisResult) {
	if c.publisher == nil || origin == "" {
		return
	}
	c.publisher.Publish(origin, result)
}

// Fallback is the neutral result reported when no endpoint could score
// signal.
func Fallback(signal models.JobSignal, now time.Time, cause error) models.AnalysisResult {
	message := "Analysis service unreachable; score not available."
	if cause != nil {
		message = fmt.Sprintf("Analysis service unreachable: %v", cause)
	}
	return models.AnalysisResult{
		JobURL: signal.URL,
		GhostScore: models.GhostScore{
			Score: 0,
			Label: models.LabelSafe,
			Color: models.ColorGreen,
		},
		RedFlags: []models.RedFlag{{
			Type:     models.FlagParity,
			Message:  message,
			Severity: models.SeverityLow,
		}},
		AnalyzedAt:  now.UTC().Format(time.RFC3339),
		CompanyName: signal.Company,
		JobTitle:    signal.Title,
	}
}
