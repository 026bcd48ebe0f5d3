package cmd

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/jimezsa/ghostcli/internal/backend"
	"github.com/jimezsa/ghostcli/internal/cache"
	"github.com/jimezsa/ghostcli/internal/config"
	"github.com/jimezsa/ghostcli/internal/coordinator"
	"github.com/jimezsa/ghostcli/internal/delivery"
	"github.com/jimezsa/ghostcli/internal/driver"
	"github.com/jimezsa/ghostcli/internal/extract"
	"github.com/jimezsa/ghostcli/internal/history"
	"github.com/jimezsa/ghostcli/internal/models"
	"github.com/jimezsa/ghostcli/internal/network"
	"github.com/rs/zerolog"
)

const proxyBanDuration = 10 * time.Minute

// pipeline is the coordination context shared by analyze, watch and serve.
type pipeline struct {
	hub    *delivery.Hub
	store  *history.Store
	scorer *backend.Client
	coord  *coordinator.Coordinator
	router *delivery.Router
	log    zerolog.Logger
	closer io.Closer
}

func newPipeline(ctx context.Context, c *Context) (*pipeline, error) {
	store, closer, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}

	cfg := c.Config
	hub := delivery.NewHub()
	scorer := backend.NewClient(nil, cfg.EndpointTimeout())
	coord := coordinator.New(coordinator.Options{
		Endpoints: cfg.Endpoints,
		Scorer:    scorer,
		Cache:     cache.New(cfg.Freshness(), nil),
		History:   store,
		Publisher: hub,
		Logger:    c.Logger,
	})
	return &pipeline{
		hub:    hub,
		store:  store,
		scorer: scorer,
		coord:  coord,
		router: delivery.NewRouter(coord, hub, c.Logger),
		log:    c.Logger,
		closer: closer,
	}, nil
}

func (p *pipeline) Close() error {
	p.hub.Close()
	p.coord.Reset()
	return p.closer.Close()
}

// submitter sends signals across the delivery channel as ANALYZE_JOB
// envelopes and hands the replies to onResult.
func (p *pipeline) submitter(ctx context.Context, origin string, onResult func(models.AnalysisResult)) func(models.JobSignal) {
	return func(signal models.JobSignal) {
		data, err := delivery.Encode(delivery.AnalyzeJob{Signal: signal})
		if err != nil {
			p.log.Debug().Err(err).Str("url", signal.URL).Msg("failed to encode signal")
			return
		}
		reply := p.router.Handle(ctx, origin, data)
		if res, ok := reply.(delivery.AnalysisResult); ok && onResult != nil {
			onResult(res.Result)
		}
	}
}

func openStore(ctx context.Context, c *Context) (*history.Store, io.Closer, error) {
	cfg := c.Config
	backendStore, closer, err := history.Open(ctx, history.Options{
		Kind:     cfg.HistoryBackend,
		Path:     cfg.ResolveHistoryPath(c.ConfigDir),
		RedisURL: cfg.RedisURL,
	})
	if err != nil {
		return nil, nil, err
	}
	return history.NewStore(backendStore), closer, nil
}

func driverPolicy(cfg config.Config) driver.Policy {
	return driver.Policy{
		MaxAttempts:   cfg.MaxAttempts,
		Step:          cfg.RetryStep(),
		SettleDelay:   cfg.SettleDelay(),
		MinTextLength: cfg.MinTextLength,
	}
}

func newFetchClient(proxiesFlag string) (*network.Client, error) {
	proxies, err := config.LoadProxies(proxiesFlag)
	if err != nil {
		return nil, err
	}

	var rotator *network.Rotator
	if len(proxies) > 0 {
		rotator, err = network.NewRotator(proxies, proxyBanDuration)
		if err != nil {
			return nil, err
		}
	}
	return network.NewClient(rotator, models.FetchConfig{})
}

// httpSources builds page sources lazily so that commands reading local
// files never construct a fetch client.
func httpSources(proxiesFlag string) func(url string) (extract.Source, error) {
	var client *network.Client
	return func(url string) (extract.Source, error) {
		if client == nil {
			var err error
			client, err = newFetchClient(proxiesFlag)
			if err != nil {
				return nil, err
			}
		}
		return extract.NewHTTPSource(client, url), nil
	}
}

var errNoJobFound = errors.New("no job posting found")
