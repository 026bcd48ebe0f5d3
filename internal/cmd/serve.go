package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jimezsa/ghostcli/internal/server"
)

type ServeCmd struct {
	Addr string `help:"Listen address (default from config)." env:"GHOSTCLI_LISTEN_ADDR"`
}

func (s *ServeCmd) Run(ctx *Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(runCtx, ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	probeEndpoints(runCtx, p)
	go p.coord.SweepEvery(runCtx, ctx.Config.Freshness())

	if !ctx.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(server.Options{
		Router:  p.router,
		Hub:     p.hub,
		History: p.store,
		Logger:  ctx.Logger,
	})

	addr := strings.TrimSpace(s.Addr)
	if addr == "" {
		addr = ctx.Config.ListenAddr
	}
	return srv.ListenAndServe(runCtx, addr)
}

// probeEndpoints logs which scoring endpoints answer /health. It never
// changes the endpoint order.
func probeEndpoints(ctx context.Context, p *pipeline) {
	for _, endpoint := range p.coord.Endpoints() {
		if err := p.scorer.Health(ctx, endpoint); err != nil {
			p.log.Warn().Str("endpoint", endpoint).Err(err).Msg("endpoint health check failed")
			continue
		}
		p.log.Info().Str("endpoint", endpoint).Msg("endpoint healthy")
	}
}
