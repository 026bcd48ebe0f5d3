package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jimezsa/ghostcli/internal/delivery"
	"github.com/jimezsa/ghostcli/internal/driver"
	"github.com/jimezsa/ghostcli/internal/extract"
	"github.com/jimezsa/ghostcli/internal/models"
)

// WatchCmd treats each line of input as the current URL of one page
// session. A changed URL is a navigation: the indicator for the previous
// job is cleared and extraction restarts after the settle delay.
type WatchCmd struct {
	File    string `help:"Read URLs from a file instead of stdin."`
	Details bool   `help:"Show red flags and timestamps."`
	Proxies string `help:"Comma-separated proxy URLs." env:"GHOSTCLI_PROXIES"`

	in      io.Reader                                 `kong:"-"`
	sources func(url string) (extract.Source, error) `kong:"-"`
}

func (w *WatchCmd) Run(ctx *Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	input, closeInput, err := w.input()
	if err != nil {
		return err
	}
	defer closeInput()

	lines := make(chan string)
	go scanLines(runCtx, input, lines)

	first := ""
	for first == "" {
		select {
		case line, ok := <-lines:
			if !ok {
				return fmt.Errorf("no URLs to watch")
			}
			first = line
		case <-runCtx.Done():
			return runCtx.Err()
		}
	}

	p, err := newPipeline(runCtx, ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	origin := "watch-" + uuid.NewString()
	panel := attachSurfaces(ctx, p.hub, origin, w.Details)
	if ctx.JSONOutput || ctx.PlainText {
		p.hub.Attach(origin, delivery.SurfaceStream, &lineSurface{out: ctx.Out, plain: ctx.PlainText})
	}

	sources := w.sources
	if sources == nil {
		sources = httpSources(w.Proxies)
	}
	source, err := sources(first)
	if err != nil {
		return err
	}

	submit := p.submitter(runCtx, origin, nil)
	d := driver.New(source, driver.Options{
		Extractor: extract.NewExtractor(),
		Policy:    driverPolicy(ctx.Config),
		Submit: func(signal models.JobSignal) {
			if panel != nil {
				panel.Track(signal)
			}
			submit(signal)
		},
		Reset: func(previous string) {
			p.hub.Clear(origin, previous)
		},
		Logger: ctx.Logger,
	})
	defer d.Stop()
	d.Start(runCtx)

	nav := driver.NewNavigator(first, func(url string) {
		next, err := sources(url)
		if err != nil {
			ctx.Logger.Warn().Err(err).Str("url", url).Msg("cannot load page")
			return
		}
		d.Rearm(next)
	})
	nav.Follow(runCtx, lines)

	if _, err := d.Wait(runCtx); err != nil {
		return err
	}
	d.Drain()
	return nil
}

func (w *WatchCmd) input() (io.Reader, func(), error) {
	if w.in != nil {
		return w.in, func() {}, nil
	}
	if strings.TrimSpace(w.File) == "" {
		return os.Stdin, func() {}, nil
	}
	file, err := os.Open(w.File)
	if err != nil {
		return nil, nil, err
	}
	return file, func() { _ = file.Close() }, nil
}

func scanLines(ctx context.Context, r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		select {
		case out <- line:
		case <-ctx.Done():
			return
		}
	}
}

// lineSurface prints one JSON object or TSV line per delivered result.
type lineSurface struct {
	mu    sync.Mutex
	out   io.Writer
	plain bool
}

func (l *lineSurface) Show(result models.AnalysisResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.plain {
		_ = writePlainResult(l.out, result)
		return
	}
	_ = json.NewEncoder(l.out).Encode(result)
}

func (l *lineSurface) Clear(string) {}

func (l *lineSurface) Close() {}
