package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jimezsa/ghostcli/internal/delivery"
	"github.com/jimezsa/ghostcli/internal/driver"
	"github.com/jimezsa/ghostcli/internal/extract"
	"github.com/jimezsa/ghostcli/internal/models"
	"github.com/jimezsa/ghostcli/internal/ui"
	"github.com/muesli/termenv"
)

type AnalyzeCmd struct {
	URL     string `arg:"" help:"Job posting URL."`
	HTML    string `help:"Read the page from a local HTML file instead of fetching it."`
	Details bool   `help:"Show red flags and timestamps."`
	Title   string `help:"Manual mode: job title (skips page extraction)."`
	Company string `help:"Manual mode: company name."`
	Text    string `help:"Manual mode: job description text."`
	Proxies string `help:"Comma-separated proxy URLs." env:"GHOSTCLI_PROXIES"`

	sources func(url string) (extract.Source, error) `kong:"-"`
}

func (a *AnalyzeCmd) Run(ctx *Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p, err := newPipeline(runCtx, ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	origin := "analyze-" + uuid.NewString()
	panel := attachSurfaces(ctx, p.hub, origin, a.Details)

	stopIndicator := startIndicator(ctx, "Analyzing")
	defer stopIndicator()

	var (
		mu     sync.Mutex
		result *models.AnalysisResult
	)
	submit := p.submitter(runCtx, origin, func(r models.AnalysisResult) {
		mu.Lock()
		defer mu.Unlock()
		result = &r
	})
	track := func(signal models.JobSignal) {
		stopIndicator()
		if panel != nil {
			panel.Track(signal)
		}
		submit(signal)
	}

	if a.manual() {
		signal, err := a.manualSignal()
		if err != nil {
			return err
		}
		track(signal)
	} else {
		source, err := a.source()
		if err != nil {
			return err
		}
		d := driver.New(source, driver.Options{
			Extractor: extract.NewExtractor(),
			Policy:    driverPolicy(ctx.Config),
			Submit:    track,
			Logger:    ctx.Logger,
		})
		d.Start(runCtx)
		state, err := d.Wait(runCtx)
		if err != nil {
			d.Stop()
			return err
		}
		d.Drain()
		if state != driver.StateSubmitted {
			return fmt.Errorf("%w at %s", errNoJobFound, a.URL)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if result == nil {
		return fmt.Errorf("analysis of %s produced no result", a.URL)
	}
	return writeResult(ctx, *result)
}

func (a *AnalyzeCmd) manual() bool {
	return strings.TrimSpace(a.Title) != "" || strings.TrimSpace(a.Company) != "" || strings.TrimSpace(a.Text) != ""
}

func (a *AnalyzeCmd) manualSignal() (models.JobSignal, error) {
	signal := models.JobSignal{
		URL:      strings.TrimSpace(a.URL),
		Title:    strings.TrimSpace(a.Title),
		Company:  strings.TrimSpace(a.Company),
		RawText:  clipText(strings.TrimSpace(a.Text)),
		Platform: extract.NewExtractor().Detect(a.URL),
	}
	if !signal.Usable() {
		return models.JobSignal{}, fmt.Errorf("manual analysis requires --title or --company")
	}
	return signal, nil
}

func (a *AnalyzeCmd) source() (extract.Source, error) {
	if strings.TrimSpace(a.HTML) != "" {
		return extract.NewFileSource(a.URL, a.HTML)
	}
	sources := a.sources
	if sources == nil {
		sources = httpSources(a.Proxies)
	}
	return sources(a.URL)
}

func clipText(text string) string {
	runes := []rune(text)
	if len(runes) <= models.MaxRawText {
		return text
	}
	return string(runes[:models.MaxRawText])
}

// attachSurfaces registers the terminal surfaces for origin. JSON and plain
// output modes print the returned result instead.
func attachSurfaces(ctx *Context, hub *delivery.Hub, origin string, details bool) *ui.Panel {
	if ctx.JSONOutput || ctx.PlainText || ctx.UI == nil {
		return nil
	}
	if details {
		panel := ui.NewPanel(ctx.UI, time.Now)
		hub.Attach(origin, delivery.SurfacePanel, panel)
		return panel
	}
	hub.Attach(origin, delivery.SurfaceBadge, ui.NewBadge(ctx.UI))
	return nil
}

func writeResult(ctx *Context, result models.AnalysisResult) error {
	switch {
	case ctx.JSONOutput:
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case ctx.PlainText:
		return writePlainResult(ctx.Out, result)
	default:
		return nil
	}
}

func writePlainResult(w io.Writer, result models.AnalysisResult) error {
	line := []string{
		strconv.Itoa(result.GhostScore.Score),
		string(result.GhostScore.Label),
		result.JobTitle,
		result.CompanyName,
		result.JobURL,
	}
	_, err := fmt.Fprintln(w, strings.Join(line, "\t"))
	return err
}

func isTTY(out io.Writer) bool {
	output := termenv.NewOutput(out)
	return output.ColorProfile() != termenv.Ascii
}

// startIndicator draws a spinner on stderr until the returned func is
// called. The stop func is safe to call more than once.
func startIndicator(ctx *Context, label string) func() {
	if ctx == nil || ctx.Err == nil || ctx.UI == nil || ctx.JSONOutput {
		return func() {}
	}
	if !isTTY(ctx.Err) {
		return func() {}
	}

	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		start := time.Now()
		frames := []string{"|", "/", "-", "\\"}
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		index := 0

		for {
			select {
			case <-done:
				fmt.Fprint(ctx.Err, "\r\033[2K")
				return
			case <-ticker.C:
				seconds := int(time.Since(start).Seconds())
				frame := frames[index%len(frames)]
				fmt.Fprintf(ctx.Err, "\r\033[2K%s... %ds %s", label, seconds, frame)
				index++
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-stopped
		})
	}
}
