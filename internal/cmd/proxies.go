package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jimezsa/ghostcli/internal/config"
	"github.com/jimezsa/ghostcli/internal/extract"
	"github.com/jimezsa/ghostcli/internal/models"
	"github.com/jimezsa/ghostcli/internal/network"
)

type ProxiesCmd struct {
	Check ProxyCheckCmd `cmd:"" help:"Load a job posting through each proxy and report whether it still extracts."`
}

type ProxyCheckCmd struct {
	Target  string `help:"Job posting URL to load." default:"https://www.linkedin.com/jobs"`
	Timeout int    `help:"Timeout in seconds." default:"15"`
}

// ProxyCheckResult is one proxy's outcome. Extracted reports whether the
// page yielded a title or company through the platform strategy. Banned
// reports whether the response would sideline the proxy during fetching.
type ProxyCheckResult struct {
	Proxy     string          `json:"proxy"`
	Status    string          `json:"status"`
	LatencyMS int64           `json:"latency_ms"`
	Platform  models.Platform `json:"platform"`
	Extracted bool            `json:"extracted"`
	Banned    bool            `json:"banned"`
	Error     string          `json:"error,omitempty"`
}

func (p *ProxyCheckCmd) Run(ctx *Context) error {
	proxies, err := config.LoadProxies("")
	if err != nil {
		return err
	}
	if len(proxies) == 0 {
		return fmt.Errorf("%w: add proxies to %s or set GHOSTCLI_PROXIES", network.ErrNoProxies, config.ProxiesFileName)
	}

	extractor := extract.NewExtractor()
	timeout := time.Duration(p.Timeout) * time.Second
	results := make([]ProxyCheckResult, 0, len(proxies))
	for _, proxy := range proxies {
		result := p.check(extractor, proxy, timeout)
		ctx.Logger.Debug().Str("proxy", proxy).Str("status", result.Status).Bool("extracted", result.Extracted).Msg("proxy checked")
		results = append(results, result)
	}

	return writeProxyResults(ctx, results)
}

func (p *ProxyCheckCmd) check(extractor *extract.Extractor, proxy string, timeout time.Duration) ProxyCheckResult {
	result := ProxyCheckResult{Proxy: proxy, Platform: extractor.Detect(p.Target)}
	fail := func(err error) ProxyCheckResult {
		result.Status = "error"
		result.Error = err.Error()
		return result
	}

	rotator, err := network.NewRotator([]string{proxy}, 5*time.Minute)
	if err != nil {
		return fail(err)
	}
	client, err := network.NewClient(rotator, models.FetchConfig{Timeout: timeout})
	if err != nil {
		return fail(err)
	}

	loadCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	page, err := extract.NewHTTPSource(client, p.Target).Load(loadCtx)
	result.LatencyMS = time.Since(start).Milliseconds()
	result.Banned = rotator.Available() == 0
	if err != nil {
		return fail(err)
	}

	result.Status = "ok"
	result.Extracted = extractor.Extract(page).Usable()
	return result
}

func writeProxyResults(ctx *Context, results []ProxyCheckResult) error {
	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if ctx.PlainText {
		for _, res := range results {
			line := []string{res.Proxy, res.Status, strconv.FormatInt(res.LatencyMS, 10), strconv.FormatBool(res.Extracted), strconv.FormatBool(res.Banned), res.Error}
			fmt.Fprintln(ctx.Out, strings.Join(line, "\t"))
		}
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "proxy\tstatus\tlatency_ms\tplatform\textracted\tbanned\terror")
	for _, res := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%t\t%t\t%s\n", res.Proxy, res.Status, res.LatencyMS, res.Platform, res.Extracted, res.Banned, res.Error)
	}
	return tw.Flush()
}
