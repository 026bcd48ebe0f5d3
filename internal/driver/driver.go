// Package driver retries extraction on pages that render late and decides
// when a page is worth submitting for analysis.
package driver

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jimezsa/ghostcli/internal/extract"
	"github.com/jimezsa/ghostcli/internal/models"
	"github.com/rs/zerolog"
)

type State int

const (
	StateIdle State = iota
	StateAttempting
	StateSubmitted
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateSubmitted:
		return "submitted"
	case StateAbandoned:
		return "abandoned"
	default:
		return "idle"
	}
}

// fallbackTitle is used when a page with enough text has no <title> either.
const fallbackTitle = "Untitled job posting"

// Policy bounds the retry loop.
type Policy struct {
	MaxAttempts   int
	Step          time.Duration
	SettleDelay   time.Duration
	MinTextLength int
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   5,
		Step:          time.Second,
		SettleDelay:   1500 * time.Millisecond,
		MinTextLength: 200,
	}
}

// Backoff is the wait after failed attempt n before attempt n+1.
func (p Policy) Backoff(n int) time.Duration {
	return time.Duration(n+1) * p.Step
}

// Extractor reads a signal from a page.
type Extractor interface {
	Extract(p *extract.Page) models.JobSignal
}

// Options wires a Driver to its collaborators.
type Options struct {
	Extractor Extractor
	Scheduler Scheduler
	Policy    Policy
	// Submit receives the one signal produced per arming.
	Submit func(models.JobSignal)
	// Reset is called with the previous URL when the driver is re-armed.
	Reset  func(previousURL string)
	Logger zerolog.Logger
}

// Driver runs the extraction state machine for one page session.
type Driver struct {
	extractor Extractor
	scheduler Scheduler
	policy    Policy
	submit    func(models.JobSignal)
	reset     func(string)
	logger    zerolog.Logger

	mu         sync.Mutex
	ctx        context.Context
	source     extract.Source
	state      State
	attempt    int
	generation uint64
	timer      Timer
	done       chan struct{}
	inflight   sync.WaitGroup
}

func New(source extract.Source, opts Options) *Driver {
	if opts.Scheduler == nil {
		opts.Scheduler = WallClock()
	}
	if opts.Policy.MaxAttempts <= 0 {
		opts.Policy = DefaultPolicy()
	}
	if opts.Extractor == nil {
		opts.Extractor = extract.NewExtractor()
	}
	return &Driver{
		extractor: opts.Extractor,
		scheduler: opts.Scheduler,
		policy:    opts.Policy,
		submit:    opts.Submit,
		reset:     opts.Reset,
		logger:    opts.Logger.With().Str("component", "driver").Logger(),
		ctx:       context.Background(),
		source:    source,
		done:      make(chan struct{}),
	}
}

// Start arms the driver and runs the first attempt immediately.
func (d *Driver) Start(ctx context.Context) {
	d.mu.Lock()
	gen := d.arm(ctx)
	d.mu.Unlock()
	d.run(gen, 0)
}

// Rearm points the driver at a new page after navigation. The previous
// indicator is cleared right away; extraction restarts after the settle delay.
func (d *Driver) Rearm(source extract.Source) {
	d.mu.Lock()
	previous := ""
	if d.source != nil {
		previous = d.source.URL()
	}
	d.source = source
	gen := d.arm(d.ctx)
	d.timer = d.scheduler.AfterFunc(d.policy.SettleDelay, func() { d.run(gen, 0) })
	d.mu.Unlock()

	d.logger.Debug().Str("from", previous).Str("to", source.URL()).Msg("navigation detected")
	if d.reset != nil {
		d.reset(previous)
	}
}

// Stop cancels any scheduled attempt and abandons the current page.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.generation++
	d.stopTimer()
	if d.state == StateAttempting || d.state == StateIdle {
		d.finish(StateAbandoned)
	}
}

// State reports the current state and attempt number.
func (d *Driver) State() (State, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, d.attempt
}

// Wait blocks until the current arming is submitted or abandoned.
func (d *Driver) Wait(ctx context.Context) (State, error) {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()

	select {
	case <-done:
		state, _ := d.State()
		return state, nil
	case <-ctx.Done():
		return StateAttempting, ctx.Err()
	}
}

// Drain blocks until every submitted signal has been handed to Submit and
// the callback has returned.
func (d *Driver) Drain() {
	d.inflight.Wait()
}

// arm resets to ATTEMPTING(0) under a new generation; callers hold mu.
func (d *Driver) arm(ctx context.Context) uint64 {
	if ctx != nil {
		d.ctx = ctx
	}
	d.generation++
	d.stopTimer()
	d.state = StateAttempting
	d.attempt = 0
	select {
	case <-d.done:
		d.done = make(chan struct{})
	default:
	}
	return d.generation
}

func (d *Driver) stopTimer() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Driver) finish(state State) {
	d.state = state
	select {
	case <-d.done:
	default:
		close(d.done)
	}
}

func (d *Driver) current(gen uint64, n int) bool {
	return d.generation == gen && d.state == StateAttempting && d.attempt == n
}

func (d *Driver) run(gen uint64, n int) {
	d.mu.Lock()
	if !d.current(gen, n) {
		d.mu.Unlock()
		return
	}
	ctx, source := d.ctx, d.source
	d.mu.Unlock()

	page, err := source.Load(ctx)
	if err != nil {
		d.logger.Debug().Err(err).Str("url", source.URL()).Int("attempt", n).Msg("page load failed")
		page = extract.EmptyPage(source.URL())
	}
	signal := d.extractor.Extract(page)
	visible := 0
	if n >= d.policy.MaxAttempts-1 {
		visible = utf8.RuneCountInString(page.VisibleText())
	}

	d.mu.Lock()
	if !d.current(gen, n) {
		d.mu.Unlock()
		return
	}

	if signal.Usable() {
		d.inflight.Add(1)
		d.finish(StateSubmitted)
		d.mu.Unlock()
		d.logger.Debug().Str("url", signal.URL).Int("attempt", n).Msg("signal extracted")
		d.deliver(signal)
		return
	}

	if n < d.policy.MaxAttempts-1 {
		d.attempt = n + 1
		d.timer = d.scheduler.AfterFunc(d.policy.Backoff(n), func() { d.run(gen, n+1) })
		d.mu.Unlock()
		d.logger.Debug().Str("url", source.URL()).Int("attempt", n).Msg("no job data yet, retrying")
		return
	}

	// The gate measures the whole page, not the description block in RawText.
	if visible >= d.policy.MinTextLength {
		signal.Title = page.Title()
		if signal.Title == "" {
			signal.Title = fallbackTitle
		}
		d.inflight.Add(1)
		d.finish(StateSubmitted)
		d.mu.Unlock()
		d.logger.Debug().Str("url", signal.URL).Msg("submitting page title as fallback")
		d.deliver(signal)
		return
	}

	d.finish(StateAbandoned)
	d.mu.Unlock()
	d.logger.Debug().Str("url", source.URL()).Msg("no job data found, giving up")
}

func (d *Driver) deliver(signal models.JobSignal) {
	defer d.inflight.Done()
	if d.submit != nil {
		d.submit(signal)
	}
}
