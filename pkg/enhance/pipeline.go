package enhance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/slamb2k/glam-mcp-sub003/pkg/response"
)

// DefaultTimeout bounds a single enhancer invocation.
const DefaultTimeout = 5 * time.Second

// Options configures a Pipeline. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// Parallel runs enhancers in dependency waves instead of strictly
	// sequentially.
	Parallel bool

	// ContinueOnError records enhancer failures on the response and keeps
	// going. When false, the first failure aborts the run.
	ContinueOnError bool

	// Timeout bounds each enhancer invocation.
	Timeout time.Duration
}

// DefaultOptions returns the pipeline defaults: sequential execution,
// continue on error, DefaultTimeout per enhancer.
func DefaultOptions() Options {
	return Options{ContinueOnError: true, Timeout: DefaultTimeout}
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Pipeline executes an ordered set of enhancers against one
// response+context pair per Process call. The execution order is resolved
// at construction and registration time; configuration errors never
// surface during Process.
//
// A Pipeline is safe for concurrent Process calls on different responses.
// Calling Process concurrently with the same response instance is not
// supported.
type Pipeline struct {
	name string
	opts Options

	mu      sync.RWMutex
	entries []entry
	order   []entry
	seq     int
}

// NewPipeline constructs a pipeline over the given enhancers. A duplicate
// enhancer name, a dependency on an enhancer outside the set, or a
// dependency cycle is a *ConfigError.
func NewPipeline(name string, opts Options, enhancers ...Enhancer) (*Pipeline, error) {
	p := &Pipeline{name: name, opts: opts.withDefaults()}
	entries := make([]entry, 0, len(enhancers))
	seen := make(map[string]bool, len(enhancers))
	for _, e := range enhancers {
		info := e.Info()
		if info.Name == "" {
			return nil, configErrorf("create pipeline", name, "enhancer name is required")
		}
		if seen[info.Name] {
			return nil, configErrorf("create pipeline", name, "duplicate enhancer %q", info.Name)
		}
		seen[info.Name] = true
		entries = append(entries, entry{enhancer: e, seq: p.seq})
		p.seq++
	}
	order, err := resolveOrder("create pipeline", entries, true)
	if err != nil {
		return nil, err
	}
	p.entries = entries
	p.order = order
	return p, nil
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// Options returns the pipeline's execution options.
func (p *Pipeline) Options() Options { return p.opts }

// Register adds an enhancer and re-resolves the execution order. On any
// *ConfigError the pipeline is left unchanged.
func (p *Pipeline) Register(e Enhancer) error {
	info := e.Info()
	if info.Name == "" {
		return configErrorf("register", "", "enhancer name is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, existing := range p.entries {
		if existing.enhancer.Info().Name == info.Name {
			return configErrorf("register", info.Name, "already present in pipeline %q", p.name)
		}
	}

	candidate := append(append([]entry(nil), p.entries...), entry{enhancer: e, seq: p.seq})
	order, err := resolveOrder("register", candidate, true)
	if err != nil {
		return err
	}

	p.entries = candidate
	p.order = order
	p.seq++
	return nil
}

// Unregister removes the named enhancer and re-resolves the order.
// Dependents of the removed enhancer keep their remaining constraints.
func (p *Pipeline) Unregister(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := -1
	for i, e := range p.entries {
		if e.enhancer.Info().Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return configErrorf("unregister", name, "not present in pipeline %q", p.name)
	}

	remaining := append(append([]entry(nil), p.entries[:idx]...), p.entries[idx+1:]...)
	order, err := resolveOrder("unregister", remaining, false)
	if err != nil {
		return err
	}

	p.entries = remaining
	p.order = order
	return nil
}

// Enhancers returns the enhancers in resolved execution order.
func (p *Pipeline) Enhancers() []Enhancer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Enhancer, len(p.order))
	for i, e := range p.order {
		out[i] = e.enhancer
	}
	return out
}

// EnhancerNames returns the enhancer names in registration order. Used by
// the registry's export snapshot.
func (p *Pipeline) EnhancerNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.enhancer.Info().Name
	}
	return out
}

// Process runs the pipeline against one response+context pair and returns
// the enriched response. The response is exclusively owned by the
// pipeline for the duration of the call.
//
// Disabled enhancers and enhancers whose CanEnhance guard rejects the
// response are skipped; both are evaluated per run, so SetEnabled takes
// effect on the next call without rebuilding the order. Failures are
// recorded on the response and execution continues when ContinueOnError
// is set; otherwise the first failure aborts the run and is returned.
func (p *Pipeline) Process(ctx context.Context, r *response.EnhancedResponse, ec Context) (*response.EnhancedResponse, error) {
	if r == nil {
		return nil, fmt.Errorf("enhance: pipeline %q: response must not be nil", p.name)
	}

	p.mu.RLock()
	order := append([]entry(nil), p.order...)
	p.mu.RUnlock()

	start := time.Now()
	var err error
	if p.opts.Parallel {
		r, err = p.processParallel(ctx, order, r, ec)
	} else {
		r, err = p.processSequential(ctx, order, r, ec)
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	pipelineRuns.WithLabelValues(p.name, status).Inc()
	pipelineDuration.WithLabelValues(p.name).Observe(time.Since(start).Seconds())

	return r, err
}

// processSequential walks the resolved order one enhancer at a time. The
// response returned by each enhancer becomes the running response for the
// next step.
func (p *Pipeline) processSequential(ctx context.Context, order []entry, r *response.EnhancedResponse, ec Context) (*response.EnhancedResponse, error) {
	current := r
	for _, e := range order {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		enh := e.enhancer
		name := enh.Info().Name
		if !enh.Enabled() || !enh.CanEnhance(current) {
			enhancerExecutions.WithLabelValues(name, "skipped").Inc()
			continue
		}

		out, runErr, timedOut := p.runOne(ctx, enh, current, ec)
		if runErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			ee := &EnhancementError{Enhancer: name, TimedOut: timedOut, Err: runErr}
			if !p.opts.ContinueOnError {
				return nil, ee
			}
			current.RecordEnhancementError(name, runErr.Error(), timedOut)
			continue
		}
		if out != nil {
			current = out
		}
	}
	return current, nil
}

// processParallel runs the resolved order in dependency waves. Enhancers
// within a wave run concurrently against the same response; the response's
// internal lock serializes their writes. A wave settles completely, every
// member finishing with success, failure, or timeout, before the next
// wave starts.
func (p *Pipeline) processParallel(ctx context.Context, order []entry, r *response.EnhancedResponse, ec Context) (*response.EnhancedResponse, error) {
	for _, wave := range resolveWaves(order) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		type outcome struct {
			name     string
			err      error
			timedOut bool
		}
		outcomes := make([]outcome, len(wave))

		var wg sync.WaitGroup
		for i, e := range wave {
			enh := e.enhancer
			name := enh.Info().Name
			if !enh.Enabled() || !enh.CanEnhance(r) {
				enhancerExecutions.WithLabelValues(name, "skipped").Inc()
				continue
			}

			wg.Add(1)
			go func(i int, enh Enhancer, name string) {
				defer wg.Done()
				_, runErr, timedOut := p.runOne(ctx, enh, r, ec)
				outcomes[i] = outcome{name: name, err: runErr, timedOut: timedOut}
			}(i, enh, name)
		}
		wg.Wait()

		for _, oc := range outcomes {
			if oc.err == nil {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			ee := &EnhancementError{Enhancer: oc.name, TimedOut: oc.timedOut, Err: oc.err}
			if !p.opts.ContinueOnError {
				return nil, ee
			}
			r.RecordEnhancementError(oc.name, oc.err.Error(), oc.timedOut)
		}
	}
	return r, nil
}

// runOne races a single enhancer invocation against the pipeline timeout.
// On timeout the enhancer's goroutine is abandoned with its context
// cancelled; a cooperative enhancer stops promptly, but one that ignores
// its context may still complete and mutate the response after the
// pipeline has moved on.
func (p *Pipeline) runOne(ctx context.Context, enh Enhancer, r *response.EnhancedResponse, ec Context) (out *response.EnhancedResponse, err error, timedOut bool) {
	name := enh.Info().Name
	start := time.Now()

	ectx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	type result struct {
		resp *response.EnhancedResponse
		err  error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- result{err: fmt.Errorf("enhancer panicked: %v", rec)}
			}
		}()
		resp, enhErr := enh.Enhance(ectx, r, ec)
		done <- result{resp: resp, err: enhErr}
	}()

	select {
	case res := <-done:
		duration := time.Since(start)
		enhancerDuration.WithLabelValues(name).Observe(duration.Seconds())
		if res.err != nil {
			enhancerExecutions.WithLabelValues(name, "error").Inc()
			slog.Warn("enhancer failed",
				"pipeline", p.name,
				"enhancer", name,
				"error", res.err.Error(),
			)
			return nil, res.err, false
		}
		enhancerExecutions.WithLabelValues(name, "success").Inc()
		return res.resp, nil, false

	case <-ectx.Done():
		enhancerDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if ctx.Err() != nil {
			// Parent cancellation, not a per-enhancer timeout.
			enhancerExecutions.WithLabelValues(name, "cancelled").Inc()
			return nil, ctx.Err(), false
		}
		enhancerExecutions.WithLabelValues(name, "timeout").Inc()
		slog.Warn("enhancer timed out",
			"pipeline", p.name,
			"enhancer", name,
			"timeout", p.opts.Timeout,
		)
		return nil, fmt.Errorf("exceeded timeout %v", p.opts.Timeout), true
	}
}
