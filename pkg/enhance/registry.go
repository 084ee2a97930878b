package enhance

import (
	"sync"
	"time"
)

// Enhancer registration sources.
const (
	SourceManual    = "manual"
	SourceDiscovery = "discovery"
)

// Registration is the record the registry keeps per enhancer.
type Registration struct {
	Enhancer     Enhancer
	Source       string
	RegisteredAt time.Time

	seq int
}

// Filter selects a subset of registered enhancers. Nil/empty fields match
// everything; Tags requires every listed tag to be present.
type Filter struct {
	Enabled *bool
	Tags    []string
	Source  string
}

// Stats summarizes registry contents.
type Stats struct {
	Total     int            `json:"total"`
	Enabled   int            `json:"enabled"`
	Disabled  int            `json:"disabled"`
	BySource  map[string]int `json:"bySource"`
	ByTag     map[string]int `json:"byTag"`
	Pipelines int            `json:"pipelines"`
}

// PipelineOptions configures CreatePipeline. Enhancers lists the subset by
// name; when empty, all currently-enabled enhancers are included in
// registration order. ContinueOnError defaults to true when nil.
type PipelineOptions struct {
	Enhancers       []string
	Parallel        bool
	ContinueOnError *bool
	Timeout         time.Duration
}

// Registry owns named enhancer instances and the pipelines built from
// them. Enhancer instances are created once and live for the process
// lifetime; a pipeline, once built, does not reflect later registry
// changes except enhancer removal, which cascades.
type Registry struct {
	mu        sync.RWMutex
	enhancers map[string]*Registration
	order     []string
	pipelines map[string]*Pipeline
	seq       int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		enhancers: make(map[string]*Registration),
		pipelines: make(map[string]*Pipeline),
	}
}

// Register adds a manually-constructed enhancer. A duplicate name is a
// *ConfigError and leaves the registry unchanged.
func (r *Registry) Register(e Enhancer) error {
	return r.registerAs(e, SourceManual)
}

func (r *Registry) registerAs(e Enhancer, source string) error {
	info := e.Info()
	if info.Name == "" {
		return configErrorf("register", "", "enhancer name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.enhancers[info.Name]; exists {
		return configErrorf("register", info.Name, "already registered")
	}

	r.enhancers[info.Name] = &Registration{
		Enhancer:     e,
		Source:       source,
		RegisteredAt: time.Now().UTC(),
		seq:          r.seq,
	}
	r.order = append(r.order, info.Name)
	r.seq++
	return nil
}

// Unregister removes the named enhancer from the registry and from every
// pipeline that references it.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.enhancers[name]; !exists {
		return configErrorf("unregister", name, "not registered")
	}

	delete(r.enhancers, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	for _, p := range r.pipelines {
		// Pipelines that never contained the enhancer report a ConfigError;
		// that is expected here.
		_ = p.Unregister(name)
	}
	return nil
}

// Get returns the named enhancer.
func (r *Registry) Get(name string) (Enhancer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.enhancers[name]
	if !ok {
		return nil, false
	}
	return reg.Enhancer, true
}

// GetRegistration returns the full registration record for the named
// enhancer.
func (r *Registry) GetRegistration(name string) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.enhancers[name]
	return reg, ok
}

// List returns the enhancers matching the filter, in registration order.
func (r *Registry) List(f Filter) []Enhancer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Enhancer
	for _, name := range r.order {
		reg := r.enhancers[name]
		if f.Source != "" && reg.Source != f.Source {
			continue
		}
		if f.Enabled != nil && reg.Enhancer.Enabled() != *f.Enabled {
			continue
		}
		if !hasAllTags(reg.Enhancer.Info().Tags, f.Tags) {
			continue
		}
		out = append(out, reg.Enhancer)
	}
	return out
}

// CreatePipeline builds and stores a named pipeline over a subset of
// registered enhancers. A duplicate pipeline name or a requested enhancer
// not present in the registry is a *ConfigError raised before anything
// executes; on error no pipeline is stored.
func (r *Registry) CreatePipeline(name string, opts PipelineOptions) (*Pipeline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return nil, configErrorf("create pipeline", "", "pipeline name is required")
	}
	if _, exists := r.pipelines[name]; exists {
		return nil, configErrorf("create pipeline", name, "already exists")
	}

	var selected []Enhancer
	if len(opts.Enhancers) > 0 {
		for _, en := range opts.Enhancers {
			reg, ok := r.enhancers[en]
			if !ok {
				return nil, configErrorf("create pipeline", name, "enhancer %q is not registered", en)
			}
			selected = append(selected, reg.Enhancer)
		}
	} else {
		for _, en := range r.order {
			reg := r.enhancers[en]
			if reg.Enhancer.Enabled() {
				selected = append(selected, reg.Enhancer)
			}
		}
	}

	pipelineOpts := Options{
		Parallel:        opts.Parallel,
		ContinueOnError: true,
		Timeout:         opts.Timeout,
	}
	if opts.ContinueOnError != nil {
		pipelineOpts.ContinueOnError = *opts.ContinueOnError
	}

	p, err := NewPipeline(name, pipelineOpts, selected...)
	if err != nil {
		return nil, err
	}
	r.pipelines[name] = p
	return p, nil
}

// GetPipeline returns the named pipeline.
func (r *Registry) GetPipeline(name string) (*Pipeline, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pipelines[name]
	return p, ok
}

// RemovePipeline deletes the named pipeline. The enhancers it referenced
// stay registered.
func (r *Registry) RemovePipeline(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pipelines[name]; !ok {
		return false
	}
	delete(r.pipelines, name)
	return true
}

// PipelineNames returns the stored pipeline names in no particular order.
func (r *Registry) PipelineNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.pipelines))
	for name := range r.pipelines {
		out = append(out, name)
	}
	return out
}

// GetStats returns counts by source, tag, and enabled state.
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		BySource:  make(map[string]int),
		ByTag:     make(map[string]int),
		Pipelines: len(r.pipelines),
	}
	for _, reg := range r.enhancers {
		stats.Total++
		if reg.Enhancer.Enabled() {
			stats.Enabled++
		} else {
			stats.Disabled++
		}
		stats.BySource[reg.Source]++
		for _, tag := range reg.Enhancer.Info().Tags {
			stats.ByTag[tag]++
		}
	}
	return stats
}

func hasAllTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
