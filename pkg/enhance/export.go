package enhance

import "time"

// Snapshot is the serializable registry state handed to an external
// caller for persistence: per-enhancer enabled/config state and pipeline
// compositions. The registry itself never persists anything.
type Snapshot struct {
	ExportedAt string                   `yaml:"exported_at" json:"exportedAt"`
	Enhancers  map[string]EnhancerState `yaml:"enhancers" json:"enhancers"`
	Pipelines  map[string]PipelineState `yaml:"pipelines" json:"pipelines"`
}

// EnhancerState is one enhancer's restorable state.
type EnhancerState struct {
	Enabled bool           `yaml:"enabled" json:"enabled"`
	Config  map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
}

// PipelineState is one pipeline's restorable composition.
type PipelineState struct {
	Enhancers       []string `yaml:"enhancers" json:"enhancers"`
	Parallel        bool     `yaml:"parallel" json:"parallel"`
	ContinueOnError bool     `yaml:"continue_on_error" json:"continueOnError"`
	TimeoutMs       int64    `yaml:"timeout_ms" json:"timeoutMs"`
}

// Export captures the current enhancer state and pipeline compositions.
func (r *Registry) Export() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := &Snapshot{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Enhancers:  make(map[string]EnhancerState, len(r.enhancers)),
		Pipelines:  make(map[string]PipelineState, len(r.pipelines)),
	}
	for name, reg := range r.enhancers {
		snap.Enhancers[name] = EnhancerState{
			Enabled: reg.Enhancer.Enabled(),
			Config:  reg.Enhancer.Config(),
		}
	}
	for name, p := range r.pipelines {
		opts := p.Options()
		snap.Pipelines[name] = PipelineState{
			Enhancers:       p.EnhancerNames(),
			Parallel:        opts.Parallel,
			ContinueOnError: opts.ContinueOnError,
			TimeoutMs:       opts.Timeout.Milliseconds(),
		}
	}
	return snap
}

// Import restores enhancer enabled/config state and rebuilds the
// snapshot's pipelines. Snapshot entries naming enhancers that are no
// longer registered are skipped; a pipeline referencing an unregistered
// enhancer is a *ConfigError. Pipelines named in the snapshot replace any
// stored pipeline with the same name.
//
// Import is atomic: every pipeline in the snapshot is constructed before
// any state is applied, so a *ConfigError leaves the registry exactly as
// it was.
func (r *Registry) Import(snap *Snapshot) error {
	if snap == nil {
		return configErrorf("import", "", "snapshot is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Build every pipeline first, touching nothing.
	built := make(map[string]*Pipeline, len(snap.Pipelines))
	for name, state := range snap.Pipelines {
		var selected []Enhancer
		if len(state.Enhancers) > 0 {
			for _, en := range state.Enhancers {
				reg, ok := r.enhancers[en]
				if !ok {
					return configErrorf("import", name, "pipeline references enhancer %q which is not registered", en)
				}
				selected = append(selected, reg.Enhancer)
			}
		} else {
			// An empty composition selects the enabled set as it will
			// stand once the snapshot's enhancer state is applied.
			for _, en := range r.order {
				reg := r.enhancers[en]
				enabled := reg.Enhancer.Enabled()
				if st, ok := snap.Enhancers[en]; ok {
					enabled = st.Enabled
				}
				if enabled {
					selected = append(selected, reg.Enhancer)
				}
			}
		}

		p, err := NewPipeline(name, Options{
			Parallel:        state.Parallel,
			ContinueOnError: state.ContinueOnError,
			Timeout:         time.Duration(state.TimeoutMs) * time.Millisecond,
		}, selected...)
		if err != nil {
			return err
		}
		built[name] = p
	}

	// Apply. Nothing below can fail.
	for name, state := range snap.Enhancers {
		reg, ok := r.enhancers[name]
		if !ok {
			continue
		}
		reg.Enhancer.SetEnabled(state.Enabled)
		if len(state.Config) > 0 {
			reg.Enhancer.UpdateConfig(state.Config)
		}
	}
	for name, p := range built {
		r.pipelines[name] = p
	}
	return nil
}
