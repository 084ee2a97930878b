package enhance

import (
	"context"
	"sync"

	"github.com/slamb2k/glam-mcp-sub003/pkg/response"
)

// DefaultPriority is assigned when an enhancer declares no priority.
// Higher priorities run earlier among enhancers with no ordering
// constraint between them.
const DefaultPriority = 50

// Info describes an enhancer. Name is required and must be unique within
// a registry; everything else is optional.
type Info struct {
	Name         string
	Description  string
	Version      string
	Priority     int
	Tags         []string
	Dependencies []string
}

// Session identifies the caller's session, when one exists.
type Session struct {
	ID   string
	Data map[string]any
}

// GitContext carries repository state collected at the tool boundary.
type GitContext struct {
	// Repo names the repository, e.g. "acme/widgets" or a local path.
	Repo                  string
	Branch                string
	DefaultBranch         string
	HasUncommittedChanges bool
	ChangedFiles          []string
}

// Source identifies the tool invocation that produced the response.
type Source struct {
	Tool      string
	Version   string
	Component string
}

// Context is the free-form operation context supplied to Process. Every
// field may be absent; enhancers must tolerate any subset being zero.
type Context struct {
	// Operation identifies the triggering action, e.g. "git.commit.success".
	Operation string

	Session *Session
	Git     *GitContext

	// Files lists paths affected by the operation.
	Files []string

	Source *Source

	// OperationStartTime is the operation start in epoch milliseconds,
	// or zero when unknown.
	OperationStartTime int64

	// Extra carries annotations with no dedicated field.
	Extra map[string]any
}

// Enhancer is a pluggable unit that enriches a response with contextual
// data. Implementations embed Base for the bookkeeping methods and
// provide Enhance.
type Enhancer interface {
	// Info returns the enhancer's static description.
	Info() Info

	// Enabled reports whether the enhancer participates in pipeline runs.
	Enabled() bool

	// SetEnabled toggles participation. Takes effect on the next Process
	// call; the pipeline's resolved order is unaffected.
	SetEnabled(enabled bool)

	// CanEnhance reports whether Enhance should run for the given
	// response. The default guard rejects a nil response and a disabled
	// enhancer.
	CanEnhance(r *response.EnhancedResponse) bool

	// Enhance transforms the response and returns it. It must degrade
	// gracefully for ordinary business conditions such as missing
	// optional context, returning the response unchanged; an error is
	// reserved for truly exceptional states. The pipeline invokes it at
	// most once per response per run.
	Enhance(ctx context.Context, r *response.EnhancedResponse, ec Context) (*response.EnhancedResponse, error)

	// UpdateConfig shallow-merges the given options into the enhancer's
	// configuration.
	UpdateConfig(partial map[string]any)

	// Config returns a copy of the current configuration.
	Config() map[string]any
}

// Base provides the bookkeeping half of the Enhancer contract. Concrete
// enhancers embed it and implement Enhance.
type Base struct {
	mu      sync.RWMutex
	info    Info
	enabled bool
	config  map[string]any
}

// NewBase creates a Base from the given info and configuration defaults.
// A zero priority is replaced with DefaultPriority; the enhancer starts
// enabled.
func NewBase(info Info, defaults map[string]any) *Base {
	if info.Priority == 0 {
		info.Priority = DefaultPriority
	}
	cfg := make(map[string]any, len(defaults))
	for k, v := range defaults {
		cfg[k] = v
	}
	return &Base{info: info, enabled: true, config: cfg}
}

// Info returns the enhancer's static description.
func (b *Base) Info() Info { return b.info }

// Enabled reports whether the enhancer participates in pipeline runs.
func (b *Base) Enabled() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.enabled
}

// SetEnabled toggles participation in subsequent pipeline runs.
func (b *Base) SetEnabled(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = enabled
}

// CanEnhance is the default guard: the enhancer must be enabled and the
// response present.
func (b *Base) CanEnhance(r *response.EnhancedResponse) bool {
	return b.Enabled() && r != nil
}

// ComparePriority returns the ordinal difference between this enhancer's
// priority and the other's.
func (b *Base) ComparePriority(other Enhancer) int {
	return b.info.Priority - other.Info().Priority
}

// HasTag reports whether the enhancer carries the given tag.
func (b *Base) HasTag(tag string) bool {
	for _, t := range b.info.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// UpdateConfig shallow-merges partial into the configuration.
func (b *Base) UpdateConfig(partial map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k, v := range partial {
		b.config[k] = v
	}
}

// Config returns a copy of the current configuration.
func (b *Base) Config() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]any, len(b.config))
	for k, v := range b.config {
		out[k] = v
	}
	return out
}

// ConfigInt returns the named option as an int, or def when absent or of
// another type. YAML and JSON decoders produce int or float64.
func (b *Base) ConfigInt(key string, def int) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	switch v := b.config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// ConfigString returns the named option as a string, or def when absent.
func (b *Base) ConfigString(key string, def string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if v, ok := b.config[key].(string); ok {
		return v
	}
	return def
}

// ConfigBool returns the named option as a bool, or def when absent.
func (b *Base) ConfigBool(key string, def bool) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if v, ok := b.config[key].(bool); ok {
		return v
	}
	return def
}
