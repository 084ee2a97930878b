package response

import (
	"encoding/json"
	"sync"
	"time"
)

// Version is the glam release version stamped into response metadata.
// Set at build time via ldflags.
var Version = "dev"

// MetadataErrorsKey is the metadata key under which pipeline failures are
// recorded when a pipeline runs with ContinueOnError.
const MetadataErrorsKey = "enhancementErrors"

// Status represents the overall outcome of a tool operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusWarning Status = "warning"
	StatusInfo    Status = "info"
)

// Suggestion is a recommended follow-up action attached by an enhancer.
// Entries are append-only; Timestamp is assigned at append time.
type Suggestion struct {
	Action      string `json:"action"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Timestamp   string `json:"timestamp"`
}

// Risk is a detected hazard attached by an enhancer. Entries are
// append-only; Timestamp is assigned at append time.
type Risk struct {
	Level       RiskLevel `json:"level"`
	Description string    `json:"description"`
	Mitigation  string    `json:"mitigation"`
	Timestamp   string    `json:"timestamp"`
}

// EnhancementError records one enhancer failure during a pipeline run.
type EnhancementError struct {
	Enhancer string `json:"enhancer"`
	Error    string `json:"error"`
	TimedOut bool   `json:"timedOut,omitempty"`
}

// EnhancedResponse accumulates an operation's outcome plus annotations.
// A response is created once per operation, exclusively owned by a
// pipeline for the duration of one Process call, and then handed back to
// the caller. Calling Process twice concurrently on the same instance is
// not supported; pipelines processing different instances are independent.
type EnhancedResponse struct {
	mu sync.Mutex

	id           string
	status       Status
	message      string
	data         any
	context      map[string]any
	metadata     map[string]any
	suggestions  []Suggestion
	risks        []Risk
	teamActivity any
}

// New creates a response with the given status and message. Metadata always
// carries timestamp and version at construction.
func New(status Status, message string) *EnhancedResponse {
	return &EnhancedResponse{
		id:      NewID(),
		status:  status,
		message: message,
		context: map[string]any{},
		metadata: map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   Version,
		},
	}
}

// Success creates a success response.
func Success(message string) *EnhancedResponse { return New(StatusSuccess, message) }

// Error creates an error response.
func Error(message string) *EnhancedResponse { return New(StatusError, message) }

// Warning creates a warning response.
func Warning(message string) *EnhancedResponse { return New(StatusWarning, message) }

// Info creates an info response.
func Info(message string) *EnhancedResponse { return New(StatusInfo, message) }

// ID returns the response identifier.
func (r *EnhancedResponse) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

// Status returns the response status.
func (r *EnhancedResponse) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Message returns the response message.
func (r *EnhancedResponse) Message() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.message
}

// Data returns the opaque payload, which may be nil.
func (r *EnhancedResponse) Data() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data
}

// SetData replaces the opaque payload. The payload is never inspected or
// sanitized by this package.
func (r *EnhancedResponse) SetData(data any) *EnhancedResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = data
	return r
}

// AddContext merges a caller- or enhancer-supplied annotation into the
// context map. Last write wins on key collision.
func (r *EnhancedResponse) AddContext(key string, value any) *EnhancedResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.context[key] = value
	return r
}

// Context returns a copy of the context map.
func (r *EnhancedResponse) Context() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyMap(r.context)
}

// AddMetadata merges a metadata entry. Last write wins on key collision.
func (r *EnhancedResponse) AddMetadata(key string, value any) *EnhancedResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadata[key] = value
	return r
}

// Metadata returns a copy of the metadata map.
func (r *EnhancedResponse) Metadata() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyMap(r.metadata)
}

// AddSuggestion appends a suggestion. Malformed entries (empty action or
// description) are stored as-is rather than rejected.
func (r *EnhancedResponse) AddSuggestion(action, description, priority string) *EnhancedResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suggestions = append(r.suggestions, Suggestion{
		Action:      action,
		Description: description,
		Priority:    priority,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
	return r
}

// Suggestions returns a copy of the suggestion list in append order.
func (r *EnhancedResponse) Suggestions() []Suggestion {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Suggestion, len(r.suggestions))
	copy(out, r.suggestions)
	return out
}

// AddRisk appends a risk. Levels outside the standard scale are stored
// as-is; they are simply excluded from HighestRiskLevel.
func (r *EnhancedResponse) AddRisk(level RiskLevel, description, mitigation string) *EnhancedResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.risks = append(r.risks, Risk{
		Level:       level,
		Description: description,
		Mitigation:  mitigation,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
	return r
}

// Risks returns a copy of the risk list in append order.
func (r *EnhancedResponse) Risks() []Risk {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Risk, len(r.risks))
	copy(out, r.risks)
	return out
}

// SetTeamActivity replaces the team activity object. Later setters replace
// the whole value; there is no merging.
func (r *EnhancedResponse) SetTeamActivity(activity any) *EnhancedResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teamActivity = activity
	return r
}

// TeamActivity returns the team activity object, or nil if unset.
func (r *EnhancedResponse) TeamActivity() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.teamActivity
}

// RecordEnhancementError appends a failure entry under MetadataErrorsKey.
// Used by the pipeline so that failures are never silently dropped.
func (r *EnhancedResponse) RecordEnhancementError(enhancer, message string, timedOut bool) *EnhancedResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := EnhancementError{Enhancer: enhancer, Error: message, TimedOut: timedOut}
	existing, _ := r.metadata[MetadataErrorsKey].([]EnhancementError)
	r.metadata[MetadataErrorsKey] = append(existing, entry)
	return r
}

// EnhancementErrors returns the failures recorded during pipeline runs.
func (r *EnhancedResponse) EnhancementErrors() []EnhancementError {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, _ := r.metadata[MetadataErrorsKey].([]EnhancementError)
	out := make([]EnhancementError, len(existing))
	copy(out, existing)
	return out
}

// HighestRiskLevel returns the maximum risk level by ordinal over the
// recorded risks. Returns RiskNone when no risks are recorded. Levels
// outside the standard scale never raise the result.
func (r *EnhancedResponse) HighestRiskLevel() RiskLevel {
	r.mu.Lock()
	defer r.mu.Unlock()
	highest := RiskNone
	for _, risk := range r.risks {
		if risk.Level.Known() && risk.Level.Ordinal() > highest.Ordinal() {
			highest = risk.Level
		}
	}
	return highest
}

// HasErrors reports whether the response status is error.
func (r *EnhancedResponse) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status == StatusError
}

// HasWarnings reports whether the status is warning or any risks are recorded.
func (r *EnhancedResponse) HasWarnings() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status == StatusWarning || len(r.risks) > 0
}

// IsSuccess reports whether the response status is success.
func (r *EnhancedResponse) IsSuccess() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status == StatusSuccess
}

// wire is the serialized shape handed to the transport boundary.
type wire struct {
	Status       Status         `json:"status"`
	Message      string         `json:"message"`
	Data         any            `json:"data"`
	Context      map[string]any `json:"context"`
	Metadata     map[string]any `json:"metadata"`
	Suggestions  []Suggestion   `json:"suggestions"`
	Risks        []Risk         `json:"risks"`
	TeamActivity any            `json:"teamActivity"`
}

// Object returns the response as a plain map in the wire shape. Suggestions
// and risks are always present (possibly empty), never nil. The opaque data
// payload passes through unchanged.
func (r *EnhancedResponse) Object() map[string]any {
	w := r.snapshot()
	return map[string]any{
		"status":       w.Status,
		"message":      w.Message,
		"data":         w.Data,
		"context":      w.Context,
		"metadata":     w.Metadata,
		"suggestions":  w.Suggestions,
		"risks":        w.Risks,
		"teamActivity": w.TeamActivity,
	}
}

// MarshalJSON serializes the wire shape. Suggestion and risk arrays are
// always arrays, never null, mirroring Object.
func (r *EnhancedResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.snapshot())
}

func (r *EnhancedResponse) snapshot() wire {
	r.mu.Lock()
	defer r.mu.Unlock()

	suggestions := make([]Suggestion, len(r.suggestions))
	copy(suggestions, r.suggestions)
	risks := make([]Risk, len(r.risks))
	copy(risks, r.risks)

	return wire{
		Status:       r.status,
		Message:      r.message,
		Data:         r.data,
		Context:      copyMap(r.context),
		Metadata:     copyMap(r.metadata),
		Suggestions:  suggestions,
		Risks:        risks,
		TeamActivity: r.teamActivity,
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
