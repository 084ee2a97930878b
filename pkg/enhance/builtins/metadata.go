package builtins

import (
	"context"
	"time"

	"github.com/slamb2k/glam-mcp-sub003/pkg/enhance"
	"github.com/slamb2k/glam-mcp-sub003/pkg/response"
)

// MetadataName is the registered name of the metadata enhancer.
const MetadataName = "metadata"

// Metadata stamps every response with when it was enhanced, what
// operation produced it and which tool invoked it. It runs first so
// downstream enhancers can rely on its fields being present.
type Metadata struct {
	*enhance.Base

	now func() time.Time
}

var _ enhance.Enhancer = (*Metadata)(nil)

// NewMetadata creates the metadata enhancer with the given configuration.
func NewMetadata(config map[string]any) *Metadata {
	return &Metadata{
		Base: enhance.NewBase(enhance.Info{
			Name:        MetadataName,
			Description: "Stamps responses with operation, timing and source metadata",
			Version:     response.Version,
			Priority:    90,
			Tags:        []string{"core"},
		}, config),
		now: time.Now,
	}
}

func (m *Metadata) Enhance(_ context.Context, r *response.EnhancedResponse, ec enhance.Context) (*response.EnhancedResponse, error) {
	now := m.now().UTC()
	r.AddMetadata("enhancedAt", now.Format(time.RFC3339))

	if ec.Operation != "" {
		r.AddMetadata("operation", ec.Operation)
	}
	if ec.Session != nil && ec.Session.ID != "" {
		r.AddMetadata("sessionId", ec.Session.ID)
	}
	if ec.Source != nil {
		src := map[string]any{"tool": ec.Source.Tool}
		if ec.Source.Version != "" {
			src["version"] = ec.Source.Version
		}
		if ec.Source.Component != "" {
			src["component"] = ec.Source.Component
		}
		r.AddMetadata("source", src)
	}
	if ec.OperationStartTime > 0 {
		elapsed := now.UnixMilli() - ec.OperationStartTime
		if elapsed >= 0 {
			r.AddMetadata("durationMs", elapsed)
		}
	}
	if len(ec.Files) > 0 {
		r.AddMetadata("affectedFiles", len(ec.Files))
	}
	return r, nil
}
