package builtins

import (
	"github.com/slamb2k/glam-mcp-sub003/pkg/enhance"
	"github.com/slamb2k/glam-mcp-sub003/pkg/storage"
)

// Catalog returns the factory table for the stock enhancers, keyed by
// registered name. Pass it to Registry.Discover together with per-name
// configuration. The store may be nil; team-activity then degrades to a
// no-op.
func Catalog(store storage.ActivityStore) map[string]enhance.Factory {
	return map[string]enhance.Factory{
		MetadataName: func(config map[string]any) (enhance.Enhancer, error) {
			return NewMetadata(config), nil
		},
		RiskName: func(config map[string]any) (enhance.Enhancer, error) {
			return NewRiskAssessment(config), nil
		},
		SuggestionsName: func(config map[string]any) (enhance.Enhancer, error) {
			return NewSuggestions(config), nil
		},
		TeamActivityName: func(config map[string]any) (enhance.Enhancer, error) {
			return NewTeamActivity(store, config), nil
		},
	}
}

// DefaultPipelineOrder lists the stock enhancers in their intended
// execution order for the default pipeline.
func DefaultPipelineOrder() []string {
	return []string{MetadataName, RiskName, SuggestionsName, TeamActivityName}
}
