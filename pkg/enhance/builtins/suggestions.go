package builtins

import (
	"context"

	"github.com/slamb2k/glam-mcp-sub003/pkg/enhance"
	"github.com/slamb2k/glam-mcp-sub003/pkg/response"
)

// SuggestionsName is the registered name of the suggestions enhancer.
const SuggestionsName = "suggestions"

// suggestionRule maps an operation to a suggested next step.
type suggestionRule struct {
	action      string
	description string
	priority    string
}

// operationSuggestions is the static operation to next-step table.
var operationSuggestions = map[string][]suggestionRule{
	"git.commit.success": {
		{"create_pr", "Open a pull request for this commit", "high"},
		{"run_tests", "Run the test suite before requesting review", "medium"},
	},
	"git.push.success": {
		{"open_pr", "Open a pull request for the pushed branch", "high"},
		{"check_ci", "Watch the CI run for the pushed commit", "medium"},
	},
	"branch.create.success": {
		{"start_commits", "Make your first commit on the new branch", "medium"},
	},
	"git.merge.success": {
		{"delete_branch", "Delete the merged branch to keep the repo tidy", "low"},
	},
}

// Suggestions appends next-step suggestions derived from the operation
// and working-tree state. Depends on metadata so operation stamping is
// observable first.
type Suggestions struct {
	*enhance.Base
}

var _ enhance.Enhancer = (*Suggestions)(nil)

// NewSuggestions creates the suggestions enhancer.
func NewSuggestions(config map[string]any) *Suggestions {
	return &Suggestions{
		Base: enhance.NewBase(enhance.Info{
			Name:         SuggestionsName,
			Description:  "Suggests next steps after git operations",
			Version:      response.Version,
			Priority:     50,
			Tags:         []string{"core"},
			Dependencies: []string{MetadataName},
		}, config),
	}
}

func (s *Suggestions) Enhance(_ context.Context, r *response.EnhancedResponse, ec enhance.Context) (*response.EnhancedResponse, error) {
	for _, rule := range operationSuggestions[ec.Operation] {
		r.AddSuggestion(rule.action, rule.description, rule.priority)
	}

	if ec.Git != nil && ec.Git.HasUncommittedChanges && ec.Operation != "git.commit.success" {
		r.AddSuggestion("commit_changes",
			"Commit or stash uncommitted changes before continuing", "medium")
	}
	return r, nil
}
