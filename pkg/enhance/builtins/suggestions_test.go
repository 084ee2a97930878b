package builtins

import (
	"context"
	"testing"

	"github.com/slamb2k/glam-mcp-sub003/pkg/enhance"
	"github.com/slamb2k/glam-mcp-sub003/pkg/response"
)

func hasAction(suggestions []response.Suggestion, action string) bool {
	for _, s := range suggestions {
		if s.Action == action {
			return true
		}
	}
	return false
}

func TestSuggestionsPerOperation(t *testing.T) {
	tests := []struct {
		operation  string
		wantAction string
	}{
		{"git.commit.success", "create_pr"},
		{"git.push.success", "open_pr"},
		{"branch.create.success", "start_commits"},
		{"git.merge.success", "delete_branch"},
	}

	for _, tt := range tests {
		t.Run(tt.operation, func(t *testing.T) {
			s := NewSuggestions(nil)
			r, err := s.Enhance(context.Background(), response.Success("ok"), enhance.Context{
				Operation: tt.operation,
			})
			if err != nil {
				t.Fatalf("Enhance failed: %v", err)
			}
			if !hasAction(r.Suggestions(), tt.wantAction) {
				t.Errorf("suggestions %+v missing action %q", r.Suggestions(), tt.wantAction)
			}
		})
	}
}

func TestSuggestionsUnknownOperation(t *testing.T) {
	s := NewSuggestions(nil)
	r, err := s.Enhance(context.Background(), response.Success("ok"), enhance.Context{
		Operation: "npm.install.success",
	})
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	if got := len(r.Suggestions()); got != 0 {
		t.Errorf("suggestions = %d, want 0 for unmapped operation", got)
	}
}

func TestSuggestionsDirtyTree(t *testing.T) {
	s := NewSuggestions(nil)
	r, err := s.Enhance(context.Background(), response.Success("ok"), enhance.Context{
		Operation: "repo.status.success",
		Git:       &enhance.GitContext{HasUncommittedChanges: true},
	})
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	if !hasAction(r.Suggestions(), "commit_changes") {
		t.Errorf("dirty tree should suggest committing, got %+v", r.Suggestions())
	}

	// A commit that just succeeded should not circle back to "commit".
	r, _ = s.Enhance(context.Background(), response.Success("ok"), enhance.Context{
		Operation: "git.commit.success",
		Git:       &enhance.GitContext{HasUncommittedChanges: true},
	})
	if hasAction(r.Suggestions(), "commit_changes") {
		t.Error("commit_changes suggested right after a commit")
	}
}
