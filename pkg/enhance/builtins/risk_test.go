package builtins

import (
	"context"
	"testing"

	"github.com/slamb2k/glam-mcp-sub003/pkg/enhance"
	"github.com/slamb2k/glam-mcp-sub003/pkg/response"
)

func TestRiskRules(t *testing.T) {
	tests := []struct {
		name      string
		ec        enhance.Context
		config    map[string]any
		wantRisks int
		wantLevel response.RiskLevel
	}{
		{
			name:      "clean operation carries no risk",
			ec:        enhance.Context{Operation: "git.commit.success"},
			wantRisks: 0,
			wantLevel: response.RiskNone,
		},
		{
			name: "force flag is high",
			ec: enhance.Context{
				Operation: "git.push.success",
				Extra:     map[string]any{"force": true},
			},
			wantRisks: 1,
			wantLevel: response.RiskHigh,
		},
		{
			name: "push to default branch is medium",
			ec: enhance.Context{
				Operation: "git.push.success",
				Git:       &enhance.GitContext{Branch: "main", DefaultBranch: "main"},
			},
			wantRisks: 1,
			wantLevel: response.RiskMedium,
		},
		{
			name: "push to feature branch is clean",
			ec: enhance.Context{
				Operation: "git.push.success",
				Git:       &enhance.GitContext{Branch: "feature/x", DefaultBranch: "main"},
			},
			wantRisks: 0,
			wantLevel: response.RiskNone,
		},
		{
			name: "dirty tree branch switch is medium",
			ec: enhance.Context{
				Operation: "git.checkout.success",
				Git:       &enhance.GitContext{Branch: "feature/x", HasUncommittedChanges: true},
			},
			wantRisks: 1,
			wantLevel: response.RiskMedium,
		},
		{
			name: "large changeset is low",
			ec: enhance.Context{
				Operation: "git.commit.success",
				Files:     make([]string, 30),
			},
			wantRisks: 1,
			wantLevel: response.RiskLow,
		},
		{
			name: "changeset threshold is configurable",
			ec: enhance.Context{
				Operation: "git.commit.success",
				Files:     make([]string, 6),
			},
			config:    map[string]any{"large_changeset_threshold": 5},
			wantRisks: 1,
			wantLevel: response.RiskLow,
		},
		{
			name: "forced push to default branch stacks risks",
			ec: enhance.Context{
				Operation: "git.push.success",
				Git:       &enhance.GitContext{Branch: "main", DefaultBranch: "main"},
				Extra:     map[string]any{"force": true},
			},
			wantRisks: 2,
			wantLevel: response.RiskHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ra := NewRiskAssessment(tt.config)
			r, err := ra.Enhance(context.Background(), response.Success("ok"), tt.ec)
			if err != nil {
				t.Fatalf("Enhance failed: %v", err)
			}
			if got := len(r.Risks()); got != tt.wantRisks {
				t.Errorf("risks = %d, want %d: %+v", got, tt.wantRisks, r.Risks())
			}
			if got := r.HighestRiskLevel(); got != tt.wantLevel {
				t.Errorf("highest level = %q, want %q", got, tt.wantLevel)
			}
		})
	}
}

func TestRiskLevelSummaryInMetadata(t *testing.T) {
	ra := NewRiskAssessment(nil)
	r, err := ra.Enhance(context.Background(), response.Success("ok"), enhance.Context{
		Operation: "git.push.success",
		Extra:     map[string]any{"force": true},
	})
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	if got := r.Metadata()["riskLevel"]; got != "high" {
		t.Errorf("metadata riskLevel = %v, want high", got)
	}

	clean, _ := NewRiskAssessment(nil).Enhance(context.Background(), response.Success("ok"), enhance.Context{})
	if _, ok := clean.Metadata()["riskLevel"]; ok {
		t.Error("riskLevel set for clean operation")
	}
}

func TestRiskDependsOnMetadata(t *testing.T) {
	info := NewRiskAssessment(nil).Info()
	if len(info.Dependencies) != 1 || info.Dependencies[0] != MetadataName {
		t.Errorf("Dependencies = %v, want [%s]", info.Dependencies, MetadataName)
	}
	if info.Priority != 80 {
		t.Errorf("Priority = %d, want 80", info.Priority)
	}
}
