package builtins

import (
	"context"
	"fmt"
	"strings"

	"github.com/slamb2k/glam-mcp-sub003/pkg/enhance"
	"github.com/slamb2k/glam-mcp-sub003/pkg/response"
)

// RiskName is the registered name of the risk assessment enhancer.
const RiskName = "risk-assessment"

// defaultLargeChangeset is the changed-file count above which a changeset
// is flagged. Overridable via the "large_changeset_threshold" config key.
const defaultLargeChangeset = 25

// RiskAssessment inspects the operation and git state and records risks
// on the response. The highest recorded level is summarized into
// metadata under "riskLevel".
type RiskAssessment struct {
	*enhance.Base
}

var _ enhance.Enhancer = (*RiskAssessment)(nil)

// NewRiskAssessment creates the risk assessment enhancer.
func NewRiskAssessment(config map[string]any) *RiskAssessment {
	return &RiskAssessment{
		Base: enhance.NewBase(enhance.Info{
			Name:         RiskName,
			Description:  "Flags risky git operations before the caller acts on them",
			Version:      response.Version,
			Priority:     80,
			Tags:         []string{"core"},
			Dependencies: []string{MetadataName},
		}, config),
	}
}

func (ra *RiskAssessment) Enhance(_ context.Context, r *response.EnhancedResponse, ec enhance.Context) (*response.EnhancedResponse, error) {
	op := ec.Operation

	if flagTrue(ec.Extra, "force") {
		r.AddRisk(response.RiskHigh,
			"Operation used a force flag and can discard remote history",
			"Coordinate with the team before force-pushing; prefer --force-with-lease")
	}

	if ec.Git != nil {
		if isPush(op) && onProtectedBranch(ec.Git) {
			r.AddRisk(response.RiskMedium,
				fmt.Sprintf("Pushing directly to protected branch %q", ec.Git.Branch),
				"Open a pull request instead of pushing to the default branch")
		}
		if isBranchSwitch(op) && ec.Git.HasUncommittedChanges {
			r.AddRisk(response.RiskMedium,
				"Switching branches with uncommitted changes in the working tree",
				"Commit or stash local changes before switching")
		}
	}

	threshold := ra.ConfigInt("large_changeset_threshold", defaultLargeChangeset)
	if n := changedFileCount(ec); threshold > 0 && n > threshold {
		r.AddRisk(response.RiskLow,
			fmt.Sprintf("Changeset touches %d files", n),
			"Consider splitting into smaller, reviewable commits")
	}

	if level := r.HighestRiskLevel(); level != response.RiskNone {
		r.AddMetadata("riskLevel", string(level))
	}
	return r, nil
}

func changedFileCount(ec enhance.Context) int {
	if len(ec.Files) > 0 {
		return len(ec.Files)
	}
	if ec.Git != nil {
		return len(ec.Git.ChangedFiles)
	}
	return 0
}

func onProtectedBranch(git *enhance.GitContext) bool {
	if git.Branch == "" {
		return false
	}
	if git.DefaultBranch != "" {
		return git.Branch == git.DefaultBranch
	}
	return git.Branch == "main" || git.Branch == "master"
}

func isPush(op string) bool {
	return strings.HasPrefix(op, "git.push")
}

func isBranchSwitch(op string) bool {
	return strings.HasPrefix(op, "git.checkout") || strings.HasPrefix(op, "git.switch") ||
		strings.HasPrefix(op, "branch.switch")
}

// flagTrue reports whether extra carries key with a truthy value.
func flagTrue(extra map[string]any, key string) bool {
	if extra == nil {
		return false
	}
	v, ok := extra[key]
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "1"
	default:
		return false
	}
}
