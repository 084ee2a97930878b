package builtins

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/slamb2k/glam-mcp-sub003/pkg/enhance"
	"github.com/slamb2k/glam-mcp-sub003/pkg/response"
	"github.com/slamb2k/glam-mcp-sub003/pkg/storage"
)

// TeamActivityName is the registered name of the team activity enhancer.
const TeamActivityName = "team-activity"

const (
	defaultActivityWindow = 24 * time.Hour
	defaultActivityTTL    = 30 * time.Second
	defaultActivityLimit  = 20
)

// TeamActivity attaches a summary of recent operations by other team
// members on the same repository. Store lookups are cached per context
// fingerprint with a TTL so repeated tool calls in quick succession do
// not hammer the backing store. With no store configured the enhancer
// leaves the response untouched.
type TeamActivity struct {
	*enhance.Base

	store storage.ActivityStore
	cache *ttlCache
}

var _ enhance.Enhancer = (*TeamActivity)(nil)

// NewTeamActivity creates the team activity enhancer backed by store.
// A nil store is allowed and turns the enhancer into a no-op.
func NewTeamActivity(store storage.ActivityStore, config map[string]any) *TeamActivity {
	ta := &TeamActivity{
		Base: enhance.NewBase(enhance.Info{
			Name:         TeamActivityName,
			Description:  "Summarizes recent team operations on the same repository",
			Version:      response.Version,
			Priority:     30,
			Tags:         []string{"team"},
			Dependencies: []string{MetadataName},
		}, config),
		store: store,
	}
	ta.cache = newTTLCache(TeamActivityName, ta.ttl())
	return ta
}

// UpdateConfig applies config changes and propagates a new cache TTL.
func (ta *TeamActivity) UpdateConfig(partial map[string]any) {
	ta.Base.UpdateConfig(partial)
	ta.cache.setTTL(ta.ttl())
}

func (ta *TeamActivity) ttl() time.Duration {
	ms := ta.ConfigInt("cache_ttl_ms", int(defaultActivityTTL.Milliseconds()))
	if ms <= 0 {
		return defaultActivityTTL
	}
	return time.Duration(ms) * time.Millisecond
}

func (ta *TeamActivity) window() time.Duration {
	minutes := ta.ConfigInt("window_minutes", int(defaultActivityWindow.Minutes()))
	if minutes <= 0 {
		return defaultActivityWindow
	}
	return time.Duration(minutes) * time.Minute
}

func (ta *TeamActivity) Enhance(ctx context.Context, r *response.EnhancedResponse, ec enhance.Context) (*response.EnhancedResponse, error) {
	if ta.store == nil {
		return r, nil
	}

	repo := repoFrom(ec)
	if repo == "" {
		return r, nil
	}
	branch := ""
	if ec.Git != nil {
		branch = ec.Git.Branch
	}

	key := fmt.Sprintf("%s|%s", repo, branch)
	if cached, ok := ta.cache.get(key); ok {
		return r.SetTeamActivity(cached), nil
	}

	records, err := ta.store.RecentActivity(ctx, storage.ListOptions{
		Repo:  repo,
		Since: time.Now().UTC().Add(-ta.window()),
		Limit: ta.ConfigInt("limit", defaultActivityLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("loading team activity: %w", err)
	}

	summary := summarize(records, branch)
	ta.cache.set(key, summary)
	return r.SetTeamActivity(summary), nil
}

// summarize reduces raw records to the wire summary: recent operations,
// branches seen and distinct contributors, newest first.
func summarize(records []*storage.ActivityRecord, currentBranch string) map[string]any {
	recent := make([]map[string]any, 0, len(records))
	branchSet := map[string]bool{}
	contributorSet := map[string]bool{}
	sameBranch := 0

	for _, rec := range records {
		entry := map[string]any{
			"actor":     rec.Actor,
			"operation": rec.Operation,
			"timestamp": rec.CreatedAt.UTC().Format(time.RFC3339),
		}
		if rec.Branch != "" {
			entry["branch"] = rec.Branch
			branchSet[rec.Branch] = true
			if rec.Branch == currentBranch {
				sameBranch++
			}
		}
		if rec.Actor != "" {
			contributorSet[rec.Actor] = true
		}
		recent = append(recent, entry)
	}

	summary := map[string]any{
		"recentOperations": recent,
		"activeBranches":   sortedKeys(branchSet),
		"contributors":     sortedKeys(contributorSet),
	}
	if currentBranch != "" && sameBranch > 0 {
		summary["currentBranchOperations"] = sameBranch
	}
	return summary
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func repoFrom(ec enhance.Context) string {
	if ec.Git != nil && ec.Git.Repo != "" {
		return ec.Git.Repo
	}
	if ec.Extra != nil {
		if repo, ok := ec.Extra["repo"].(string); ok && repo != "" {
			return repo
		}
	}
	return ""
}
