// Package gitctx wraps the git CLI for the tool boundary. It collects
// repository state into an enhance.GitContext and executes the write
// operations the MCP tools expose.
package gitctx

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/slamb2k/glam-mcp-sub003/pkg/enhance"
)

// execFunc runs git with the given arguments in dir and returns trimmed
// stdout. Swappable in tests.
type execFunc func(ctx context.Context, dir string, args ...string) (string, error)

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return strings.TrimSpace(string(out)), nil
}

// Repo executes git operations against a single working tree.
type Repo struct {
	dir string
	run execFunc
}

// Open returns a Repo rooted at dir. The directory is not validated
// until the first git invocation.
func Open(dir string) *Repo {
	return &Repo{dir: dir, run: runGit}
}

// Dir returns the working tree root the repo was opened with.
func (r *Repo) Dir() string {
	return r.dir
}

// Snapshot collects the repository state enhancers consume. Fields that
// cannot be determined are left zero rather than failing the snapshot;
// only a completely unreadable repository returns an error.
func (r *Repo) Snapshot(ctx context.Context) (*enhance.GitContext, error) {
	branch, err := r.run(ctx, r.dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("reading current branch: %w", err)
	}

	gc := &enhance.GitContext{
		Branch:        branch,
		DefaultBranch: r.defaultBranch(ctx),
		Repo:          r.repoName(ctx),
	}

	status, err := r.run(ctx, r.dir, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("reading status: %w", err)
	}
	gc.ChangedFiles = parseStatus(status)
	gc.HasUncommittedChanges = len(gc.ChangedFiles) > 0

	slog.Debug("git snapshot",
		"repo", gc.Repo,
		"branch", gc.Branch,
		"dirty", gc.HasUncommittedChanges,
		"changed_files", len(gc.ChangedFiles))
	return gc, nil
}

// Commit stages everything and records a commit, returning the new
// commit hash.
func (r *Repo) Commit(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("commit message must not be empty")
	}
	if _, err := r.run(ctx, r.dir, "add", "-A"); err != nil {
		return "", fmt.Errorf("staging changes: %w", err)
	}
	if _, err := r.run(ctx, r.dir, "commit", "-m", message); err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	hash, err := r.run(ctx, r.dir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("reading commit hash: %w", err)
	}
	return hash, nil
}

// Push publishes the given branch to origin. Force uses
// --force-with-lease so a stale remote ref is still refused.
func (r *Repo) Push(ctx context.Context, branch string, force bool) error {
	args := []string{"push", "origin"}
	if force {
		args = append(args, "--force-with-lease")
	}
	args = append(args, branch)
	if _, err := r.run(ctx, r.dir, args...); err != nil {
		return fmt.Errorf("pushing %s: %w", branch, err)
	}
	return nil
}

// CreateBranch creates and checks out a new branch.
func (r *Repo) CreateBranch(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("branch name must not be empty")
	}
	if _, err := r.run(ctx, r.dir, "checkout", "-b", name); err != nil {
		return fmt.Errorf("creating branch %s: %w", name, err)
	}
	return nil
}

// defaultBranch resolves origin's HEAD, falling back to "main" when the
// remote has no HEAD ref (fresh clones, no remote).
func (r *Repo) defaultBranch(ctx context.Context) string {
	ref, err := r.run(ctx, r.dir, "symbolic-ref", "refs/remotes/origin/HEAD")
	if err != nil || ref == "" {
		return "main"
	}
	return strings.TrimPrefix(ref, "refs/remotes/origin/")
}

// repoName derives an "owner/name" identifier from the origin URL, or
// the working tree's directory name when there is no remote.
func (r *Repo) repoName(ctx context.Context) string {
	url, err := r.run(ctx, r.dir, "remote", "get-url", "origin")
	if err == nil && url != "" {
		if name := parseRemoteURL(url); name != "" {
			return name
		}
	}
	top, err := r.run(ctx, r.dir, "rev-parse", "--show-toplevel")
	if err != nil || top == "" {
		return filepath.Base(r.dir)
	}
	return filepath.Base(top)
}

// parseRemoteURL extracts "owner/name" from the common remote URL forms,
// e.g. git@github.com:acme/widgets.git and https://github.com/acme/widgets.
func parseRemoteURL(url string) string {
	url = strings.TrimSuffix(url, ".git")
	if !strings.Contains(url, "://") {
		// scp-like ssh form, e.g. git@github.com:acme/widgets
		if i := strings.LastIndex(url, ":"); i >= 0 {
			url = url[i+1:]
		}
	}
	parts := strings.Split(strings.Trim(url, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1]
}

// parseStatus converts porcelain v1 output into a list of paths. Renames
// report the new path.
func parseStatus(out string) []string {
	if out == "" {
		return nil
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		path := line[3:]
		if i := strings.Index(path, " -> "); i >= 0 {
			path = path[i+4:]
		}
		files = append(files, path)
	}
	return files
}
