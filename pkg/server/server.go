package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/slamb2k/glam-mcp-sub003/pkg/debug"
	"github.com/slamb2k/glam-mcp-sub003/pkg/enhance"
	"github.com/slamb2k/glam-mcp-sub003/pkg/observability"
	"github.com/slamb2k/glam-mcp-sub003/pkg/response"
	"github.com/slamb2k/glam-mcp-sub003/pkg/storage"
)

// GitService is the git boundary the tool handlers call. Satisfied by
// *gitctx.Repo; tests substitute a fake.
type GitService interface {
	Snapshot(ctx context.Context) (*enhance.GitContext, error)
	Commit(ctx context.Context, message string) (string, error)
	Push(ctx context.Context, branch string, force bool) error
	CreateBranch(ctx context.Context, name string) error
}

// Options configures a Server.
type Options struct {
	// Pipeline names the registry pipeline run over tool responses.
	// Default: "default".
	Pipeline string

	// Version is stamped into the MCP implementation info and the
	// response source.
	Version string
}

// Server owns the MCP tool surface.
type Server struct {
	git      GitService
	registry *enhance.Registry
	store    storage.ActivityStore
	opts     Options
}

// New creates a Server. The store may be nil; team activity recording
// is then skipped.
func New(git GitService, registry *enhance.Registry, store storage.ActivityStore, opts Options) *Server {
	if opts.Pipeline == "" {
		opts.Pipeline = "default"
	}
	if opts.Version == "" {
		opts.Version = response.Version
	}
	return &Server{git: git, registry: registry, store: store, opts: opts}
}

// RepoStatusInput is the (empty) input of the repo_status tool.
type RepoStatusInput struct{}

// GitCommitInput is the input of the git_commit tool.
type GitCommitInput struct {
	Message string `json:"message" jsonschema_description:"The commit message"`
}

// GitPushInput is the input of the git_push tool.
type GitPushInput struct {
	Branch string `json:"branch,omitempty" jsonschema_description:"Branch to push; defaults to the current branch"`
	Force  bool   `json:"force,omitempty" jsonschema_description:"Force push with --force-with-lease"`
}

// CreateBranchInput is the input of the create_branch tool.
type CreateBranchInput struct {
	Name string `json:"name" jsonschema_description:"Name of the branch to create"`
}

// MCPServer builds the MCP server with all tools registered.
func (s *Server) MCPServer() *mcp.Server {
	srv := mcp.NewServer(
		&mcp.Implementation{Name: "glam", Version: s.opts.Version},
		nil,
	)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "repo_status",
		Description: "Reports the repository state: branch, uncommitted changes, changed files",
	}, s.handleRepoStatus)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "git_commit",
		Description: "Stages all changes and records a commit",
	}, s.handleGitCommit)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "git_push",
		Description: "Pushes a branch to origin",
	}, s.handleGitPush)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_branch",
		Description: "Creates and checks out a new branch",
	}, s.handleCreateBranch)

	return srv
}

func (s *Server) handleRepoStatus(ctx context.Context, req *mcp.CallToolRequest, _ RepoStatusInput) (*mcp.CallToolResult, struct{}, error) {
	start := time.Now()

	gc, err := s.git.Snapshot(ctx)
	if err != nil {
		return s.fail("repo_status", "git.status.error", start, err)
	}

	resp := response.Success("repository status").SetData(map[string]any{
		"repo":                  gc.Repo,
		"branch":                gc.Branch,
		"defaultBranch":         gc.DefaultBranch,
		"hasUncommittedChanges": gc.HasUncommittedChanges,
		"changedFiles":          gc.ChangedFiles,
	})

	return s.finish(ctx, req, "repo_status", "git.status.success", start, resp, gc, nil)
}

func (s *Server) handleGitCommit(ctx context.Context, req *mcp.CallToolRequest, in GitCommitInput) (*mcp.CallToolResult, struct{}, error) {
	start := time.Now()

	hash, err := s.git.Commit(ctx, in.Message)
	if err != nil {
		return s.fail("git_commit", "git.commit.error", start, err)
	}

	gc := s.snapshot(ctx)
	resp := response.Success(fmt.Sprintf("committed %s", shortHash(hash))).SetData(map[string]any{
		"commit":  hash,
		"message": in.Message,
	})

	return s.finish(ctx, req, "git_commit", "git.commit.success", start, resp, gc, map[string]any{
		"commit": hash,
	})
}

func (s *Server) handleGitPush(ctx context.Context, req *mcp.CallToolRequest, in GitPushInput) (*mcp.CallToolResult, struct{}, error) {
	start := time.Now()

	branch := in.Branch
	if branch == "" {
		if gc, err := s.git.Snapshot(ctx); err == nil {
			branch = gc.Branch
		}
	}
	if branch == "" {
		return s.fail("git_push", "git.push.error", start, fmt.Errorf("cannot determine branch to push"))
	}

	if err := s.git.Push(ctx, branch, in.Force); err != nil {
		return s.fail("git_push", "git.push.error", start, err)
	}

	gc := s.snapshot(ctx)
	resp := response.Success(fmt.Sprintf("pushed %s to origin", branch)).SetData(map[string]any{
		"branch": branch,
		"force":  in.Force,
	})

	ec := s.enhanceContext(req, "git.push.success", gc, start)
	if in.Force {
		ec.Extra["force"] = true
	}
	return s.finishWithContext(ctx, "git_push", start, resp, ec, map[string]any{
		"force": in.Force,
	})
}

func (s *Server) handleCreateBranch(ctx context.Context, req *mcp.CallToolRequest, in CreateBranchInput) (*mcp.CallToolResult, struct{}, error) {
	start := time.Now()

	if err := s.git.CreateBranch(ctx, in.Name); err != nil {
		return s.fail("create_branch", "branch.create.error", start, err)
	}

	gc := s.snapshot(ctx)
	resp := response.Success(fmt.Sprintf("created branch %s", in.Name)).SetData(map[string]any{
		"branch": in.Name,
	})

	return s.finish(ctx, req, "create_branch", "branch.create.success", start, resp, gc, nil)
}

// snapshot collects git state after a successful mutation. Failure to
// read state never fails the tool; enhancers tolerate a nil GitContext.
func (s *Server) snapshot(ctx context.Context) *enhance.GitContext {
	gc, err := s.git.Snapshot(ctx)
	if err != nil {
		slog.Warn("git snapshot after operation failed", "error", err)
		return nil
	}
	return gc
}

// enhanceContext assembles the operation context handed to the pipeline.
func (s *Server) enhanceContext(req *mcp.CallToolRequest, operation string, gc *enhance.GitContext, start time.Time) enhance.Context {
	ec := enhance.Context{
		Operation:          operation,
		Git:                gc,
		OperationStartTime: start.UnixMilli(),
		Source: &enhance.Source{
			Tool:      toolFromOperation(operation),
			Version:   s.opts.Version,
			Component: "glam",
		},
		Extra: map[string]any{},
	}
	if gc != nil {
		ec.Files = gc.ChangedFiles
	}
	if req != nil && req.Session != nil {
		if id := req.Session.ID(); id != "" {
			ec.Session = &enhance.Session{ID: id}
		}
	}
	return ec
}

// finish runs the pipeline, records activity, and serializes the result.
func (s *Server) finish(ctx context.Context, req *mcp.CallToolRequest, tool, operation string, start time.Time, resp *response.EnhancedResponse, gc *enhance.GitContext, details map[string]any) (*mcp.CallToolResult, struct{}, error) {
	return s.finishWithContext(ctx, tool, start, resp, s.enhanceContext(req, operation, gc, start), details)
}

func (s *Server) finishWithContext(ctx context.Context, tool string, start time.Time, resp *response.EnhancedResponse, ec enhance.Context, details map[string]any) (*mcp.CallToolResult, struct{}, error) {
	if pipeline, ok := s.registry.GetPipeline(s.opts.Pipeline); ok {
		enhanced, err := pipeline.Process(ctx, resp, ec)
		if err != nil {
			// Enhancement is additive; the operation itself succeeded.
			slog.Warn("pipeline aborted", "tool", tool, "pipeline", s.opts.Pipeline, "error", err)
		} else {
			resp = enhanced
		}
	} else {
		debug.Log("pipeline", "no pipeline configured", "name", s.opts.Pipeline)
	}

	s.recordActivity(ctx, ec, details)

	observability.ToolExecutionsTotal.WithLabelValues(tool, "success").Inc()
	observability.ToolDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())

	return textResult(resp), struct{}{}, nil
}

// fail builds an error response without running the pipeline.
func (s *Server) fail(tool, operation string, start time.Time, opErr error) (*mcp.CallToolResult, struct{}, error) {
	slog.Error("tool failed", "tool", tool, "operation", operation, "error", opErr)
	observability.ToolExecutionsTotal.WithLabelValues(tool, "error").Inc()
	observability.ToolDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())

	resp := response.Error(opErr.Error()).AddMetadata("operation", operation)
	result := textResult(resp)
	result.IsError = true
	return result, struct{}{}, nil
}

// recordActivity writes the operation into the team activity store.
// Read-only operations and storeless deployments are skipped.
func (s *Server) recordActivity(ctx context.Context, ec enhance.Context, details map[string]any) {
	if s.store == nil || ec.Operation == "git.status.success" {
		return
	}

	rec := &storage.ActivityRecord{Operation: ec.Operation, Details: details}
	if ec.Git != nil {
		rec.Repo = ec.Git.Repo
		rec.Branch = ec.Git.Branch
	}

	if err := s.store.RecordActivity(ctx, rec); err != nil {
		slog.Warn("recording activity failed", "operation", ec.Operation, "error", err)
		return
	}
	observability.ActivityRecordsTotal.WithLabelValues(ec.Operation).Inc()
}

func textResult(resp *response.EnhancedResponse) *mcp.CallToolResult {
	data, err := json.Marshal(resp)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"status":"error","message":%q}`, err.Error()))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

func toolFromOperation(operation string) string {
	switch operation {
	case "git.status.success", "git.status.error":
		return "repo_status"
	case "git.commit.success", "git.commit.error":
		return "git_commit"
	case "git.push.success", "git.push.error":
		return "git_push"
	case "branch.create.success", "branch.create.error":
		return "create_branch"
	default:
		return operation
	}
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
