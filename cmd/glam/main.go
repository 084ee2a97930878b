// Command glam runs the git assistant MCP server with the response
// enhancement pipeline.
//
// Configuration is loaded from a YAML file (discovered via GLAM_CONFIG,
// ./config.yaml, or /etc/glam/config.yaml) with GLAM_* environment
// overrides. See pkg/config for the full surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/slamb2k/glam-mcp-sub003/pkg/auth"
	"github.com/slamb2k/glam-mcp-sub003/pkg/auth/apikey"
	"github.com/slamb2k/glam-mcp-sub003/pkg/auth/jwt"
	"github.com/slamb2k/glam-mcp-sub003/pkg/auth/noop"
	"github.com/slamb2k/glam-mcp-sub003/pkg/config"
	"github.com/slamb2k/glam-mcp-sub003/pkg/debug"
	"github.com/slamb2k/glam-mcp-sub003/pkg/enhance"
	"github.com/slamb2k/glam-mcp-sub003/pkg/enhance/builtins"
	"github.com/slamb2k/glam-mcp-sub003/pkg/gitctx"
	"github.com/slamb2k/glam-mcp-sub003/pkg/response"
	"github.com/slamb2k/glam-mcp-sub003/pkg/server"
	"github.com/slamb2k/glam-mcp-sub003/pkg/storage"
	"github.com/slamb2k/glam-mcp-sub003/pkg/storage/memory"
	"github.com/slamb2k/glam-mcp-sub003/pkg/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("glam failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	repoDir := flag.String("repo", "", "git working tree (default: current directory)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// All logging goes to stderr so stdio MCP framing stays clean.
	debug.Init(cfg.Debug.Categories, cfg.Debug.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir := *repoDir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	registry, pipelineName, err := buildRegistry(cfg, store)
	if err != nil {
		return err
	}

	srv := server.New(gitctx.Open(dir), registry, store, server.Options{
		Pipeline: pipelineName,
		Version:  response.Version,
	})
	mcpServer := srv.MCPServer()

	// Admin surface runs alongside either transport.
	var adminSrv *http.Server
	if cfg.Server.AdminPort > 0 {
		chain, err := buildAuthChain(cfg)
		if err != nil {
			return err
		}
		adminSrv = &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.AdminPort),
			Handler:      server.NewAdmin(registry, store).Handler(chain),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
		go func() {
			slog.Info("admin server starting", "port", cfg.Server.AdminPort)
			if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("admin server failed", "error", err)
			}
		}()
		defer shutdown(adminSrv)
	}

	switch cfg.Server.Mode {
	case "http":
		return serveHTTP(ctx, cfg, mcpServer)
	default:
		slog.Info("serving MCP over stdio", "repo", dir, "pipeline", pipelineName)
		return mcpServer.Run(ctx, &mcp.StdioTransport{})
	}
}

// buildStore creates the team activity store named by the config.
func buildStore(ctx context.Context, cfg *config.Config) (storage.ActivityStore, error) {
	switch cfg.Storage.Type {
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Storage.Postgres.DSN,
			MaxConns:       cfg.Storage.Postgres.MaxConns,
			MigrateOnStart: cfg.Storage.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("creating postgres store: %w", err)
		}
		slog.Info("storage enabled", "type", "postgres")
		return store, nil
	default:
		slog.Info("storage enabled", "type", "memory", "max_size", cfg.Storage.MaxSize)
		return memory.New(cfg.Storage.MaxSize), nil
	}
}

// buildRegistry discovers the built-in enhancers, applies config
// overrides, and creates the configured pipelines. It returns the name
// of the pipeline tool responses run through.
func buildRegistry(cfg *config.Config, store storage.ActivityStore) (*enhance.Registry, string, error) {
	registry := enhance.NewRegistry()

	configs := make(map[string]map[string]any, len(cfg.Enhancers))
	for name, ec := range cfg.Enhancers {
		configs[name] = ec.Config
	}
	registered := registry.Discover(builtins.Catalog(store), configs, nil)
	slog.Info("enhancers discovered", "count", registered)

	for name, ec := range cfg.Enhancers {
		if ec.Enabled == nil {
			continue
		}
		e, ok := registry.Get(name)
		if !ok {
			slog.Warn("config references unknown enhancer", "name", name)
			continue
		}
		e.SetEnabled(*ec.Enabled)
	}

	names := make([]string, 0, len(cfg.Pipelines))
	for name := range cfg.Pipelines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pc := cfg.Pipelines[name]
		_, err := registry.CreatePipeline(name, enhance.PipelineOptions{
			Enhancers:       pc.Enhancers,
			Parallel:        pc.Parallel,
			ContinueOnError: pc.ContinueOnError,
			Timeout:         time.Duration(pc.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, "", fmt.Errorf("creating pipeline %q: %w", name, err)
		}
	}

	if _, ok := registry.GetPipeline("default"); !ok {
		if _, err := registry.CreatePipeline("default", enhance.PipelineOptions{
			Enhancers: builtins.DefaultPipelineOrder(),
		}); err != nil {
			return nil, "", fmt.Errorf("creating default pipeline: %w", err)
		}
	}
	return registry, "default", nil
}

// buildAuthChain assembles the admin authenticator chain from config.
func buildAuthChain(cfg *config.Config) (*auth.AuthChain, error) {
	switch cfg.Auth.Type {
	case "apikey":
		keys := make([]apikey.Key, 0, len(cfg.Auth.APIKeys))
		for _, k := range cfg.Auth.APIKeys {
			keys = append(keys, apikey.Key{Value: k.Key, Subject: k.Subject})
		}
		return &auth.AuthChain{
			Authenticators:  []auth.Authenticator{apikey.New(keys)},
			DefaultDecision: auth.No,
		}, nil
	case "jwt":
		return &auth.AuthChain{
			Authenticators: []auth.Authenticator{
				jwt.New(jwt.Config{
					Secret: cfg.Auth.JWT.Secret,
					Issuer: cfg.Auth.JWT.Issuer,
				}),
			},
			DefaultDecision: auth.No,
		}, nil
	default:
		return &auth.AuthChain{
			Authenticators:  []auth.Authenticator{&noop.Authenticator{}},
			DefaultDecision: auth.Yes,
		}, nil
	}
}

// serveHTTP serves the MCP streamable HTTP transport.
func serveHTTP(ctx context.Context, cfg *config.Config, mcpServer *mcp.Server) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp", handler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("MCP server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down gracefully")
		shutdown(srv)
		return nil
	case err := <-errCh:
		return err
	}
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("shutdown incomplete", "error", err)
	}
}
