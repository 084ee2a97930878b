// Package server exposes glam over MCP and hosts the admin HTTP
// surface.
//
// The MCP side registers four tools (repo_status, git_commit, git_push,
// create_branch). Each handler executes the git operation, builds a
// base response, runs the configured enhancement pipeline over it,
// records the operation in the team activity store, and returns the
// enhanced response as JSON text content.
//
// The admin side serves health and readiness probes, Prometheus
// metrics, and the registry management endpoints (stats, export,
// import) behind the authenticator chain.
package server
