// Package api provides the HTTP server that exposes the toolbox tools and
// the call ledger.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":3000")
	ListenAddr string

	// MCP mounts the MCP streamable HTTP handler at /mcp.
	MCP bool
}
