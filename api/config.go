// Package api provides an HTTP server exposing the tool registry: an MCP
// endpoint for external clients plus a small JSON surface for inspection.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string
}
