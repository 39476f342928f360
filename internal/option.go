package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	file    string
	version string
	mcp     bool
	out     io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithFile sets the document opened at startup.
func WithFile(path string) Option {
	return func(a *application) {
		a.file = path
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(version string) Option {
	return func(a *application) {
		a.version = version
	}
}

// WithMCP serves MCP tools on stdin/stdout next to the HTTP server.
func WithMCP() Option {
	return func(a *application) {
		a.mcp = true
	}
}

// WithOutput sets where command output is written.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}
