package mcpserver

import (
	"context"
	"errors"

	"github.com/ecri0/sens-prism/sens"
)

// ErrMissingClient is returned when no API client is provided.
var ErrMissingClient = errors.New("mcp: sens API client is required")

// API is the subset of the SDK client the MCP tools use.
// Narrowing to an interface keeps the handlers testable without a server.
type API interface {
	UploadDocument(ctx context.Context, path string, opts sens.UploadOptions) (*sens.Document, error)
	GetDocument(ctx context.Context, documentID string) (*sens.Document, error)
	Query(ctx context.Context, query string, opts sens.QueryOptions) (*sens.QueryResult, error)
	GetContextRail(ctx context.Context, queryID string) (*sens.ContextRail, error)
}

// Ports aggregates the dependencies required by the MCP server.
type Ports struct {
	// Client is the Sens Prism API client.
	Client API
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Client == nil {
		return ErrMissingClient
	}
	return nil
}
