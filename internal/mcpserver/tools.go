package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ecri0/sens-prism/sens"
)

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Query               string   `json:"query" jsonschema:"the natural-language question to ask"`
	DocumentIDs         []string `json:"document_ids,omitempty" jsonschema:"restrict the query to these document ids"`
	Tags                []string `json:"tags,omitempty" jsonschema:"filter documents by tag"`
	Limit               int      `json:"limit,omitempty" jsonschema:"maximum number of source chunks (default 3)"`
	ConfidenceThreshold float64  `json:"confidence_threshold,omitempty" jsonschema:"minimum source confidence score between 0 and 1 (default 0.5)"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	QueryID         string         `json:"query_id"`
	Answer          string         `json:"answer"`
	ConfidenceScore float64        `json:"confidence_score"`
	Sources         []SourceOutput `json:"sources"`
}

// SourceOutput is one attributed source in a tool result.
type SourceOutput struct {
	DocumentID      string   `json:"document_id"`
	DocumentTitle   string   `json:"document_title,omitempty"`
	Page            int      `json:"page,omitempty"`
	Excerpt         string   `json:"excerpt,omitempty"`
	ConfidenceScore float64  `json:"confidence_score"`
	SemanticLayer   string   `json:"semantic_layer,omitempty"`
	MatchedConcepts []string `json:"matched_concepts,omitempty"`
}

// UploadInput is the input schema for the upload_document tool.
type UploadInput struct {
	Path  string   `json:"path" jsonschema:"local path of the file to upload"`
	Title string   `json:"title,omitempty" jsonschema:"human-readable document title"`
	Tags  []string `json:"tags,omitempty" jsonschema:"organisational tags"`
}

// UploadOutput is the output schema for the upload_document tool.
type UploadOutput struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

// StatusInput is the input schema for the document_status tool.
type StatusInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document id returned by upload_document"`
}

// StatusOutput is the output schema for the document_status tool.
type StatusOutput struct {
	DocumentID   string `json:"document_id"`
	Status       string `json:"status"`
	Title        string `json:"title,omitempty"`
	PageCount    int    `json:"page_count,omitempty"`
	ChunkCount   int    `json:"chunk_count,omitempty"`
	ConceptCount int    `json:"concept_count,omitempty"`
}

// RailInput is the input schema for the context_rail tool.
type RailInput struct {
	QueryID string `json:"query_id" jsonschema:"the query id returned by a previous query"`
}

// RailOutput is the output schema for the context_rail tool.
type RailOutput struct {
	QueryID     string         `json:"query_id"`
	Query       string         `json:"query"`
	RetrievedAt string         `json:"retrieved_at"`
	Sources     []SourceOutput `json:"sources"`
	Summary     map[string]any `json:"summary,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Ask a natural-language question against the indexed documents",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "upload_document",
		Description: "Upload a local file to be processed and indexed",
	}, s.handleUpload)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "document_status",
		Description: "Check the processing status of an uploaded document",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "context_rail",
		Description: "Fetch the detailed source attribution for a past query",
	}, s.handleRail)
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	result, err := s.ports.Client.Query(ctx, input.Query, sens.QueryOptions{
		DocumentIDs:         input.DocumentIDs,
		Tags:                input.Tags,
		Limit:               input.Limit,
		ConfidenceThreshold: input.ConfidenceThreshold,
	})
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		QueryID:         result.QueryID,
		Answer:          result.Answer,
		ConfidenceScore: result.ConfidenceScore,
		Sources:         toSourceOutputs(result.Sources),
	}
	return nil, output, nil
}

// handleUpload handles the upload_document tool invocation.
func (s *Server) handleUpload(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UploadInput,
) (*mcp.CallToolResult, UploadOutput, error) {
	doc, err := s.ports.Client.UploadDocument(ctx, input.Path, sens.UploadOptions{
		Title: input.Title,
		Tags:  input.Tags,
	})
	if err != nil {
		return nil, UploadOutput{}, err
	}

	return nil, UploadOutput{DocumentID: doc.ID, Status: doc.Status}, nil
}

// handleStatus handles the document_status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	doc, err := s.ports.Client.GetDocument(ctx, input.DocumentID)
	if err != nil {
		return nil, StatusOutput{}, err
	}

	output := StatusOutput{
		DocumentID:   doc.ID,
		Status:       doc.Status,
		Title:        doc.Title,
		PageCount:    doc.PageCount,
		ChunkCount:   doc.ChunkCount,
		ConceptCount: doc.ConceptCount,
	}
	return nil, output, nil
}

// handleRail handles the context_rail tool invocation.
func (s *Server) handleRail(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RailInput,
) (*mcp.CallToolResult, RailOutput, error) {
	rail, err := s.ports.Client.GetContextRail(ctx, input.QueryID)
	if err != nil {
		return nil, RailOutput{}, err
	}

	output := RailOutput{
		QueryID:     rail.QueryID,
		Query:       rail.Query,
		RetrievedAt: rail.RetrievedAt,
		Sources:     toSourceOutputs(rail.Sources),
		Summary:     rail.Summary,
	}
	return nil, output, nil
}

func toSourceOutputs(sources []sens.Source) []SourceOutput {
	out := make([]SourceOutput, len(sources))
	for i := range sources {
		out[i] = SourceOutput{
			DocumentID:      sources[i].DocumentID,
			DocumentTitle:   sources[i].DocumentTitle,
			Page:            sources[i].Page,
			Excerpt:         sources[i].Excerpt,
			ConfidenceScore: sources[i].ConfidenceScore,
			SemanticLayer:   sources[i].SemanticLayer,
			MatchedConcepts: sources[i].MatchedConcepts,
		}
	}
	return out
}
