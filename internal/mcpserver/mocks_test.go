package mcpserver

import (
	"context"

	"github.com/ecri0/sens-prism/sens"
)

// mockAPI is a mock implementation of the API port.
type mockAPI struct {
	document *sens.Document
	result   *sens.QueryResult
	rail     *sens.ContextRail
	err      error

	lastQuery      string
	lastQueryOpts  sens.QueryOptions
	lastPath       string
	lastUpload     sens.UploadOptions
	lastQueryID    string
	lastDocumentID string
}

func (m *mockAPI) UploadDocument(_ context.Context, path string, opts sens.UploadOptions) (*sens.Document, error) {
	m.lastPath = path
	m.lastUpload = opts
	return m.document, m.err
}

func (m *mockAPI) GetDocument(_ context.Context, documentID string) (*sens.Document, error) {
	m.lastDocumentID = documentID
	return m.document, m.err
}

func (m *mockAPI) Query(_ context.Context, query string, opts sens.QueryOptions) (*sens.QueryResult, error) {
	m.lastQuery = query
	m.lastQueryOpts = opts
	return m.result, m.err
}

func (m *mockAPI) GetContextRail(_ context.Context, queryID string) (*sens.ContextRail, error) {
	m.lastQueryID = queryID
	return m.rail, m.err
}
