package sens

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Version is the client version reported in the User-Agent header.
const Version = "0.4.0"

// Default configuration values.
const (
	// DefaultBaseURL is the production API endpoint.
	DefaultBaseURL = "https://api.sens.ai/v1"

	// DefaultTimeout is the per-request timeout on the transport.
	DefaultTimeout = 30 * time.Second

	// DefaultQueryLimit is the number of source chunks returned per query.
	DefaultQueryLimit = 3

	// DefaultConfidenceThreshold is the minimum source score; the server,
	// not the client, enforces the [0, 1] range.
	DefaultConfidenceThreshold = 0.5

	// EnvAPIKey is the environment variable consulted when no key is
	// passed explicitly.
	EnvAPIKey = "SENS_API_KEY"

	userAgent = "sens-prism-go/" + Version
)

// codeLocalValidation is the machine code the service uses for request
// validation failures; local pre-network failures reuse it.
const codeLocalValidation = "SENS_003"

// Client is the Sens Prism API client. It is safe for reuse across
// sequential calls; callers parallelise calls as they see fit. Every
// operation performs exactly one request/response round trip and never
// retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	timeout    time.Duration

	closeOnce sync.Once
}

// Option configures a Client during construction.
type Option func(*Client)

// WithAPIKey sets the API key explicitly, taking precedence over the
// SENS_API_KEY environment variable.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithBaseURL overrides the production endpoint. Trailing slashes are
// trimmed.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithHTTPClient supplies a custom transport. The timeout option is
// ignored when set; the caller owns the transport's configuration.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates a Sens Prism client. The API key comes from WithAPIKey
// or, failing that, the SENS_API_KEY environment variable; without one the
// constructor fails with ErrMissingAPIKey before any network call.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		c.apiKey = os.Getenv(EnvAPIKey)
	}
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	c.baseURL = strings.TrimRight(c.baseURL, "/")
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}

	return c, nil
}

// Close releases the transport's idle connections. Safe to call more than
// once; only the first call has effect.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.httpClient.CloseIdleConnections()
	})
}

// BaseURL returns the configured API endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UploadOptions are the optional metadata fields for UploadDocument.
type UploadOptions struct {
	// Title is a human-readable document name.
	Title string

	// Tags are organisational labels (e.g. "legal", "contract").
	Tags []string
}

// UploadDocument uploads a file to be processed and indexed. The returned
// Document starts in the processing state; poll GetDocument until it is
// ready. A missing file fails locally with a validation error and no
// request is issued.
func (c *Client) UploadDocument(ctx context.Context, path string, opts UploadOptions) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &APIError{
			Kind:    KindValidation,
			Message: fmt.Sprintf("file not found: %s", path),
			Code:    codeLocalValidation,
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", file.Name())
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if opts.Title != "" {
		if err := writer.WriteField("title", opts.Title); err != nil {
			return nil, fmt.Errorf("write title field: %w", err)
		}
	}
	if len(opts.Tags) > 0 {
		if err := writer.WriteField("tags", strings.Join(opts.Tags, ",")); err != nil {
			return nil, fmt.Errorf("write tags field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	var doc Document
	if err := c.do(ctx, http.MethodPost, "/documents", writer.FormDataContentType(), &buf, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetDocument fetches the current snapshot of a document's metadata and
// processing status. A missing document surfaces as a not-found error.
func (c *Client) GetDocument(ctx context.Context, documentID string) (*Document, error) {
	var doc Document
	if err := c.do(ctx, http.MethodGet, "/documents/"+documentID, "", nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument permanently deletes a document.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	return c.do(ctx, http.MethodDelete, "/documents/"+documentID, "", nil, nil)
}

// QueryOptions narrow and tune a query. The zero value queries all
// documents with the default limit and confidence threshold.
type QueryOptions struct {
	// DocumentIDs restricts the query to specific documents.
	// Empty means the whole indexed corpus.
	DocumentIDs []string

	// Tags filters the searched documents by tag.
	Tags []string

	// Limit is the maximum number of source chunks to include.
	// Zero or negative means DefaultQueryLimit.
	Limit int

	// ConfidenceThreshold is the minimum source score. Zero means
	// DefaultConfidenceThreshold; the server treats the value as
	// authoritative and enforces the [0, 1] range.
	ConfidenceThreshold float64
}

// queryRequest is the POST /query wire format.
type queryRequest struct {
	Query               string   `json:"query"`
	Limit               int      `json:"limit"`
	ConfidenceThreshold float64  `json:"confidence_threshold"`
	DocumentIDs         []string `json:"document_ids,omitempty"`
	Tags                []string `json:"tags,omitempty"`
}

// Query runs a natural-language query against the indexed documents.
// Querying a document that is still processing surfaces as a conflict
// error.
func (c *Client) Query(ctx context.Context, query string, opts QueryOptions) (*QueryResult, error) {
	reqBody := queryRequest{
		Query:               query,
		Limit:               opts.Limit,
		ConfidenceThreshold: opts.ConfidenceThreshold,
		DocumentIDs:         opts.DocumentIDs,
		Tags:                opts.Tags,
	}
	if reqBody.Limit <= 0 {
		reqBody.Limit = DefaultQueryLimit
	}
	if reqBody.ConfidenceThreshold == 0 {
		reqBody.ConfidenceThreshold = DefaultConfidenceThreshold
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	var result QueryResult
	if err := c.do(ctx, http.MethodPost, "/query", "application/json", bytes.NewReader(payload), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetContextRail fetches the detailed attribution record for a past query:
// excerpts, semantic layers, matched concepts and derived insights. Rails
// are retained server-side for a limited window; an expired query id
// surfaces as a not-found error.
func (c *Client) GetContextRail(ctx context.Context, queryID string) (*ContextRail, error) {
	var rail ContextRail
	if err := c.do(ctx, http.MethodGet, "/context-rail/"+queryID, "", nil, &rail); err != nil {
		return nil, err
	}
	return &rail, nil
}

// do performs one request/response round trip. A 2xx status decodes the
// body into out; any other status maps to an APIError. Malformed success
// bodies decode as an empty object, so optional fields degrade to their
// zero values instead of failing the call.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.New().String())
	// Multipart uploads pass their boundary content type; everything
	// else speaks JSON, including bodyless GET and DELETE.
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		if out != nil && len(data) > 0 {
			// Tolerate malformed bodies: the call succeeded, the
			// decoded record just stays at its defaults.
			_ = json.Unmarshal(data, out)
		}
		return nil
	}

	return errorFromResponse(resp.StatusCode, data, resp.Header)
}
