package sens

// Document lifecycle statuses reported by the API.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// Document is a point-in-time snapshot of an uploaded document. It is
// created by UploadDocument and refreshed by GetDocument; all mutation
// happens server-side.
type Document struct {
	// ID is the unique document identifier (e.g. "doc_8f2a").
	ID string `json:"id"`

	// Status is the processing lifecycle state: processing, ready or failed.
	Status string `json:"status"`

	// Title is the human-readable name supplied at upload, if any.
	Title string `json:"title,omitempty"`

	// SizeBytes is the stored size of the original file.
	SizeBytes int64 `json:"size_bytes,omitempty"`

	// Tags are the organisational labels attached at upload.
	Tags []string `json:"tags,omitempty"`

	// Timestamps are RFC 3339 strings as reported by the server.
	CreatedAt        string `json:"created_at,omitempty"`
	EstimatedReadyAt string `json:"estimated_ready_at,omitempty"`
	ReadyAt          string `json:"ready_at,omitempty"`

	// Post-processing metrics, populated once the document is ready.
	PageCount    int `json:"page_count,omitempty"`
	ChunkCount   int `json:"chunk_count,omitempty"`
	ConceptCount int `json:"concept_count,omitempty"`
}

// Source is a single attributed excerpt backing an answer. Inline query
// results carry only the terse fields; the context rail fills in excerpt,
// semantic layer, matched concepts and derived insights.
type Source struct {
	DocumentID    string `json:"document_id"`
	DocumentTitle string `json:"document_title,omitempty"`
	Page          int    `json:"page,omitempty"`
	Excerpt       string `json:"excerpt,omitempty"`

	// ConfidenceScore is the server-assigned relevance score in [0, 1].
	// The client never computes or re-validates it.
	ConfidenceScore float64 `json:"confidence_score,omitempty"`

	// SemanticLayer is the server-assigned label categorising the kind of
	// content this excerpt represents.
	SemanticLayer     string   `json:"semantic_layer,omitempty"`
	MatchedConcepts   []string `json:"matched_concepts,omitempty"`
	PragmaticInsights []string `json:"pragmatic_insights,omitempty"`
}

// QueryResult is the outcome of a single query. Sources are ordered by the
// server, relevance-decreasing; the client does not re-sort them.
type QueryResult struct {
	QueryID          string   `json:"query_id"`
	Query            string   `json:"query"`
	Answer           string   `json:"answer"`
	ConfidenceScore  float64  `json:"confidence_score"`
	ProcessingTimeMS int      `json:"processing_time_ms"`
	Sources          []Source `json:"sources"`
}

// ContextRail is the full attribution detail for a query, fetched
// separately by query id. The server retains rails for a limited window;
// an expired id surfaces as a not-found error.
type ContextRail struct {
	QueryID     string         `json:"query_id"`
	Query       string         `json:"query"`
	RetrievedAt string         `json:"retrieved_at"`
	Sources     []Source       `json:"sources"`
	Summary     map[string]any `json:"summary,omitempty"`
}
