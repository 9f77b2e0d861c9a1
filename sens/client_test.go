package sens

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points a client at a httptest server and counts requests.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int64) {
	t.Helper()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(WithAPIKey("sens_sk_test"), WithBaseURL(server.URL))
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client, &calls
}

// writeTestFile creates a small document under t.TempDir.
func writeTestFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("prism overview"), 0o600))
	return path
}

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	client, err := NewClient()

	assert.Nil(t, client)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewClient_KeyFromEnvironment(t *testing.T) {
	t.Setenv(EnvAPIKey, "sens_sk_env")

	client, err := NewClient()

	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "sens_sk_env", client.apiKey)
}

func TestNewClient_ExplicitKeyWinsOverEnvironment(t *testing.T) {
	t.Setenv(EnvAPIKey, "sens_sk_env")

	client, err := NewClient(WithAPIKey("sens_sk_explicit"))

	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "sens_sk_explicit", client.apiKey)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client, err := NewClient(WithAPIKey("k"), WithBaseURL("https://example.test/v1/"))

	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "https://example.test/v1", client.BaseURL())
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(WithAPIKey("k"))

	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, DefaultBaseURL, client.BaseURL())
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
}

func TestClient_Close_Idempotent(t *testing.T) {
	client, err := NewClient(WithAPIKey("k"))
	require.NoError(t, err)

	client.Close()
	client.Close()
}

func TestUploadDocument_Accepted(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/documents", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"id":"doc_1","status":"processing"}`))
	})

	doc, err := client.UploadDocument(context.Background(), writeTestFile(t), UploadOptions{})

	require.NoError(t, err)
	assert.Equal(t, "doc_1", doc.ID)
	assert.Equal(t, StatusProcessing, doc.Status)
	assert.Empty(t, doc.Title)
	assert.Empty(t, doc.Tags)
	assert.Zero(t, doc.SizeBytes)
	assert.Zero(t, doc.PageCount)
}

func TestUploadDocument_SendsMultipartFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Prism Overview", r.FormValue("title"))
		assert.Equal(t, "product,docs", r.FormValue("tags"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, "Bearer sens_sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))

		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"id":"doc_2","status":"processing"}`))
	})

	doc, err := client.UploadDocument(context.Background(), writeTestFile(t), UploadOptions{
		Title: "Prism Overview",
		Tags:  []string{"product", "docs"},
	})

	require.NoError(t, err)
	assert.Equal(t, "doc_2", doc.ID)
}

func TestUploadDocument_MissingFile_NoRequest(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	doc, err := client.UploadDocument(context.Background(), "/nonexistent/nope.pdf", UploadOptions{})

	assert.Nil(t, doc)
	assert.True(t, IsValidation(err))
	assert.Zero(t, calls.Load(), "no request should be issued for a missing file")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, codeLocalValidation, apiErr.Code)
	assert.Zero(t, apiErr.StatusCode)
}

func TestUploadDocument_PayloadTooLarge(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		w.Write([]byte(`{"message":"file exceeds plan limit","code":"SENS_413"}`))
	})

	_, err := client.UploadDocument(context.Background(), writeTestFile(t), UploadOptions{})

	assert.True(t, IsPayloadTooLarge(err))
}

func TestGetDocument(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/documents/doc_1", r.URL.Path)
		json.NewEncoder(w).Encode(Document{
			ID:           "doc_1",
			Status:       StatusReady,
			Title:        "Prism Overview",
			SizeBytes:    2048,
			Tags:         []string{"product"},
			ReadyAt:      "2026-01-02T15:04:05Z",
			PageCount:    4,
			ChunkCount:   12,
			ConceptCount: 31,
		})
	})

	doc, err := client.GetDocument(context.Background(), "doc_1")

	require.NoError(t, err)
	assert.Equal(t, StatusReady, doc.Status)
	assert.Equal(t, 12, doc.ChunkCount)
	assert.Equal(t, []string{"product"}, doc.Tags)
}

func TestGetDocument_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"document not found","code":"SENS_404"}`))
	})

	doc, err := client.GetDocument(context.Background(), "doc_missing")

	assert.Nil(t, doc)
	assert.True(t, IsNotFound(err))
}

func TestGetDocument_EmptyIDGoesToServer(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents/", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"document not found","code":"SENS_404"}`))
	})

	// Ids are not validated locally; the server is authoritative.
	doc, err := client.GetDocument(context.Background(), "")

	assert.Nil(t, doc)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, int64(1), calls.Load())
}

func TestGetDocument_SendsJSONContentType(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		json.NewEncoder(w).Encode(Document{ID: "doc_1", Status: StatusProcessing})
	})

	_, err := client.GetDocument(context.Background(), "doc_1")

	require.NoError(t, err)
}

func TestDeleteDocument(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/documents/doc_1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.DeleteDocument(context.Background(), "doc_1")

	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestDeleteDocument_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.DeleteDocument(context.Background(), "doc_missing")

	assert.True(t, IsNotFound(err))
}

func TestQuery_DefaultsAndDecoding(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req queryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what are the key features?", req.Query)
		assert.Equal(t, DefaultQueryLimit, req.Limit)
		assert.Equal(t, DefaultConfidenceThreshold, req.ConfidenceThreshold)
		assert.Empty(t, req.DocumentIDs)
		assert.Empty(t, req.Tags)

		json.NewEncoder(w).Encode(QueryResult{
			QueryID:          "q_1",
			Query:            req.Query,
			Answer:           "Distill, Protect, Inject.",
			ConfidenceScore:  0.91,
			ProcessingTimeMS: 420,
			Sources: []Source{
				{DocumentID: "doc_1", DocumentTitle: "Prism Overview", Page: 2, ConfidenceScore: 0.93},
				{DocumentID: "doc_1", Page: 3, ConfidenceScore: 0.71},
			},
		})
	})

	result, err := client.Query(context.Background(), "what are the key features?", QueryOptions{})

	require.NoError(t, err)
	assert.Equal(t, "q_1", result.QueryID)
	assert.Equal(t, 0.91, result.ConfidenceScore)
	require.Len(t, result.Sources, 2)
	// Server ordering is preserved verbatim.
	assert.Equal(t, 0.93, result.Sources[0].ConfidenceScore)
	assert.Equal(t, 0.71, result.Sources[1].ConfidenceScore)
}

func TestQuery_ExplicitOptions(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 5, req.Limit)
		assert.Equal(t, 0.7, req.ConfidenceThreshold)
		assert.Equal(t, []string{"doc_1", "doc_2"}, req.DocumentIDs)
		assert.Equal(t, []string{"legal"}, req.Tags)

		json.NewEncoder(w).Encode(QueryResult{QueryID: "q_2", Answer: "ok"})
	})

	_, err := client.Query(context.Background(), "pricing?", QueryOptions{
		DocumentIDs:         []string{"doc_1", "doc_2"},
		Tags:                []string{"legal"},
		Limit:               5,
		ConfidenceThreshold: 0.7,
	})

	require.NoError(t, err)
}

func TestQuery_RateLimited(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"slow down","code":"SENS_429"}`))
	})

	result, err := client.Query(context.Background(), "anything", QueryOptions{})

	assert.Nil(t, result)
	require.True(t, IsRateLimited(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "slow down", apiErr.Message)
	assert.Equal(t, "SENS_429", apiErr.Code)
	assert.Equal(t, 5*time.Second, apiErr.RetryAfter)
}

func TestQuery_ConflictWhileProcessing(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"document doc_1 is still processing","code":"SENS_409"}`))
	})

	_, err := client.Query(context.Background(), "anything", QueryOptions{DocumentIDs: []string{"doc_1"}})

	assert.True(t, IsConflict(err))
}

func TestGetContextRail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/context-rail/q_1", r.URL.Path)
		json.NewEncoder(w).Encode(ContextRail{
			QueryID:     "q_1",
			Query:       "what are the key features?",
			RetrievedAt: "2026-01-02T15:04:05Z",
			Sources: []Source{{
				DocumentID:      "doc_1",
				DocumentTitle:   "Prism Overview",
				Page:            2,
				Excerpt:         "Distill: Extract meaning from documents",
				ConfidenceScore: 0.93,
				SemanticLayer:   "semantic",
				MatchedConcepts: []string{"distill", "interpretability"},
			}},
			Summary: map[string]any{"total_sources": float64(1)},
		})
	})

	rail, err := client.GetContextRail(context.Background(), "q_1")

	require.NoError(t, err)
	assert.Equal(t, "q_1", rail.QueryID)
	require.Len(t, rail.Sources, 1)
	assert.Equal(t, "semantic", rail.Sources[0].SemanticLayer)
	assert.Equal(t, "Distill: Extract meaning from documents", rail.Sources[0].Excerpt)
	assert.Equal(t, float64(1), rail.Summary["total_sources"])
}

func TestGetContextRail_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rail, err := client.GetContextRail(context.Background(), "q_123")

	assert.Nil(t, rail)
	assert.True(t, IsNotFound(err))
}

func TestDo_UnparseableSuccessBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`this is not json`))
	})

	doc, err := client.GetDocument(context.Background(), "doc_1")

	// A 2xx with a bad body is treated as an empty object, never an error.
	require.NoError(t, err)
	assert.Empty(t, doc.ID)
	assert.Empty(t, doc.Status)
}

func TestDo_AuthFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid API key","code":"SENS_401"}`))
	})

	_, err := client.GetDocument(context.Background(), "doc_1")

	assert.True(t, IsAuth(err))
}

func TestDo_ServiceUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"message":"maintenance window"}`))
	})

	_, err := client.GetDocument(context.Background(), "doc_1")

	require.True(t, IsUnavailable(err))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 30*time.Second, apiErr.RetryAfter)
}

func TestGoQuery_DeliversOneResult(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(QueryResult{QueryID: "q_async", Answer: "yes"})
	})

	outcome := <-client.GoQuery(context.Background(), "async?", QueryOptions{})

	require.NoError(t, outcome.Err)
	assert.Equal(t, "q_async", outcome.Result.QueryID)
}

func TestGoQuery_ChannelClosesAfterDelivery(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(QueryResult{QueryID: "q_async"})
	})

	ch := client.GoQuery(context.Background(), "async?", QueryOptions{})
	<-ch

	_, open := <-ch
	assert.False(t, open)
}

func TestGoUploadDocument_PropagatesErrors(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	outcome := <-client.GoUploadDocument(context.Background(), "/nonexistent/nope.pdf", UploadOptions{})

	assert.Nil(t, outcome.Document)
	assert.True(t, IsValidation(outcome.Err))
	assert.Zero(t, calls.Load())
}
