package cli

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCmd_Subcommands(t *testing.T) {
	assert.Equal(t, "history", historyCmd.Use)
	assert.Equal(t, "uploads", historyUploadsCmd.Use)
	assert.Equal(t, "queries", historyQueriesCmd.Use)
}

func TestHistoryCmd_LimitFlag(t *testing.T) {
	flag := historyCmd.PersistentFlags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "20", flag.DefValue)
}

func TestHistoryUploads_Empty(t *testing.T) {
	t.Setenv(envDataDir, t.TempDir())

	out, err := execute(t, nil, "history", "uploads")

	require.NoError(t, err)
	assert.Contains(t, out, "No uploads recorded.")
}

func TestHistoryQueries_Empty(t *testing.T) {
	t.Setenv(envDataDir, t.TempDir())

	out, err := execute(t, nil, "history", "queries")

	require.NoError(t, err)
	assert.Contains(t, out, "No queries recorded.")
}

func TestHistory_RecordsUploadAndQuery(t *testing.T) {
	t.Setenv(envDataDir, t.TempDir())

	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("notes"), 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodPost && r.URL.Path == "/query" {
			_, _ = w.Write([]byte(queryResponse))
			return
		}
		_, _ = w.Write([]byte(`{"id": "doc_h1", "status": "processing"}`))
	}))
	defer srv.Close()

	_, err := execute(t, srv, "upload", path)
	require.NoError(t, err)

	_, err = execute(t, srv, "query", "refund policy")
	require.NoError(t, err)

	out, err := execute(t, nil, "history", "uploads")
	require.NoError(t, err)
	assert.Contains(t, out, "doc_h1")
	assert.Contains(t, out, path)

	out, err = execute(t, nil, "history", "queries")
	require.NoError(t, err)
	assert.Contains(t, out, "q_77")
	assert.Contains(t, out, "Q: what is the refund policy")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "0123...", truncate("0123456789", 7))
}
