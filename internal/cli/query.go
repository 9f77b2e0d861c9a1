package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecri0/sens-prism/internal/history"
	"github.com/ecri0/sens-prism/internal/logger"
	"github.com/ecri0/sens-prism/sens"
)

var (
	queryDocIDs    []string
	queryTags      []string
	queryLimit     int
	queryThreshold float64
	queryJSON      bool
	queryRail      bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Ask a question across your uploaded documents",
	Long: `Runs a natural-language query against processed documents and prints
the answer with its supporting sources. Use --doc or --tag to narrow
the scope, and --rail to fetch the full context rail afterwards.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringArrayVar(&queryDocIDs, "doc", nil, "restrict to specific document IDs (repeatable)")
	queryCmd.Flags().StringArrayVar(&queryTags, "tag", nil, "restrict to documents carrying a tag (repeatable)")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "maximum number of sources to return")
	queryCmd.Flags().Float64Var(&queryThreshold, "threshold", 0, "minimum source confidence (0..1)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the raw result as JSON")
	queryCmd.Flags().BoolVar(&queryRail, "rail", false, "fetch and print the context rail after the answer")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	text := strings.Join(args, " ")
	opts := sens.QueryOptions{
		DocumentIDs:         queryDocIDs,
		Tags:                queryTags,
		Limit:               queryLimit,
		ConfidenceThreshold: queryThreshold,
	}

	start := time.Now()
	logger.Request(http.MethodPost, client.BaseURL()+"/query")
	result, err := client.Query(cmd.Context(), text, opts)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	logger.Debug("query %s answered in %s", result.QueryID, time.Since(start).Round(time.Millisecond))

	recordQuery(cmd.Context(), result)

	if queryJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		cmd.Println(string(data))
	} else {
		printQueryResult(cmd, result)
	}

	if queryRail {
		logger.Request(http.MethodGet, client.BaseURL()+"/context-rail/"+result.QueryID)
		rail, err := client.GetContextRail(cmd.Context(), result.QueryID)
		if err != nil {
			return fmt.Errorf("context rail: %w", err)
		}
		cmd.Println()
		printContextRail(cmd, rail)
	}
	return nil
}

func printQueryResult(cmd *cobra.Command, result *sens.QueryResult) {
	cmd.Printf("%s\n\n", result.Answer)
	cmd.Printf("Confidence: %.2f  (%d ms, query %s)\n", result.ConfidenceScore, result.ProcessingTimeMS, result.QueryID)
	if len(result.Sources) == 0 {
		return
	}
	cmd.Println("\nSources:")
	for i, src := range result.Sources {
		printSource(cmd, i+1, src)
	}
}

func printSource(cmd *cobra.Command, n int, src sens.Source) {
	cmd.Printf("  %d. %s", n, src.DocumentTitle)
	if src.Page > 0 {
		cmd.Printf(" (p. %d)", src.Page)
	}
	cmd.Printf(" - %.2f\n", src.ConfidenceScore)
	if src.Excerpt != "" {
		cmd.Printf("     %s\n", src.Excerpt)
	}
	if len(src.MatchedConcepts) > 0 {
		cmd.Printf("     concepts: %s\n", strings.Join(src.MatchedConcepts, ", "))
	}
}

// recordQuery stores the query locally; failures only warn.
func recordQuery(ctx context.Context, result *sens.QueryResult) {
	store := openHistory()
	if store == nil {
		return
	}
	defer store.Close()

	err := store.RecordQuery(ctx, history.QueryRecord{
		QueryID:    result.QueryID,
		Query:      result.Query,
		Answer:     result.Answer,
		Confidence: result.ConfidenceScore,
		AskedAt:    time.Now(),
	})
	if err != nil {
		logger.Warn("recording query: %v", err)
	}
}
