package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecri0/sens-prism/internal/logger"
	"github.com/ecri0/sens-prism/sens"
)

var railJSON bool

var railCmd = &cobra.Command{
	Use:   "rail [query-id]",
	Short: "Show the context rail for a past query",
	Args:  cobra.ExactArgs(1),
	RunE:  runRail,
}

func init() {
	railCmd.Flags().BoolVar(&railJSON, "json", false, "print the raw rail as JSON")
	rootCmd.AddCommand(railCmd)
}

func runRail(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	logger.Request(http.MethodGet, client.BaseURL()+"/context-rail/"+args[0])
	rail, err := client.GetContextRail(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("context rail: %w", err)
	}

	if railJSON {
		data, err := json.MarshalIndent(rail, "", "  ")
		if err != nil {
			return fmt.Errorf("encode rail: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printContextRail(cmd, rail)
	return nil
}

func printContextRail(cmd *cobra.Command, rail *sens.ContextRail) {
	cmd.Printf("Context rail for %s\n", rail.QueryID)
	if rail.Query != "" {
		cmd.Printf("Query: %s\n", rail.Query)
	}
	if rail.RetrievedAt != "" {
		cmd.Printf("Retrieved: %s\n", rail.RetrievedAt)
	}
	for i, src := range rail.Sources {
		cmd.Println()
		cmd.Printf("  %d. %s", i+1, src.DocumentTitle)
		if src.Page > 0 {
			cmd.Printf(" (p. %d)", src.Page)
		}
		cmd.Printf(" - %.2f\n", src.ConfidenceScore)
		if src.SemanticLayer != "" {
			cmd.Printf("     layer: %s\n", src.SemanticLayer)
		}
		if src.Excerpt != "" {
			cmd.Printf("     %s\n", src.Excerpt)
		}
		if len(src.MatchedConcepts) > 0 {
			cmd.Printf("     concepts: %s\n", strings.Join(src.MatchedConcepts, ", "))
		}
		for _, insight := range src.PragmaticInsights {
			cmd.Printf("     insight: %s\n", insight)
		}
	}
	if len(rail.Summary) > 0 {
		cmd.Println("\nSummary:")
		for key, value := range rail.Summary {
			cmd.Printf("  %s: %v\n", key, value)
		}
	}
}
