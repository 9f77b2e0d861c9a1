package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecri0/sens-prism/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show locally recorded uploads and queries",
}

var historyUploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "List recent uploads, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryUploads,
}

var historyQueriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "List recent queries, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryQueries,
}

func init() {
	historyCmd.PersistentFlags().IntVar(&historyLimit, "limit", 20, "maximum number of entries to show")
	historyCmd.AddCommand(historyUploadsCmd)
	historyCmd.AddCommand(historyQueriesCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryUploads(cmd *cobra.Command, _ []string) error {
	store, err := history.NewStore(os.Getenv(envDataDir))
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	records, err := store.Uploads(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		cmd.Println("No uploads recorded.")
		return nil
	}

	for _, rec := range records {
		cmd.Printf("%s  %s  %s\n", rec.UploadedAt.Local().Format(time.DateTime), rec.DocumentID, rec.Path)
		if rec.Title != "" {
			cmd.Printf("%*stitle: %s\n", 21, "", rec.Title)
		}
		if len(rec.Tags) > 0 {
			cmd.Printf("%*stags:  %s\n", 21, "", strings.Join(rec.Tags, ", "))
		}
	}
	return nil
}

func runHistoryQueries(cmd *cobra.Command, _ []string) error {
	store, err := history.NewStore(os.Getenv(envDataDir))
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	records, err := store.Queries(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		cmd.Println("No queries recorded.")
		return nil
	}

	for _, rec := range records {
		cmd.Printf("%s  %s  (%.2f)\n", rec.AskedAt.Local().Format(time.DateTime), rec.QueryID, rec.Confidence)
		cmd.Printf("%*sQ: %s\n", 21, "", rec.Query)
		cmd.Printf("%*sA: %s\n", 21, "", truncate(rec.Answer, 120))
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
