package cli

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecri0/sens-prism/internal/logger"
	"github.com/ecri0/sens-prism/sens"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Inspect or delete uploaded documents",
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show a document's current snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Permanently delete a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	logger.Request(http.MethodGet, client.BaseURL()+"/documents/"+args[0])
	doc, err := client.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	printDocument(cmd, doc)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	logger.Request(http.MethodDelete, client.BaseURL()+"/documents/"+args[0])
	if err := client.DeleteDocument(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

func printDocument(cmd *cobra.Command, doc *sens.Document) {
	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Status:   %s\n", doc.Status)
	if doc.Title != "" {
		cmd.Printf("  Title:    %s\n", doc.Title)
	}
	if doc.SizeBytes > 0 {
		cmd.Printf("  Size:     %d bytes\n", doc.SizeBytes)
	}
	if len(doc.Tags) > 0 {
		cmd.Printf("  Tags:     %s\n", strings.Join(doc.Tags, ", "))
	}
	if doc.CreatedAt != "" {
		cmd.Printf("  Created:  %s\n", doc.CreatedAt)
	}
	if doc.ReadyAt != "" {
		cmd.Printf("  Ready:    %s\n", doc.ReadyAt)
	}
	if doc.Status == sens.StatusReady {
		cmd.Printf("  Pages:    %d\n", doc.PageCount)
		cmd.Printf("  Chunks:   %d\n", doc.ChunkCount)
		cmd.Printf("  Concepts: %d\n", doc.ConceptCount)
	}
}
