package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecri0/sens-prism/internal/logger"
	"github.com/ecri0/sens-prism/internal/mcpserver"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve query, upload and rail tools over MCP",
	Long: `Starts an MCP server exposing the query, upload_document,
document_status and context_rail tools. By default it speaks stdio for
use as a subprocess; with --port it serves streamable HTTP instead.`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVar(&mcpPort, "port", 0, "serve over HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	server, err := mcpserver.NewServer(&mcpserver.Ports{Client: client})
	if err != nil {
		return fmt.Errorf("creating mcp server: %w", err)
	}

	if mcpPort > 0 {
		addr := fmt.Sprintf(":%d", mcpPort)
		logger.Info("mcp server listening on %s", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}
	return server.Run(cmd.Context())
}
