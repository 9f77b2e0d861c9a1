package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecri0/sens-prism/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive query browser",
	Long: `Opens a full-screen interactive session for querying documents and
browsing the sources and context rail of each answer.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := tui.Run(client); err != nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}
