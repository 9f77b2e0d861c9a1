package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ecri0/sens-prism/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stored client configuration",
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [api-key]",
	Short: "Store the API key",
	Long: `Stores the API key in the local config file. When no argument is
given and stdin is a terminal, the key is prompted for without echo.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigSetKey,
}

var configSetURLCmd = &cobra.Command{
	Use:   "set-url [base-url]",
	Short: "Store a non-default API base URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetURL,
}

var configSetTimeoutCmd = &cobra.Command{
	Use:   "set-timeout [seconds]",
	Short: "Store the request timeout in seconds",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetTimeout,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configSetURLCmd)
	configCmd.AddCommand(configSetTimeoutCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	var key string
	if len(args) == 1 {
		key = strings.TrimSpace(args[0])
	} else {
		read, err := promptAPIKey(cmd)
		if err != nil {
			return err
		}
		key = read
	}
	if key == "" {
		return fmt.Errorf("api key must not be empty")
	}

	store, err := openConfig()
	if err != nil {
		return err
	}
	cfg, err := store.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.APIKey = key
	if err := store.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	cmd.Printf("API key stored in %s\n", store.Path())
	return nil
}

func promptAPIKey(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no api key given and stdin is not a terminal")
	}
	cmd.Print("API key: ")
	raw, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", fmt.Errorf("read api key: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func runConfigSetURL(cmd *cobra.Command, args []string) error {
	url := strings.TrimSpace(args[0])
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("base url must start with http:// or https://")
	}

	store, err := openConfig()
	if err != nil {
		return err
	}
	cfg, err := store.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.BaseURL = url
	if err := store.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	cmd.Printf("Base URL set to %s\n", url)
	return nil
}

func runConfigSetTimeout(cmd *cobra.Command, args []string) error {
	var seconds int
	if _, err := fmt.Sscanf(args[0], "%d", &seconds); err != nil || seconds <= 0 {
		return fmt.Errorf("timeout must be a positive number of seconds")
	}

	store, err := openConfig()
	if err != nil {
		return err
	}
	cfg, err := store.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.TimeoutSeconds = seconds
	if err := store.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	cmd.Printf("Timeout set to %ds\n", seconds)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := openConfig()
	if err != nil {
		return err
	}
	cfg, err := store.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cmd.Printf("Config file: %s\n\n", store.Path())
	cmd.Printf("  API key:  %s\n", maskKey(cfg.APIKey))
	if cfg.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", cfg.BaseURL)
	}
	if cfg.TimeoutSeconds > 0 {
		cmd.Printf("  Timeout:  %ds\n", cfg.TimeoutSeconds)
	}
	return nil
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func openConfig() (*config.Store, error) {
	store, err := config.NewStore(os.Getenv(envConfigDir))
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	return store, nil
}
