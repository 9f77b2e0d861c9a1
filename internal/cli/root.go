// Package cli implements the sens command tree. Commands are thin
// adapters over the SDK client in package sens; configuration resolves
// flag > environment > config file > default.
package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecri0/sens-prism/internal/config"
	"github.com/ecri0/sens-prism/internal/history"
	"github.com/ecri0/sens-prism/internal/logger"
	"github.com/ecri0/sens-prism/sens"
)

// version is the CLI version, aligned with the SDK.
const version = sens.Version

// Environment overrides for the config and data locations. Used by tests
// and by users who keep state outside the home directory.
const (
	envConfigDir = "SENS_CONFIG_DIR"
	envDataDir   = "SENS_DATA_DIR"
)

var (
	flagVerbose bool
	flagAPIKey  string
	flagBaseURL string
	flagTimeout int
)

var rootCmd = &cobra.Command{
	Use:   "sens",
	Short: "Upload, query and inspect documents via the Sens Prism API",
	Long: `sens is the command-line companion for the Sens Prism
document-understanding API: upload documents, wait for processing,
ask natural-language questions, and inspect the context rail behind
every answer.

The API key is resolved from --api-key, the ` + sens.EnvAPIKey + `
environment variable, or the config file (sens config set-key).`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "API key (overrides config and "+sens.EnvAPIKey+")")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "API base URL override")
	rootCmd.PersistentFlags().IntVar(&flagTimeout, "timeout", 0, "request timeout in seconds")
}

// loadConfig reads the config file, degrading to an empty config when it
// is missing or unreadable. Commands still work with flags/env alone.
func loadConfig() config.Config {
	store, err := config.NewStore(os.Getenv(envConfigDir))
	if err != nil {
		logger.Warn("config unavailable: %v", err)
		return config.Config{}
	}
	cfg, err := store.Load()
	if err != nil {
		logger.Warn("config unreadable: %v", err)
		return config.Config{}
	}
	return cfg
}

// newClient builds an SDK client from the resolved configuration.
func newClient() (*sens.Client, error) {
	cfg := loadConfig()

	var opts []sens.Option
	key := flagAPIKey
	if key == "" {
		key = os.Getenv(sens.EnvAPIKey)
	}
	if key == "" {
		key = cfg.APIKey
	}
	if key != "" {
		opts = append(opts, sens.WithAPIKey(key))
	}

	baseURL := flagBaseURL
	if baseURL == "" {
		baseURL = cfg.BaseURL
	}
	if baseURL != "" {
		opts = append(opts, sens.WithBaseURL(baseURL))
	}

	timeout := flagTimeout
	if timeout == 0 {
		timeout = cfg.TimeoutSeconds
	}
	if timeout > 0 {
		opts = append(opts, sens.WithTimeout(time.Duration(timeout)*time.Second))
	}

	client, err := sens.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	logger.Debug("client configured for %s", client.BaseURL())
	return client, nil
}

// openHistory opens the local history store. History is best-effort:
// failures disable recording but never fail the command.
func openHistory() *history.Store {
	store, err := history.NewStore(os.Getenv(envDataDir))
	if err != nil {
		logger.Warn("history disabled: %v", err)
		return nil
	}
	return store
}
