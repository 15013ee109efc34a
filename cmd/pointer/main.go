package main

import (
	"fmt"
	"os"

	"pointer/internal/config"
	"pointer/internal/logging"

	"github.com/spf13/cobra"
)

var (
	version  = "0.1.0"
	cfgFile  string
	provider string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pointer",
		Short: "Chat-to-edit backend for the Pointer IDE",
		Long: `Pointer serves the chat API used by the Pointer IDE: it builds the project
prompt, calls Gemini, Groq or Ollama, and applies the code the model returns
to the in-memory project.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/pointer/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "provider to use (gemini, groq, ollama)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pointer version %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Version = version
	if provider != "" {
		cfg.API.DefaultProvider = provider
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) error {
	level := logging.ParseLevel(cfg.Logging.Level)
	format := logging.Format(cfg.Logging.Format)
	if cfg.Logging.Dir != "" {
		return logging.EnableFileLogging(cfg.Logging.Dir, level, format)
	}
	logging.Configure(level, format, nil)
	return nil
}
