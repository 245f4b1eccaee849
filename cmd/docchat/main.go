package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docchat/cmd/docchat/chat"
	"docchat/internal/config"
	"docchat/internal/logging"
)

var (
	// Global flags
	configPath string
	backendURL string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "docchat - terminal client for the document-chat backend",
	Long: `docchat is an interactive terminal chat client.

It talks to the document-chat HTTP backend, offering an open-domain chat,
a document-grounded chat, and a PDF upload flow. The connection is probed
continuously; the client keeps working (and recovering) across backend
restarts.

Run without arguments to start the interactive chat interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A local .env can carry the DOCCHAT_* overrides.
		_ = godotenv.Load()

		path := configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		if backendURL != "" {
			cfg.Backend.BaseURL = backendURL
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		// The interactive TUI owns the terminal; only subcommands get a
		// console core.
		logger, err = logging.New(logging.Config{
			File:    cfg.GetLogFile(),
			Level:   cfg.Logging.Level,
			Console: cmd.Name() != cmd.Root().Name() && verbose,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return chat.Run(cfg, logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.docchat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Backend base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(clearDocCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(stubCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
