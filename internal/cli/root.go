package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"faqbot/config"
	"faqbot/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "faqbot",
	Short: "FAQ chatbot for Indian patent and BIS certification questions",
	Long: `faqbot answers questions about Indian patents and BIS certification
from two FAQ documents. Questions are routed by keyword to the matching
collection, the nearest FAQ chunks are retrieved, and a chat model writes
the answer from them.

Example usage:
  faqbot ingest                          # Load the configured FAQ PDFs
  faqbot ask -q "How long is a patent valid?"
  faqbot chat                            # Interactive terminal chat
  faqbot serve                           # HTTP API and web page`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to load .env", "error", err)
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := logging.Setup(cfg.Logging); err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./faqbot.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
