// Command dreamctl maintains the keyword index and runs the oracle from a terminal.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dream-oracle/internal/config"
	"dream-oracle/internal/logging"
)

var (
	envFile      string
	keywordsPath string
	verbose      bool
	timeout      time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "dreamctl",
	Short:         "Dream Oracle maintenance tool",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to load")
	rootCmd.PersistentFlags().StringVarP(&keywordsPath, "keywords", "k", "", "keyword index file (default: KEYWORDS_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(interpretCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment without validating transport credentials,
// which maintenance commands do not need.
func loadConfig() (*config.Config, error) {
	_ = config.LoadDotEnv(envFile)
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if keywordsPath != "" {
		cfg.KeywordsPath = keywordsPath
	}
	return cfg, nil
}

func newLogger() *zap.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, true)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
