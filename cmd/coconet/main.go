package main

import (
	"fmt"
	"os"

	"coconet/internal/config"
	"coconet/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagVerbose bool
	flagJSON    bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "coconet",
	Short: "Browse project and study recruiting articles from the terminal",
	Long: `coconet talks to the article and member services behind the web client.

Configuration comes from COCONET_* environment variables, optionally loaded
from a .env file in the working directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load(".env")
		cfg = config.Load()
		level := cfg.LogLevel
		if flagVerbose {
			level = "debug"
		}
		var err error
		logger, err = logging.New(level)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "print JSON instead of a table")

	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(articleCmd)
	rootCmd.AddCommand(popularCmd)
	rootCmd.AddCommand(nameCheckCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
