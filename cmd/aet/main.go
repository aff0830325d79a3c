// Command aet runs and inspects Academic Error Tracker consolidations from
// the command line.
//
//	aet refresh                      consolidate once; exit 1 on failure
//	aet sources                      print the source catalog
//	aet import <sourceID> <file.csv> load a tracker export into the store
//	aet runs                         print recent refreshes
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/aet/internal/config"
	"github.com/JonMunkholm/aet/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	envFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "aet",
	Short: "Consolidate program error trackers into one table",
	Long: `aet aggregates every program's error tracker into the consolidated table,
normalizes grades, condenses subjects and classifies lesson-code levels.

Configuration is read from the environment (and an optional .env file);
see STORE_DRIVER, DATABASE_URL, SQLITE_PATH and SOURCE_KIND.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load variables from this file (default: .env if present)")

	rootCmd.AddCommand(refreshCmd, sourcesCmd, importCmd, runsCmd)
}

// loadConfig reads the env file and configuration before any subcommand.
// Logs go to stderr so stdout carries only command output.
func loadConfig(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := godotenv.Overload(envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	} else {
		_ = godotenv.Overload() // .env is optional
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
