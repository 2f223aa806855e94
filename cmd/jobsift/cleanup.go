package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var cleanupDays int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Hard-delete postings older than the cutoff",
	Long:  "Delete postings scraped more than --days ago. This is the only operation that removes rows; everything else soft-flags.",
	RunE:  runCleanup,
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 90, "delete postings scraped more than this many days ago")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	if cleanupDays < 1 {
		logger.Error("--days must be positive", "days", cleanupDays)
		os.Exit(1)
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	deleted, err := st.Cleanup(context.Background(), time.Duration(cleanupDays)*24*time.Hour)
	if err != nil {
		logger.Error("cleanup failed", "error", err)
		os.Exit(1)
	}

	logger.Info("cleanup finished", "deleted", deleted, "days", cleanupDays)
	return nil
}
