package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/review"
	"github.com/jobsift/jobsift/internal/store"
)

var (
	reviewLimit  int
	reviewSource string
	reviewStatus string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse stored postings in a terminal UI",
	Long:  "Interactive review of stored postings: scroll, inspect details, open the external URL, deactivate.",
	RunE:  runReview,
}

func init() {
	reviewCmd.Flags().IntVar(&reviewLimit, "limit", 100, "maximum postings to load")
	reviewCmd.Flags().StringVar(&reviewSource, "source", "", "only postings from this source")
	reviewCmd.Flags().StringVar(&reviewStatus, "status", "", "only postings with this status")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

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

	return review.Run(context.Background(), st, store.ListFilter{
		Source: model.Source(reviewSource),
		Status: model.Status(reviewStatus),
		Limit:  reviewLimit,
	})
}
