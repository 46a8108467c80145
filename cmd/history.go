package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show saved recommendations",
	Run: func(cmd *cobra.Command, _ []string) {
		runHistory(cmd)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Bool("stats", false, "print totals only")
	historyCmd.Flags().Int("last", 0, "print only the last N records")
}

func runHistory(cmd *cobra.Command) {
	ctx := context.Background()
	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if strings.TrimSpace(config.History.File) == "" {
		logger.Fatal("history file is not configured")
	}

	store := history.NewStore(config.History.File)

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		s, err := store.Stats(ctx)
		if err != nil {
			logger.Fatal("reading history", zap.Error(err))
		}
		if err := renderJSON(os.Stdout, s); err != nil {
			logger.Fatal("printing history", zap.Error(err))
		}
		return
	}

	records, err := store.List(ctx)
	if err != nil {
		logger.Fatal("reading history", zap.Error(err))
	}

	last, _ := cmd.Flags().GetInt("last")
	records = lastRecords(records, last)

	if len(records) == 0 {
		fmt.Println("History is empty.")
		return
	}
	for _, r := range records {
		fmt.Printf("%s  %s\n", mutedStyle.Render(r.Timestamp.Format("2006-01-02 15:04:05")), headerStyle.Render(r.JobRole))
		if len(r.Recommended) == 0 {
			fmt.Println("    (nothing recommended)")
			continue
		}
		fmt.Printf("    %s  [%.2f%%]\n", strings.Join(r.Recommended, ", "), r.ConfidenceScore)
	}
}

// lastRecords keeps the newest n records. n <= 0 keeps everything.
func lastRecords(records []history.Record, n int) []history.Record {
	if n <= 0 || n >= len(records) {
		return records
	}
	return records[len(records)-n:]
}
