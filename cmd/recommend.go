package cmd

import (
	"context"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [job role description...]",
	Short: "Recommend assessments for a job role",
	Example: `  assessor recommend Python developer with strong programming skills
  assessor recommend --role "Data Scientist" --top-k 3
  assessor recommend --category Technical --max-duration 60 backend engineer`,
	Run: func(cmd *cobra.Command, args []string) {
		runRecommend(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().IntP("top-k", "k", 5, "number of assessments to return")
	recommendCmd.Flags().StringP("role", "r", "", "use a job role from the catalog instead of free text")
	recommendCmd.Flags().Bool("no-history", false, "do not save the recommendation to the history file")
	recommendCmd.Flags().Bool("explain", false, "ask Gemini to explain the recommendation")
	recommendCmd.Flags().Bool("output-json", false, "print the result as JSON")
	recommendCmd.Flags().StringSlice("category", nil, "keep only assessments from these categories")
	recommendCmd.Flags().StringSlice("difficulty", nil, "keep only assessments of these difficulty levels")
	recommendCmd.Flags().Int("max-duration", 0, "drop assessments longer than this many minutes")
	recommendCmd.Flags().StringP("exclude-file", "e", "", "file with assessment names to exclude, one per line")

	viper.BindPFlag("ranking.top-k", recommendCmd.Flags().Lookup("top-k"))
	viper.BindPFlag("explain.enabled", recommendCmd.Flags().Lookup("explain"))
	viper.BindPFlag("filters.categories", recommendCmd.Flags().Lookup("category"))
	viper.BindPFlag("filters.difficulties", recommendCmd.Flags().Lookup("difficulty"))
	viper.BindPFlag("filters.max-duration", recommendCmd.Flags().Lookup("max-duration"))
	viper.BindPFlag("filters.exclude-file", recommendCmd.Flags().Lookup("exclude-file"))
}

func runRecommend(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	svc, err := newService(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the engine", zap.Error(err))
	}

	if config.Explain.Enabled {
		if err := svc.enableExplain(ctx); err != nil {
			logger.Warn("skipping explanation", zap.Error(err))
		}
	}

	role, _ := cmd.Flags().GetString("role")
	jobRole, err := svc.resolveJobRole(role, args)
	if err != nil {
		logger.Fatal("resolving job role", zap.Error(err))
	}

	if jobRole == "" {
		jobRole, err = askJobRole()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	noHistory, _ := cmd.Flags().GetBool("no-history")
	out, err := svc.recommend(ctx, jobRole, config.Ranking.TopK, !noHistory)
	if err != nil {
		logger.Fatal("recommending assessments", zap.Error(err))
	}

	if asJSON, _ := cmd.Flags().GetBool("output-json"); asJSON {
		if err := renderJSON(os.Stdout, out); err != nil {
			logger.Fatal("printing result", zap.Error(err))
		}
		return
	}
	renderOutcome(os.Stdout, out)
}

func askJobRole() (string, error) {
	prompt := promptui.Prompt{
		Label:    "Job role description",
		Validate: validateJobRole,
	}
	return prompt.Run()
}
