package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/assessment-recommender/internal/ranker"
)

// Set with -ldflags "-X github.com/spigell/assessment-recommender/cmd.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the model type",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s (%s)\n", app, version, ranker.ModelType)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
