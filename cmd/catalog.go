package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the assessment catalog the engine is trained on",
	Run: func(cmd *cobra.Command, _ []string) {
		runCatalog(cmd)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed PATH",
	Short: "Write the built-in sample catalog to a YAML file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSeed(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(seedCmd)

	catalogCmd.Flags().Bool("report", false, "group assessment names by category")
	catalogCmd.Flags().Bool("roles", false, "list the job roles instead of assessments")
	catalogCmd.Flags().Bool("output-json", false, "print the catalog as JSON")

	seedCmd.Flags().Bool("force", false, "overwrite a catalog that already has assessments")
}

func runCatalog(cmd *cobra.Command) {
	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	svc, err := newService(context.Background(), config, logger)
	if err != nil {
		logger.Fatal("loading the catalog", zap.Error(err))
	}
	c := svc.catalog()

	asJSON, _ := cmd.Flags().GetBool("output-json")
	report, _ := cmd.Flags().GetBool("report")
	roles, _ := cmd.Flags().GetBool("roles")

	switch {
	case report && asJSON:
		err = renderJSON(os.Stdout, c.ReportByCategory())
	case roles && asJSON:
		err = renderJSON(os.Stdout, c.JobRoles)
	case asJSON:
		err = renderJSON(os.Stdout, c.Assessments)
	case report:
		renderReport(os.Stdout, c)
	case roles:
		renderRoles(os.Stdout, c)
	default:
		renderCatalog(os.Stdout, c)
	}
	if err != nil {
		logger.Fatal("printing catalog", zap.Error(err))
	}
}

func runSeed(cmd *cobra.Command, path string) {
	logger := newLogger()
	force, _ := cmd.Flags().GetBool("force")

	result, err := catalog.Seed(path, force)
	if err != nil {
		logger.Fatal("seeding the catalog", zap.Error(err))
	}

	if result.AlreadySeeded {
		logger.Info("catalog already has assessments, use --force to overwrite",
			zap.String("path", result.Path),
			zap.Int("assessments", result.Assessments),
		)
		return
	}

	logger.Info("catalog seeded",
		zap.String("path", result.Path),
		zap.Int("assessments", result.Assessments),
		zap.Int("job_roles", result.JobRoles),
	)
	fmt.Printf("Use it with: %s --catalog %s recommend <job role>\n", app, result.Path)
}
