package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var modelCmd = &cobra.Command{
	Use:   "model-info",
	Short: "Train on the catalog and print the model description",
	Run: func(cmd *cobra.Command, _ []string) {
		runModelInfo(cmd)
	},
}

func init() {
	rootCmd.AddCommand(modelCmd)

	modelCmd.Flags().Bool("vocabulary", false, "also print the selected terms with their idf")
}

type vocabularyTerm struct {
	Term string  `json:"term"`
	IDF  float64 `json:"idf"`
}

func runModelInfo(cmd *cobra.Command) {
	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	svc, err := newService(context.Background(), config, logger)
	if err != nil {
		logger.Fatal("preparing the engine", zap.Error(err))
	}

	data, err := svc.modelInfoJSON()
	if err != nil {
		logger.Fatal("encoding model info", zap.Error(err))
	}
	fmt.Println(string(data))

	if vocab, _ := cmd.Flags().GetBool("vocabulary"); vocab {
		if err := renderJSON(os.Stdout, svc.vocabulary()); err != nil {
			logger.Fatal("printing vocabulary", zap.Error(err))
		}
	}
}

func (s *service) vocabulary() []vocabularyTerm {
	ix := s.engine.Index()
	if ix == nil {
		return nil
	}

	terms := ix.Vocabulary()
	out := make([]vocabularyTerm, 0, len(terms))
	for _, t := range terms {
		idf, _ := ix.IDF(t)
		out = append(out, vocabularyTerm{Term: t, IDF: idf})
	}
	return out
}
