package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/filtering"
	"github.com/spigell/assessment-recommender/internal/metrics"
)

const (
	PromptRecommend   = "Recommend assessments"
	PromptPickRole    = "Recommend for a catalog job role"
	PromptReport      = "Report by category"
	PromptModelInfo   = "Model info"
	PromptFilters     = "Show filters"
	PromptHistory     = "History stats"
	PromptExit        = "Exit"
	PromptBack        = "back"
	reloadDebounce    = 500 * time.Millisecond
	metricsReadHeader = 5 * time.Second
)

var errExit = errors.New("exit requested")

var menu = promptui.Select{
	Label: "What next?",
	Items: []string{PromptRecommend, PromptPickRole, PromptReport, PromptModelInfo, PromptFilters, PromptHistory, PromptExit},
}

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"i"},
	Short:   "Ask for job roles in a loop; a catalog file is reloaded when it changes",
	Run: func(cmd *cobra.Command, _ []string) {
		runInteractive(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)

	interactiveCmd.Flags().String("metrics-listen", "", "serve prometheus metrics on this address, e.g. :9090")
	interactiveCmd.Flags().Bool("no-watch", false, "do not reload the catalog file on change")

	viper.BindPFlag("metrics.listen", interactiveCmd.Flags().Lookup("metrics-listen"))
}

func runInteractive(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	svc, err := newService(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the engine", zap.Error(err))
	}

	logger.Info("starting the assessor", zap.String("version", version))

	if config.Explain.Enabled {
		if err := svc.enableExplain(ctx); err != nil {
			logger.Warn("skipping explanation", zap.Error(err))
		}
	}

	if addr := config.Metrics.Listen; addr != "" {
		srv := serveMetrics(addr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	noWatch, _ := cmd.Flags().GetBool("no-watch")
	if source := config.Catalog.Source; source != "" && !catalog.IsRemote(source) && !noWatch {
		go watchCatalog(ctx, svc, source)
	}

	for {
		if ctx.Err() != nil {
			return
		}

		_, action, err := menu.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(ctx, action, svc); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Error("action failed", zap.String("action", action), zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, action string, svc *service) error {
	switch action {
	case PromptRecommend:
		jobRole, err := askJobRole()
		if err != nil {
			return err
		}
		return recommendAndPrint(ctx, svc, jobRole)
	case PromptPickRole:
		return pickRole(ctx, svc)
	case PromptReport:
		renderReport(os.Stdout, svc.catalog())
		return nil
	case PromptModelInfo:
		data, err := svc.modelInfoJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	case PromptFilters:
		for _, status := range filtering.Describe(svc.filters) {
			svc.logger.Info("filter", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled), zap.Any("details", status.Details))
		}
		return nil
	case PromptHistory:
		if svc.history == nil {
			svc.logger.Info("history is disabled")
			return nil
		}
		stats, err := svc.history.Stats(ctx)
		if err != nil {
			return err
		}
		return renderJSON(os.Stdout, stats)
	case PromptExit:
		svc.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func pickRole(ctx context.Context, svc *service) error {
	c := svc.catalog()
	items := make([]string, 0, len(c.JobRoles)+1)
	for _, r := range c.JobRoles {
		items = append(items, r.Name)
	}

	rolePrompt := promptui.Select{
		Label: "Choose a job role and press ENTER",
		Items: append(items, PromptBack),
		Size:  10,
	}

	_, selected, err := rolePrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return nil
	}

	jobRole, err := svc.resolveJobRole(selected, nil)
	if err != nil {
		return err
	}
	return recommendAndPrint(ctx, svc, jobRole)
}

func recommendAndPrint(ctx context.Context, svc *service, jobRole string) error {
	topK := svc.config.Ranking.TopK

	topKPrompt := promptui.Prompt{
		Label:   "How many assessments",
		Default: strconv.Itoa(topK),
		Validate: func(s string) error {
			k, err := strconv.Atoi(s)
			if err != nil {
				return err
			}
			return validateTopK(k, svc.config.Ranking.MaxTopK)
		},
	}
	if answer, err := topKPrompt.Run(); err == nil {
		topK, _ = strconv.Atoi(answer)
	}

	out, err := svc.recommend(ctx, jobRole, topK, true)
	if err != nil {
		return err
	}
	renderOutcome(os.Stdout, out)
	return nil
}

// watchCatalog retrains the engine whenever the catalog file changes.
func watchCatalog(ctx context.Context, svc *service, path string) {
	err := catalog.Watch(ctx, path, reloadDebounce, svc.logger, func() {
		if err := svc.reload(ctx); err != nil {
			svc.logger.Warn("catalog reload failed, keeping the current model", zap.Error(err))
		}
	})
	if err != nil {
		svc.logger.Warn("catalog watch stopped", zap.Error(err))
	}
}

func serveMetrics(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: metricsReadHeader}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}
