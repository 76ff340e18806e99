package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"swift-ai-market/internal/bootstrap"
	"swift-ai-market/internal/config"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/internal/repository/unitofwork"
	"swift-ai-market/internal/service"
	"swift-ai-market/pkg/database"
	"swift-ai-market/pkg/llm/factory"
	"swift-ai-market/pkg/popularity"
	"swift-ai-market/pkg/reaper"
	"swift-ai-market/pkg/retrieval"
	"swift-ai-market/pkg/session"
	"swift-ai-market/pkg/vectorindex"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	cfg        *config.Config
	db         *gorm.DB
	uowFactory unitofwork.RepositoryFactory
	sysLogger  logger.ILogger

	timeout      time.Duration
	popularLimit int

	rootCmd = &cobra.Command{
		Use:   "catalogctl",
		Short: "Operate the product discovery catalog and its engagement sessions",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Database.Connection == "" {
				return fmt.Errorf("DB_CONNECTION_STRING is not set")
			}

			var err error
			db, err = database.NewGormDBFromDSN(cfg.Database.Connection, false)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			uowFactory = unitofwork.NewRepositoryFactory(db)
			sysLogger = logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = sysLogger.Sync()
			_ = database.Close(db)
		},
	}

	reindexCmd = &cobra.Command{
		Use:   "reindex",
		Short: "Embed every product that has no stored embedding",
		RunE:  runReindex,
	}

	reapCmd = &cobra.Command{
		Use:   "reap",
		Short: "Run one inactivity sweep and end idle sessions",
		RunE:  runReap,
	}

	popularCmd = &cobra.Command{
		Use:   "popular",
		Short: "Print products ranked by sessions in the popularity window",
		RunE:  runPopular,
	}
)

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall deadline for the command")
	popularCmd.Flags().IntVarP(&popularLimit, "limit", "n", 10, "Number of products to print")

	rootCmd.AddCommand(reindexCmd, reapCmd, popularCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	provider, err := factory.NewEmbeddingProvider(bootstrap.EmbeddingSettings(cfg))
	if err != nil {
		return err
	}

	assembler, err := retrieval.NewAssembler(retrieval.DefaultThresholds())
	if err != nil {
		return err
	}
	index := vectorindex.New()
	retriever := retrieval.NewRetriever(provider, index, assembler, cfg.Ai.CallTimeout, sysLogger)
	indexService := service.NewIndexService(uowFactory, retriever, index, nil, sysLogger)

	// Warm first so new vectors are checked against the stored dimension.
	if _, err := indexService.Warm(ctx); err != nil {
		return err
	}
	report, err := indexService.ReindexMissing(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "candidates: %d, embedded: %d, failed: %d\n",
		report.Candidates, report.Embedded, report.Failed)
	if report.Failed > 0 {
		return fmt.Errorf("%d products could not be embedded", report.Failed)
	}
	return nil
}

func runReap(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	manager := session.NewManager(uowFactory, sysLogger)
	r := reaper.New(uowFactory, manager, sysLogger, reaper.WithTimeout(cfg.Session.InactivityTimeout))

	report, err := r.Sweep(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "cutoff: %s\nscanned: %d, ended: %d, already ended: %d, failed: %d (%s)\n",
		report.Cutoff.Format(time.RFC3339), report.Scanned, report.Ended, report.AlreadyEnded, report.Failed, report.Duration)
	return nil
}

func runPopular(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	aggregator := popularity.NewAggregator(uowFactory, sysLogger, popularity.WithWindow(cfg.Session.PopularityWindow))
	ranked, err := aggregator.PopularProducts(ctx, popularLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tID\tNAME\tSESSIONS\tRATING\tREVIEWS")
	for i, p := range ranked {
		fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%.1f\t%d\n",
			i+1, p.Product.Id, p.Product.Name, p.SessionCount, p.Product.Rating, p.Product.ReviewCount)
	}
	return w.Flush()
}

