package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/batch"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/query"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/metrics"
)

var (
	runQueries     []string
	runQueriesFile string
	runConcurrency int
	runJSON        bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate a batch of postfix queries",
	Long: `Evaluates each query in order and prints a "Query:" header, one
"<doc id><TAB><snippet>" line per match and a blank line.

Queries come from --query flags, then --queries-file, then the config file,
then the built-in reference list. A query that fails is reported on stderr and
the batch continues; the exit status is 2 if any query failed.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	runCmd.Flags().StringArrayVarP(&runQueries, "query", "q", nil, "query to evaluate (repeatable)")
	runCmd.Flags().StringVar(&runQueriesFile, "queries-file", "", "file with one query per line")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "queries evaluated at once (default from config)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print one JSON object per query")
	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	if runConcurrency > 0 {
		cfg.Batch.Concurrency = runConcurrency
	}
	if runQueriesFile != "" {
		cfg.Batch.QueriesFile = runQueriesFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runID := uuid.NewString()
	ctx := logger.WithRunID(cmd.Context(), runID)
	log := logger.FromContext(ctx).With("component", "cli")

	queries, err := batch.ResolveQueries(runQueries, cfg.Batch.QueriesFile, cfg.Batch.Queries)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(prometheus.DefaultRegisterer)
	}

	postings, err := openPostings(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer postings.Close()

	docs, err := openCollection(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer docs.Close()

	if cfg.Metrics.Enabled {
		checker := health.NewChecker(cfg.Postings.Timeout)
		registerStoreChecks(checker, postings, docs)
		shutdown := metrics.StartServer(cfg.Metrics.Port, map[string]http.Handler{
			"/readyz": checker.ReadyHandler(),
		})
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(shutdownCtx)
		}()
	}

	opts := []batch.Option{
		batch.WithConcurrency(cfg.Batch.Concurrency),
		batch.WithQueryTimeout(cfg.Query.Timeout),
		batch.WithJSON(runJSON),
	}
	if m != nil {
		opts = append(opts, batch.WithMetrics(m))
	}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		defer producer.Close()
		collector := analytics.NewCollector(producer, 0, 0, 0)
		collector.Start(ctx)
		defer collector.Close()
		opts = append(opts, batch.WithEvents(collector))
	}

	log.Info("starting batch",
		"queries", len(queries),
		"postings", cfg.Postings.Backend,
		"collection", cfg.Collection.Backend,
		"concurrency", cfg.Batch.Concurrency,
	)
	ev := query.New(postings, docs, query.WithSnippetLength(cfg.Query.SnippetLength))
	_, err = batch.NewRunner(ev, cmd.OutOrStdout(), opts...).Run(ctx, queries)
	return err
}
