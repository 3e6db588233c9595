package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/posting"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/health"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the posting store and collection are reachable",
	Long: `Opens the configured posting store and collection, probes both and
prints the report as JSON. Exits non-zero unless every component is up.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func down(err error) health.Check {
	return func(context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
	}
}

func pingOrUp(v any) health.Check {
	if p, ok := v.(health.Pinger); ok {
		return health.PingCheck(p)
	}
	return func(context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp}
	}
}

func registerStoreChecks(checker *health.Checker, postings posting.Store, docs collection.Store) {
	checker.Register("postings", pingOrUp(postings))
	checker.Register("collection", pingOrUp(docs))
}

func runCheck(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	checker := health.NewChecker(cfg.Postings.Timeout)

	postings, err := openPostings(ctx, cfg, nil)
	if err != nil {
		checker.Register("postings", down(err))
	} else {
		defer postings.Close()
		checker.Register("postings", pingOrUp(postings))
	}

	docs, err := openCollection(ctx, cfg, nil)
	if err != nil {
		checker.Register("collection", down(err))
	} else {
		defer docs.Close()
		checker.Register("collection", pingOrUp(docs))
	}

	report := checker.Run(ctx)
	if err := report.WriteJSON(cmd.OutOrStdout()); err != nil {
		return err
	}
	if !report.Healthy() {
		return apperrors.Newf(apperrors.ErrConfiguration, "health check reported %s", report.Status)
	}
	return nil
}
