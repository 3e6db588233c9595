package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/posting"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
)

var loadCmd = &cobra.Command{
	Use:   "load <postings.tsv>",
	Short: "Import a postings file into the configured posting store",
	Long: `Reads "term<TAB>doc[:tf] doc[:tf] ..." lines and replaces the postings
of each term in the configured backend (redis, postgres, sqlite or bolt).`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	if cfg.Postings.Backend == config.BackendMemory {
		return apperrors.New(apperrors.ErrConfiguration, "the memory backend reads postings.path directly; choose a persistent backend to load into")
	}
	if err := cfg.ValidatePostings(); err != nil {
		return err
	}

	store, err := openBackend(cmd.Context(), cfg, false)
	if err != nil {
		return fmt.Errorf("opening %s posting store: %w", cfg.Postings.Backend, err)
	}
	defer store.Close()

	n, err := posting.LoadTSV(cmd.Context(), args[0], store)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "loaded %d terms into %s\n", n, cfg.Postings.Backend)
	return nil
}
