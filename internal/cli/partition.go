package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/partition"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
)

var (
	partitionNodes   int64
	partitionBuckets int
)

var partitionCmd = &cobra.Command{
	Use:   "partition [key...]",
	Short: "Show which bucket the range partitioner assigns keys to",
	Long: `With keys, prints "<key><TAB><bucket>" for each. Without keys, prints
"<bucket><TAB><first key><TAB><end key>" for every bucket, end exclusive.`,
	RunE: runPartition,
}

func init() {
	partitionCmd.Flags().Int64Var(&partitionNodes, "nodes", 0, "size of the key space (default partition.nodeCount)")
	partitionCmd.Flags().IntVar(&partitionBuckets, "buckets", 0, "number of buckets (default partition.buckets)")
	rootCmd.AddCommand(partitionCmd)
}

func runPartition(cmd *cobra.Command, args []string) error {
	nodes := int64(cfg.Partition.NodeCount)
	if cmd.Flags().Changed("nodes") {
		nodes = partitionNodes
	}
	buckets := cfg.Partition.Buckets
	if cmd.Flags().Changed("buckets") {
		buckets = partitionBuckets
	}

	p, err := partition.New(nodes)
	if err != nil {
		return err
	}
	if buckets <= 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "bucket count must be positive, got %d", buckets)
	}
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		for b := 0; b < buckets; b++ {
			lo, hi, err := p.Bounds(b, buckets)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d\t%d\t%d\n", b, lo, hi)
		}
		return nil
	}

	for _, arg := range args {
		key, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("bad key %q: %w", arg, err)
		}
		bucket, err := p.Partition(key, buckets)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d\t%d\n", key, bucket)
	}
	return nil
}
