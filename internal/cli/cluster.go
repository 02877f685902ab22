package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var autoApply bool

// clusterCmd represents the cluster command
var clusterCmd = &cobra.Command{
	Use:   "cluster <book-id>",
	Short: "Group a book's staging cards into topical clusters",
	Long: `Cluster groups cards not yet placed in a chapter by keyword similarity.
Small piles use a quick seed-and-compare pass; larger ones grow clusters
by transitive closure over a pairwise similarity map.

Example:
  quire cluster my-book --format md`,
	Args: cobra.ExactArgs(1),
	RunE: runCluster,
}

// assignCmd represents the assign command
var assignCmd = &cobra.Command{
	Use:   "assign <book-id>",
	Short: "Propose a chapter for each staging card",
	Long: `Assign scores every staging card against every chapter title and draft
instructions and proposes the best chapter with runner-up alternatives.

With --auto-apply, proposals at or above assign.high_confidence_threshold
are written back to the card store and the cards leave staging.

Example:
  quire assign my-book
  quire assign my-book --auto-apply --format md`,
	Args: cobra.ExactArgs(1),
	RunE: runAssign,
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	rootCmd.AddCommand(assignCmd)

	clusterCmd.Flags().StringVar(&outPath, "out", "", "output path (default: stdout)")
	clusterCmd.Flags().StringVar(&outFormat, "format", "json", "output format: json, md or yaml")
	clusterCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall timeout")

	assignCmd.Flags().StringVar(&outPath, "out", "", "output path (default: stdout)")
	assignCmd.Flags().StringVar(&outFormat, "format", "json", "output format: json, md or yaml")
	assignCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall timeout")
	assignCmd.Flags().BoolVar(&autoApply, "auto-apply", false, "write high-confidence proposals back to the store")
	_ = viper.BindPFlag("assign.auto_apply", assignCmd.Flags().Lookup("auto-apply"))
}

func runCluster(cmd *cobra.Command, args []string) error {
	bookID := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.pipeline.Cluster(ctx, bookID)
	if err != nil {
		return fmt.Errorf("cluster failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %s mode: %d clusters, %d unclustered of %d cards\n",
			res.Mode, res.Stats.ClusterCount, res.Stats.UnclusteredCount, res.Stats.TotalCards)
		fmt.Fprintln(os.Stderr)
	}

	return a.render(outPath, outFormat, res, func(w io.Writer) error {
		return a.pipeline.Renderer().RenderClustersMarkdown(w, bookID, res)
	})
}

func runAssign(cmd *cobra.Command, args []string) error {
	bookID := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	batch, err := a.pipeline.Assign(ctx, bookID)
	if err != nil {
		return fmt.Errorf("assign failed: %w", err)
	}

	if batch.Error != "" {
		fmt.Fprintf(os.Stderr, "✗ %s: %s\n", bookID, batch.Error)
	} else if verbose {
		fmt.Fprintf(os.Stderr, "✓ %d proposals, %d applied, %d unmatched\n",
			len(batch.Proposals), len(batch.Applied), len(batch.Unmatched))
		for id, msg := range batch.ApplyErrors {
			fmt.Fprintf(os.Stderr, "✗ %s: write-back failed: %s\n", id, msg)
		}
		fmt.Fprintln(os.Stderr)
	}

	return a.render(outPath, outFormat, batch, func(w io.Writer) error {
		return a.pipeline.Renderer().RenderAssignmentMarkdown(w, bookID, batch)
	})
}
