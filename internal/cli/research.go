package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	outPath   string
	outFormat string
	force     bool
	timeout   time.Duration
)

// researchCmd represents the research command
var researchCmd = &cobra.Command{
	Use:   "research <book-id>",
	Short: "Analyze a book's cards: themes, arcs, coverage and suggested sections",
	Long: `Research analyzes every card of a book to:
- Extract recurring themes from keyword co-occurrence
- Detect the main narrative arc and a temporal arc
- Map each card to the themes it supports
- Report coverage gaps and strong areas
- Suggest outline sections

Results are cached per book for cache.research_ttl_seconds.

Example:
  quire research my-book
  quire research my-book --format md --out research.md
  quire research my-book --force`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	rootCmd.AddCommand(researchCmd)

	researchCmd.Flags().StringVar(&outPath, "out", "", "output path (default: stdout)")
	researchCmd.Flags().StringVar(&outFormat, "format", "json", "output format: json, md or yaml")
	researchCmd.Flags().BoolVar(&force, "force", false, "ignore cached research and recompute")
	researchCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall timeout")
}

func runResearch(cmd *cobra.Command, args []string) error {
	bookID := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	r, cached, err := a.pipeline.Research(ctx, bookID, force)
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}

	if verbose {
		source := "computed"
		if cached {
			source = "cached"
		}
		fmt.Fprintf(os.Stderr, "✓ Research %s (%s)\n", r.RunID, source)
		fmt.Fprintf(os.Stderr, "✓ %d cards, %d themes, %d arcs, confidence %.0f%%\n",
			r.TotalCards, len(r.Themes), len(r.Arcs), r.Confidence*100)
		fmt.Fprintln(os.Stderr)
	}

	return a.render(outPath, outFormat, r, func(w io.Writer) error {
		return a.pipeline.Renderer().RenderResearchMarkdown(w, r)
	})
}
