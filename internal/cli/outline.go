package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/quire/internal/llm"
)

var (
	withBrief      bool
	briefOut       string
	outlineTimeout time.Duration
)

// outlineCmd represents the outline command
var outlineCmd = &cobra.Command{
	Use:   "outline <book-id>",
	Short: "Generate a bounded, narratively ordered outline for a book",
	Long: `Outline turns a book's research into an outline:
- Suggested sections first, then uncovered themes
- Each card claimed by at most one section
- Sections ordered by card chronology, setup early and payoff late

With --brief and an LLM configured (llm.provider), a short prose brief is
written after the outline is final. The brief never changes the outline.

Example:
  quire outline my-book
  quire outline my-book --format yaml --out outline.yaml
  quire outline my-book --brief --brief-out outline.brief.md`,
	Args: cobra.ExactArgs(1),
	RunE: runOutline,
}

// draftOrderCmd represents the draft-order command
var draftOrderCmd = &cobra.Command{
	Use:   "draft-order <book-id>",
	Short: "Order a book's cards under its outline for drafting",
	Long: `Draft-order matches cards to every outline item and sorts them best
graded first, oldest first on ties. Key passages are flagged.

Example:
  quire draft-order my-book --format md`,
	Args: cobra.ExactArgs(1),
	RunE: runDraftOrder,
}

func init() {
	rootCmd.AddCommand(outlineCmd)
	rootCmd.AddCommand(draftOrderCmd)

	outlineCmd.Flags().StringVar(&outPath, "out", "", "output path (default: stdout)")
	outlineCmd.Flags().StringVar(&outFormat, "format", "json", "output format: json, md or yaml")
	outlineCmd.Flags().BoolVar(&force, "force", false, "ignore cached research and recompute")
	outlineCmd.Flags().DurationVar(&outlineTimeout, "timeout", 2*time.Minute, "overall timeout (the brief needs network time)")
	outlineCmd.Flags().BoolVar(&withBrief, "brief", false, "generate an LLM brief of the outline")
	outlineCmd.Flags().StringVar(&briefOut, "brief-out", "", "write the brief as Markdown to this path")

	draftOrderCmd.Flags().StringVar(&outPath, "out", "", "output path (default: stdout)")
	draftOrderCmd.Flags().StringVar(&outFormat, "format", "json", "output format: json, md or yaml")
	draftOrderCmd.Flags().BoolVar(&force, "force", false, "ignore cached research and recompute")
	draftOrderCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall timeout")
}

func runOutline(cmd *cobra.Command, args []string) error {
	bookID := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), outlineTimeout)
	defer cancel()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if withBrief && a.cfg.LLM.Provider == "" {
		fmt.Fprintf(os.Stderr, "Warning: --brief needs llm.provider (e.g. QUIRE_LLM_PROVIDER=openai); skipping brief\n")
	}

	res, err := a.pipeline.Outline(ctx, bookID, force, withBrief)
	if err != nil {
		return fmt.Errorf("outline failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %d outline items, depth %d, confidence %.0f%%\n",
			len(res.Outline.Items), res.Outline.Depth, res.Outline.Confidence*100)
		if res.Brief != nil && res.Brief.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated brief using %s/%s\n", res.Brief.Provider, res.Brief.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	if err := a.render(outPath, outFormat, res, func(w io.Writer) error {
		return a.pipeline.Renderer().RenderOutlineMarkdown(w, res)
	}); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if res.Brief != nil && briefOut != "" {
		md := llm.RenderSeparateMarkdown(res.Brief)
		if err := os.WriteFile(briefOut, []byte(md), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to write brief: %v\n", err)
		} else if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote brief: %s\n", briefOut)
		}
	}
	return nil
}

func runDraftOrder(cmd *cobra.Command, args []string) error {
	bookID := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sections, err := a.pipeline.DraftOrder(ctx, bookID, force)
	if err != nil {
		return fmt.Errorf("draft order failed: %w", err)
	}

	return a.render(outPath, outFormat, sections, func(w io.Writer) error {
		return a.pipeline.Renderer().RenderDraftOrderMarkdown(w, bookID, sections)
	})
}
