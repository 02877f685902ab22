package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/quire/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	allBooks     bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Research many books in parallel",
	Long: `Batch researches several books concurrently:
- Read book ids from a file (one per line, '#' comments allowed), or use --all
- Research books in parallel with a bounded worker pool
- Serve fresh cached research unless --force is given
- Write a JSON and a Markdown report per book

Example:
  quire batch books.txt
  quire batch --all --concurrency 8 --output-dir ./research`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./quire-research", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&allBooks, "all", false, "research every book in the card store")
	batchCmd.Flags().BoolVar(&force, "force", false, "ignore cached research and recompute")
	_ = viper.BindPFlag("concurrency.workers", batchCmd.Flags().Lookup("concurrency"))
}

func runBatch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !allBooks {
		return fmt.Errorf("either a file of book ids or --all is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var bookIDs []string
	source := "card store"
	if len(args) == 1 {
		source = args[0]
		bookIDs, err = worker.ReadBookIDsFromFile(args[0])
	} else {
		bookIDs, err = a.pipeline.Books(ctx)
	}
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}

	workers := a.cfg.Concurrency.Workers

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Quire Batch Research\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Books from:   %s (%d)\n", source, len(bookIDs))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	processor := worker.NewBatchProcessor(a.pipeline, workers)
	results := processor.ProcessBooks(ctx, bookIDs, force)

	renderer := a.pipeline.Renderer()
	successCount, cachedCount, failureCount := 0, 0, 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.BookID, result.Error)
			continue
		}

		successCount++
		if result.Cached {
			cachedCount++
		}

		slug := sanitizeFilename(result.BookID)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		r := result.Research
		if err := renderer.ToFile(jsonPath, func(w io.Writer) error { return renderer.RenderJSON(w, r) }); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.BookID, err)
			continue
		}
		if err := renderer.ToFile(mdPath, func(w io.Writer) error { return renderer.RenderResearchMarkdown(w, r) }); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.BookID, err)
			continue
		}

		fmt.Fprintf(os.Stderr, "✓ %s (%d themes, confidence %.0f%%)\n", result.BookID, len(r.Themes), r.Confidence*100)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d books\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d (%d cached)\n", successCount, cachedCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename makes a book id safe to use as a file name
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		s = "book"
	}
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
