package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/quire/internal/store"
)

var importBook string

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import harvested cards and chapters into the card store",
	Long: `Import loads a JSON bundle of cards and chapters for one book:

  {
    "book_id": "my-book",
    "cards": [{"id": "c1", "content": "...", "created_at": "2024-01-01T09:00:00Z", "grade": {...}}],
    "chapters": [{"id": "ch-1", "title": "Grief and Loss", "position": 1}]
  }

HTML card content is converted to plain text. Records without an id get a
generated one. Re-importing refreshes content and grades but keeps chapter
placements.

Example:
  quire import harvest.json
  quire import harvest.json --book my-book`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importBook, "book", "", "book id (overrides book_id in the file)")
}

func runImport(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	var bundle store.ImportBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}
	if importBook != "" {
		bundle.BookID = importBook
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.store.Import(context.Background(), bundle)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	// Cards changed, so any cached research is out of date
	if err := a.pipeline.InvalidateResearch(bundle.BookID); err != nil {
		a.log.Warn("research invalidation failed", "book_id", bundle.BookID, "error", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Imported %d cards and %d chapters into %s\n", res.Cards, res.Chapters, bundle.BookID)
	if verbose {
		fmt.Fprintf(os.Stderr, "  HTML converted: %d\n", res.HTMLConverted)
		fmt.Fprintf(os.Stderr, "  Generated ids:  %d\n", res.GeneratedIDs)
	}
	return nil
}
