package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/quire/internal/model"
)

// Researcher produces (or serves cached) research for one book
type Researcher interface {
	Research(ctx context.Context, bookID string, force bool) (*model.Research, bool, error)
}

// ResearchJob researches a single book
type ResearchJob struct {
	Index      int
	BookID     string
	Force      bool
	Researcher Researcher
}

// Execute executes the research job
func (j *ResearchJob) Execute(ctx context.Context) Result {
	r, cached, err := j.Researcher.Research(ctx, j.BookID, j.Force)
	return &BookResult{
		index:    j.Index,
		BookID:   j.BookID,
		Research: r,
		Cached:   cached,
		Error:    err,
	}
}

// BookResult is the outcome of researching one book
type BookResult struct {
	index    int
	BookID   string
	Research *model.Research
	Cached   bool
	Error    error
}

// GetError returns the error from the research
func (r *BookResult) GetError() error {
	return r.Error
}

// BatchProcessor researches many books concurrently
type BatchProcessor struct {
	researcher  Researcher
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(researcher Researcher, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		researcher:  researcher,
		concurrency: concurrency,
	}
}

// ProcessBooks researches every book and returns results in input order.
// Books skipped because ctx was cancelled report the context error.
func (b *BatchProcessor) ProcessBooks(ctx context.Context, bookIDs []string, force bool) []*BookResult {
	if len(bookIDs) == 0 {
		return []*BookResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, id := range bookIDs {
		pool.Submit(&ResearchJob{
			Index:      i,
			BookID:     id,
			Force:      force,
			Researcher: b.researcher,
		})
	}

	ordered := make([]*BookResult, len(bookIDs))
	for _, res := range pool.Wait() {
		br := res.(*BookResult)
		ordered[br.index] = br
	}

	for i, id := range bookIDs {
		if ordered[i] == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("book %s was not processed", id)
			}
			ordered[i] = &BookResult{index: i, BookID: id, Error: err}
		}
	}
	return ordered
}

// ProcessFile reads book ids from a file and researches them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string, force bool) ([]*BookResult, error) {
	ids, err := ReadBookIDsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read book ids: %w", err)
	}

	return b.ProcessBooks(ctx, ids, force), nil
}

// ReadBookIDsFromFile reads book ids (one per line), skipping blank lines,
// '#' comments and duplicates
func ReadBookIDsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ids []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			ids = append(ids, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return ids, nil
}
