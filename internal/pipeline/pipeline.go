// Package pipeline wires the engine packages to the card store, the
// research cache and the optional LLM brief.
package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/quire/internal/assign"
	"github.com/ppiankov/quire/internal/cache"
	"github.com/ppiankov/quire/internal/cluster"
	"github.com/ppiankov/quire/internal/llm"
	"github.com/ppiankov/quire/internal/logging"
	"github.com/ppiankov/quire/internal/model"
	"github.com/ppiankov/quire/internal/outline"
	"github.com/ppiankov/quire/internal/research"
	"github.com/ppiankov/quire/internal/store"
	"github.com/ppiankov/quire/internal/worker"
)

const briefLimiterKey = "brief"

// Pipeline orchestrates research, outlining, ordering, clustering and
// assignment for one card store
type Pipeline struct {
	store     *store.Store
	analyzer  *research.Analyzer
	generator *outline.Generator
	orderer   *outline.Orderer
	clusterer *cluster.Engine
	assigner  *assign.Engine
	research  *cache.ResearchStore // nil when caching is disabled
	briefer   *llm.Briefer         // nil when no LLM is configured
	limiter   *worker.Limiter
	renderer  *Renderer
	log       *logging.Logger
	config    *model.Config

	analyses atomic.Int64
}

// NewPipeline creates a new pipeline over an open store
func NewPipeline(cfg *model.Config, st *store.Store, baseLog *logging.Logger) (*Pipeline, error) {
	log := baseLog.With("component", "Pipeline")

	backend, err := NewResearchCache(cfg.Cache, st)
	if err != nil {
		return nil, fmt.Errorf("research cache: %w", err)
	}
	var researchStore *cache.ResearchStore
	if backend != nil {
		researchStore = cache.NewResearchStore(backend, cfg.Cache.ResearchTTL())
	}

	var briefer *llm.Briefer
	if cfg.LLM.Provider != "" {
		b, err := llm.NewBriefer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			log.Warn("LLM brief disabled", "provider", cfg.LLM.Provider, "error", err)
		} else {
			briefer = b
		}
	}

	return &Pipeline{
		store:     st,
		analyzer:  research.NewAnalyzer(cfg.Research),
		generator: outline.NewGenerator(cfg.Outline),
		orderer:   outline.NewOrderer(cfg.Outline),
		clusterer: cluster.NewEngine(cfg.Cluster),
		assigner:  assign.NewEngine(cfg.Assign, st),
		research:  researchStore,
		briefer:   briefer,
		limiter:   worker.NewLimiter(cfg.Concurrency.BriefsPerSecond, cfg.Concurrency.BriefBurst),
		renderer:  NewRenderer(),
		log:       log,
		config:    cfg,
	}, nil
}

// Renderer returns the pipeline's output renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Research returns the research bundle for a book. A fresh cached bundle is
// returned as-is unless force is set; otherwise every card of the book is
// analyzed and the result overwrites the cache entry. The second return
// value reports a cache hit.
func (p *Pipeline) Research(ctx context.Context, bookID string, force bool) (*model.Research, bool, error) {
	if p.research != nil && !force {
		if r, ok := p.research.Get(bookID); ok {
			p.log.Debug("research cache hit", "book_id", bookID, "run_id", r.RunID)
			return r, true, nil
		}
	}

	cards, err := p.store.Cards(ctx, bookID, "")
	if err != nil {
		return nil, false, fmt.Errorf("research %s: %w", bookID, err)
	}

	r := p.analyzer.Analyze(bookID, cards)
	p.analyses.Add(1)
	p.log.Info("research complete",
		"book_id", bookID,
		"cards", r.TotalCards,
		"themes", len(r.Themes),
		"arcs", len(r.Arcs),
		"confidence", r.Confidence,
	)

	if p.research != nil {
		// A failed cache write only costs a recompute next time
		if err := p.research.Put(r); err != nil {
			p.log.Warn("research cache write failed", "book_id", bookID, "error", err)
		}
	}
	return r, false, nil
}

// InvalidateResearch drops the cached research of a book
func (p *Pipeline) InvalidateResearch(bookID string) error {
	if p.research == nil {
		return nil
	}
	return p.research.Invalidate(bookID)
}

// OutlineResult is a generated outline plus the research behind it
type OutlineResult struct {
	BookID   string                  `json:"book_id"`
	Outline  *model.OutlineStructure `json:"outline"`
	Research *model.Research         `json:"-"`
	Cached   bool                    `json:"research_cached"`
	Brief    *model.OutlineBrief     `json:"brief,omitempty"`
}

// Outline builds the outline of a book. With withBrief set and an LLM
// configured, a brief is generated after the outline is final.
func (p *Pipeline) Outline(ctx context.Context, bookID string, force, withBrief bool) (*OutlineResult, error) {
	r, cached, err := p.Research(ctx, bookID, force)
	if err != nil {
		return nil, err
	}
	cards, err := p.store.Cards(ctx, bookID, "")
	if err != nil {
		return nil, fmt.Errorf("outline %s: %w", bookID, err)
	}

	result := &OutlineResult{
		BookID:   bookID,
		Outline:  p.generator.Generate(r, cards),
		Research: r,
		Cached:   cached,
	}

	if withBrief && p.briefer.IsEnabled() {
		if err := p.limiter.Wait(ctx, briefLimiterKey); err != nil {
			return nil, fmt.Errorf("brief %s: %w", bookID, err)
		}
		brief, err := p.briefer.Generate(ctx, bookID, result.Outline)
		if err != nil {
			// Don't fail the outline, just warn
			p.log.Warn("outline brief failed", "book_id", bookID, "error", err)
		} else {
			result.Brief = brief
		}
	}
	return result, nil
}

// DraftOrder sequences a book's cards under its outline for drafting
func (p *Pipeline) DraftOrder(ctx context.Context, bookID string, force bool) ([]model.OrderedSection, error) {
	res, err := p.Outline(ctx, bookID, force, false)
	if err != nil {
		return nil, err
	}
	cards, err := p.store.Cards(ctx, bookID, "")
	if err != nil {
		return nil, fmt.Errorf("draft order %s: %w", bookID, err)
	}
	return p.orderer.Order(res.Outline, res.Research, cards), nil
}

// Cluster groups a book's staging cards
func (p *Pipeline) Cluster(ctx context.Context, bookID string) (cluster.Result, error) {
	cards, err := p.store.StagingCards(ctx, bookID)
	if err != nil {
		return cluster.Result{}, fmt.Errorf("cluster %s: %w", bookID, err)
	}
	result := p.clusterer.Cluster(cards)
	p.log.Info("clustering complete",
		"book_id", bookID,
		"mode", result.Mode,
		"clusters", result.Stats.ClusterCount,
		"unclustered", result.Stats.UnclusteredCount,
	)
	return result, nil
}

// Assign proposes chapters for a book's staging cards. Cards and chapters
// are loaded concurrently.
func (p *Pipeline) Assign(ctx context.Context, bookID string) (model.AssignmentBatch, error) {
	var (
		cards    []model.Card
		chapters []model.Chapter
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cards, err = p.store.StagingCards(gctx, bookID)
		return err
	})
	g.Go(func() error {
		var err error
		chapters, err = p.store.Chapters(gctx, bookID)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.AssignmentBatch{}, fmt.Errorf("assign %s: %w", bookID, err)
	}

	batch := p.assigner.Assign(ctx, cards, chapters)
	p.log.Info("assignment complete",
		"book_id", bookID,
		"proposals", len(batch.Proposals),
		"applied", len(batch.Applied),
		"unmatched", len(batch.Unmatched),
	)
	return batch, nil
}

// Books lists every book in the store
func (p *Pipeline) Books(ctx context.Context) ([]string, error) {
	return p.store.Books(ctx)
}
