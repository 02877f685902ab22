// Package assign proposes a chapter for each staging card and optionally
// writes confident proposals back to the card store.
package assign

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/quire/internal/lexical"
	"github.com/ppiankov/quire/internal/model"
)

// Score weights
const (
	cardTitleWeight   = 0.5
	instructionWeight = 0.3
	alternativeFactor = 0.7 // alternatives need this share of MinConfidence
)

// ErrNoChapters is reported when a book has no chapters to assign into
var ErrNoChapters = errors.New("no chapters available")

// CardUpdater persists a card's chapter placement
type CardUpdater interface {
	UpdatePlacement(ctx context.Context, cardID, chapterID string, status model.CardStatus) error
}

// Engine scores card-to-chapter relevance
type Engine struct {
	cfg     model.AssignConfig
	updater CardUpdater
}

// NewEngine creates a new assignment engine. The updater is only used
// when auto-apply is enabled and may be nil otherwise.
func NewEngine(cfg model.AssignConfig, updater CardUpdater) *Engine {
	return &Engine{cfg: cfg, updater: updater}
}

type chapterText struct {
	chapter      model.Chapter
	title        lexical.Set
	instructions lexical.Set
}

type scored struct {
	chapterID string
	score     float64
	title     float64
	cardTitle float64
	instr     float64
}

// Assign proposes chapters for cards. A missing chapter list is reported
// through the batch's Error field rather than as a Go error.
func (e *Engine) Assign(ctx context.Context, cards []model.Card, chapters []model.Chapter) model.AssignmentBatch {
	batch := model.AssignmentBatch{
		Proposals: []model.CardAssignmentProposal{},
	}
	if len(chapters) == 0 {
		batch.Error = ErrNoChapters.Error()
		return batch
	}

	targets := make([]chapterText, len(chapters))
	for i, ch := range chapters {
		targets[i] = chapterText{
			chapter:      ch,
			title:        lexical.KeywordSet(ch.Title, lexical.DefaultMinLength),
			instructions: lexical.KeywordSet(ch.DraftInstructions, lexical.DefaultMinLength),
		}
	}

	for _, card := range cards {
		ranked := e.rank(card, targets)
		best := ranked[0]
		if best.score < e.cfg.MinConfidence {
			batch.Unmatched = append(batch.Unmatched, card.ID)
			continue
		}

		p := model.CardAssignmentProposal{
			CardID:             card.ID,
			SuggestedChapterID: best.chapterID,
			Confidence:         best.score,
			Reasoning:          reasoning(best),
		}
		for _, alt := range ranked[1:] {
			if len(p.Alternatives) >= e.cfg.MaxAlternatives {
				break
			}
			if alt.score < alternativeFactor*e.cfg.MinConfidence {
				break
			}
			p.Alternatives = append(p.Alternatives, model.ChapterAlternative{
				ChapterID:  alt.chapterID,
				Confidence: alt.score,
			})
		}
		batch.Proposals = append(batch.Proposals, p)
	}

	if e.cfg.AutoApply {
		e.apply(ctx, &batch)
	}
	return batch
}

// Score returns the relevance of a card to a chapter
func (e *Engine) Score(card model.Card, chapter model.Chapter) float64 {
	s := score(card, chapterText{
		chapter:      chapter,
		title:        lexical.KeywordSet(chapter.Title, lexical.DefaultMinLength),
		instructions: lexical.KeywordSet(chapter.DraftInstructions, lexical.DefaultMinLength),
	})
	return s.score
}

// rank scores every chapter, best first; ties keep chapter order
func (e *Engine) rank(card model.Card, targets []chapterText) []scored {
	out := make([]scored, len(targets))
	for i, t := range targets {
		out[i] = score(card, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].score > out[j].score
	})
	return out
}

func score(card model.Card, t chapterText) scored {
	content := lexical.KeywordSet(card.Content, lexical.DefaultMinLength)
	cardTitle := lexical.KeywordSet(card.Title, lexical.DefaultMinLength)

	s := scored{
		chapterID: t.chapter.ID,
		title:     lexical.Overlap(t.title, content),
		cardTitle: lexical.Overlap(t.title, cardTitle),
		instr:     lexical.Overlap(t.instructions, content),
	}
	s.score = min(1, s.title+cardTitleWeight*s.cardTitle+instructionWeight*s.instr)
	return s
}

func reasoning(s scored) string {
	var parts []string
	if s.title > 0 {
		parts = append(parts, fmt.Sprintf("content matches %.0f%% of chapter title keywords", s.title*100))
	}
	if s.cardTitle > 0 {
		parts = append(parts, fmt.Sprintf("card title matches %.0f%% of chapter title keywords", s.cardTitle*100))
	}
	if s.instr > 0 {
		parts = append(parts, fmt.Sprintf("content matches %.0f%% of draft instruction keywords", s.instr*100))
	}
	if len(parts) == 0 {
		return "no keyword overlap"
	}
	return strings.Join(parts, "; ")
}

// apply writes confident proposals back. Failures are recorded per card
// and never abort the batch.
func (e *Engine) apply(ctx context.Context, batch *model.AssignmentBatch) {
	for _, p := range batch.Proposals {
		if p.Confidence < e.cfg.HighConfidenceThreshold {
			continue
		}

		var err error
		if e.updater == nil {
			err = errors.New("no card store configured")
		} else {
			err = e.updater.UpdatePlacement(ctx, p.CardID, p.SuggestedChapterID, model.CardStatusPlaced)
		}
		if err != nil {
			if batch.ApplyErrors == nil {
				batch.ApplyErrors = make(map[string]string)
			}
			batch.ApplyErrors[p.CardID] = err.Error()
			continue
		}
		batch.Applied = append(batch.Applied, p.CardID)
	}
}
