// Package store persists cards, chapters and cached research in SQLite
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/ppiankov/quire/internal/lexical"
	"github.com/ppiankov/quire/internal/logging"
	"github.com/ppiankov/quire/internal/model"
)

// ErrNotFound is returned when an update targets a card that does not exist
var ErrNotFound = errors.New("not found")

// Store is the SQLite-backed card and chapter store
type Store struct {
	db  *gorm.DB
	log *logging.Logger
}

// Open opens (creating if needed) the database at path and migrates it
func Open(path string, baseLog *logging.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := db.AutoMigrate(&CardRecord{}, &ChapterRecord{}, &SnapshotRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db, log: baseLog.With("component", "Store")}, nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Cards returns a book's cards in import order. An empty status returns
// every card.
func (s *Store) Cards(ctx context.Context, bookID string, status model.CardStatus) ([]model.Card, error) {
	q := s.db.WithContext(ctx).Where("book_id = ?", bookID)
	if status != "" {
		q = q.Where("status = ?", string(status))
	}

	var records []CardRecord
	if err := q.Order("rowid").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load cards: %w", err)
	}

	cards := make([]model.Card, 0, len(records))
	for _, rec := range records {
		cards = append(cards, s.toCard(rec))
	}
	return cards, nil
}

// StagingCards returns the cards not yet placed in a chapter
func (s *Store) StagingCards(ctx context.Context, bookID string) ([]model.Card, error) {
	return s.Cards(ctx, bookID, model.CardStatusStaging)
}

// Chapters returns a book's chapters in book order
func (s *Store) Chapters(ctx context.Context, bookID string) ([]model.Chapter, error) {
	var records []ChapterRecord
	if err := s.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("position, rowid").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load chapters: %w", err)
	}

	chapters := make([]model.Chapter, 0, len(records))
	for _, rec := range records {
		chapters = append(chapters, model.Chapter{
			ID:                rec.ID,
			BookID:            rec.BookID,
			Title:             rec.Title,
			DraftInstructions: rec.DraftInstructions,
			Position:          rec.Position,
		})
	}
	return chapters, nil
}

// Books lists the ids of every book with at least one card
func (s *Store) Books(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&CardRecord{}).
		Distinct("book_id").
		Order("book_id").
		Pluck("book_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return ids, nil
}

// UpdatePlacement sets a card's chapter and status. Concurrent updates to
// the same card are last-writer-wins.
func (s *Store) UpdatePlacement(ctx context.Context, cardID, chapterID string, status model.CardStatus) error {
	res := s.db.WithContext(ctx).
		Model(&CardRecord{}).
		Where("id = ?", cardID).
		Updates(map[string]interface{}{
			"chapter_id": chapterID,
			"status":     string(status),
		})
	if res.Error != nil {
		return fmt.Errorf("update card %s: %w", cardID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("card %s: %w", cardID, ErrNotFound)
	}
	s.log.Debug("card placed", "card_id", cardID, "chapter_id", chapterID, "status", status)
	return nil
}

// CardInput is one harvested card as supplied by an import file.
// Grade is kept verbatim so malformed grading output survives import.
type CardInput struct {
	ID        string          `json:"id"`
	Title     string          `json:"title,omitempty"`
	Content   string          `json:"content"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	Grade     json.RawMessage `json:"grade,omitempty"`
}

// ImportBundle is the import file format
type ImportBundle struct {
	BookID   string          `json:"book_id"`
	Cards    []CardInput     `json:"cards"`
	Chapters []model.Chapter `json:"chapters"`
}

// ImportResult summarizes an import
type ImportResult struct {
	Cards         int `json:"cards"`
	Chapters      int `json:"chapters"`
	HTMLConverted int `json:"html_converted"`
	GeneratedIDs  int `json:"generated_ids"`
}

// Import upserts a bundle in one transaction. Re-importing a card refreshes
// its content and grade but keeps its chapter placement.
func (s *Store) Import(ctx context.Context, b ImportBundle) (ImportResult, error) {
	var result ImportResult
	if b.BookID == "" {
		return result, errors.New("import: book_id is required")
	}

	cards := make([]CardRecord, 0, len(b.Cards))
	for _, in := range b.Cards {
		rec := CardRecord{
			ID:          in.ID,
			BookID:      b.BookID,
			Title:       in.Title,
			Content:     in.Content,
			Status:      string(model.CardStatusStaging),
			HarvestedAt: in.CreatedAt,
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
			result.GeneratedIDs++
		}
		if lexical.LooksLikeHTML(rec.Content) {
			text, err := lexical.PlainText(rec.Content)
			if err != nil {
				return result, fmt.Errorf("card %s: strip html: %w", rec.ID, err)
			}
			rec.Content = text
			result.HTMLConverted++
		}
		if len(in.Grade) > 0 && string(in.Grade) != "null" {
			rec.Grade = datatypes.JSON(in.Grade)
		}
		cards = append(cards, rec)
	}

	chapters := make([]ChapterRecord, 0, len(b.Chapters))
	for i, ch := range b.Chapters {
		rec := ChapterRecord{
			ID:                ch.ID,
			BookID:            b.BookID,
			Title:             ch.Title,
			DraftInstructions: ch.DraftInstructions,
			Position:          ch.Position,
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
			result.GeneratedIDs++
		}
		if rec.Position == 0 {
			rec.Position = i + 1
		}
		chapters = append(chapters, rec)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(cards) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "content", "grade", "harvested_at", "updated_at"}),
			}).Create(&cards).Error; err != nil {
				return fmt.Errorf("upsert cards: %w", err)
			}
		}
		if len(chapters) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "draft_instructions", "position", "updated_at"}),
			}).Create(&chapters).Error; err != nil {
				return fmt.Errorf("upsert chapters: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	result.Cards = len(cards)
	result.Chapters = len(chapters)
	s.log.Info("import complete",
		"book_id", b.BookID,
		"cards", result.Cards,
		"chapters", result.Chapters,
		"html_converted", result.HTMLConverted,
	)
	return result, nil
}

// toCard converts a record, treating unparseable grade data as absent
func (s *Store) toCard(rec CardRecord) model.Card {
	c := model.Card{
		ID:        rec.ID,
		BookID:    rec.BookID,
		Title:     rec.Title,
		Content:   rec.Content,
		CreatedAt: rec.HarvestedAt,
		Status:    model.CardStatus(rec.Status),
	}
	if rec.ChapterID != nil {
		c.ChapterID = *rec.ChapterID
	}

	if len(rec.Grade) > 0 {
		var g model.Grade
		if err := json.Unmarshal(rec.Grade, &g); err != nil {
			s.log.Debug("ignoring malformed grade", "card_id", rec.ID, "error", err)
		} else {
			c.Grade = &g
		}
	}
	return c
}
