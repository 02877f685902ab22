package store

import (
	"time"

	"gorm.io/datatypes"
)

// CardRecord is the persisted form of a card. Grade holds the raw grading
// output, which may be malformed.
type CardRecord struct {
	ID          string         `gorm:"primaryKey"`
	BookID      string         `gorm:"index;not null"`
	Title       string         `gorm:"not null"`
	Content     string         `gorm:"not null"`
	Grade       datatypes.JSON `gorm:"type:json"`
	ChapterID   *string        `gorm:"index"`
	Status      string         `gorm:"index;not null;default:staging"`
	HarvestedAt *time.Time     `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (CardRecord) TableName() string { return "cards" }

// ChapterRecord is the persisted form of a chapter
type ChapterRecord struct {
	ID                string `gorm:"primaryKey"`
	BookID            string `gorm:"index;not null"`
	Title             string `gorm:"not null"`
	DraftInstructions string `gorm:"type:text"`
	Position          int    `gorm:"index"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (ChapterRecord) TableName() string { return "chapters" }

// SnapshotRecord is one entry of the sqlite cache backend
type SnapshotRecord struct {
	CacheKey  string         `gorm:"primaryKey"`
	Payload   datatypes.JSON `gorm:"type:json;not null"`
	ExpiresAt *time.Time     `gorm:"index"`
	UpdatedAt time.Time
}

func (SnapshotRecord) TableName() string { return "research_snapshots" }
