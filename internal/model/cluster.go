package model

// SemanticCluster is a topical grouping of staging cards
type SemanticCluster struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	CardIDs       []string `json:"card_ids"`
	SeedCardID    string   `json:"seed_card_id"`
	AvgSimilarity float64  `json:"avg_similarity"`
}

// ClusterStats summarizes a clustering run
type ClusterStats struct {
	TotalCards         int     `json:"total_cards"`
	ClusteredCards     int     `json:"clustered_cards"`
	ClusterCount       int     `json:"cluster_count"`
	AvgClusterSize     float64 `json:"avg_cluster_size"`
	UnclusteredCount   int     `json:"unclustered_count"`
	UnclusteredPercent float64 `json:"unclustered_percent"`
}

// CardAssignmentProposal proposes a chapter for a staging card
type CardAssignmentProposal struct {
	CardID             string               `json:"card_id"`
	SuggestedChapterID string               `json:"suggested_chapter_id"`
	Confidence         float64              `json:"confidence"` // 0-1
	Reasoning          string               `json:"reasoning"`
	Alternatives       []ChapterAlternative `json:"alternatives,omitempty"`
}

// ChapterAlternative is a runner-up chapter for a card
type ChapterAlternative struct {
	ChapterID  string  `json:"chapter_id"`
	Confidence float64 `json:"confidence"`
}

// AssignmentBatch is the result of one assignment run
type AssignmentBatch struct {
	Proposals   []CardAssignmentProposal `json:"proposals"`
	Applied     []string                 `json:"applied,omitempty"`      // Card ids written back by auto-apply
	Unmatched   []string                 `json:"unmatched,omitempty"`    // Cards with no chapter above the minimum
	ApplyErrors map[string]string        `json:"apply_errors,omitempty"` // Card id -> write-back failure
	Error       string                   `json:"error,omitempty"`
}
