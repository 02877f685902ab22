package model

import "time"

// Config holds every tunable threshold of the engine plus the settings of
// its collaborators. The engine never hardcodes a threshold a caller cannot
// override; it also never validates ranges, which is the loader's job.
type Config struct {
	Cluster     ClusterConfig     `yaml:"cluster" mapstructure:"cluster"`
	Research    ResearchConfig    `yaml:"research" mapstructure:"research"`
	Outline     OutlineConfig     `yaml:"outline" mapstructure:"outline"`
	Assign      AssignConfig      `yaml:"assign" mapstructure:"assign"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// ClusterConfig tunes the staging-card clustering engine
type ClusterConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold" validate:"gte=0,lte=1"`
	JaccardThreshold    float64 `yaml:"jaccard_threshold" mapstructure:"jaccard_threshold" validate:"gte=0,lte=1"`
	MinClusterSize      int     `yaml:"min_cluster_size" mapstructure:"min_cluster_size" validate:"gte=1"`
	MaxClusters         int     `yaml:"max_clusters" mapstructure:"max_clusters" validate:"gte=1"`

	// Below this many cards the quick regime is used
	QuickModeLimit int `yaml:"quick_mode_limit" mapstructure:"quick_mode_limit" validate:"gte=0"`
}

// ResearchConfig tunes theme extraction, arc detection and source mapping
type ResearchConfig struct {
	MinThemes           int     `yaml:"min_themes" mapstructure:"min_themes" validate:"gte=0"`
	MaxThemes           int     `yaml:"max_themes" mapstructure:"max_themes" validate:"gte=1"`
	MinCardsPerTheme    int     `yaml:"min_cards_per_theme" mapstructure:"min_cards_per_theme" validate:"gte=1"`
	TopKeywordsPerTheme int     `yaml:"top_keywords_per_theme" mapstructure:"top_keywords_per_theme" validate:"gte=2"`
	MinCooccurrence     int     `yaml:"min_cooccurrence" mapstructure:"min_cooccurrence" validate:"gte=1"`
	MinRelevance        float64 `yaml:"min_relevance" mapstructure:"min_relevance" validate:"gte=0,lte=1"`
	KeywordMinLength    int     `yaml:"keyword_min_length" mapstructure:"keyword_min_length" validate:"gte=1"`
	ThemeStrengthNorm   int     `yaml:"theme_strength_norm" mapstructure:"theme_strength_norm" validate:"gte=1"`

	// Phase-strength denominators of the Main Narrative arc
	ArcSetupNorm       int `yaml:"arc_setup_norm" mapstructure:"arc_setup_norm" validate:"gte=1"`
	ArcDevelopmentNorm int `yaml:"arc_development_norm" mapstructure:"arc_development_norm" validate:"gte=1"`
	ArcResolutionNorm  int `yaml:"arc_resolution_norm" mapstructure:"arc_resolution_norm" validate:"gte=1"`

	// Temporal arc heuristic
	TemporalMinCards    int     `yaml:"temporal_min_cards" mapstructure:"temporal_min_cards" validate:"gte=3"`
	TemporalTopKeywords int     `yaml:"temporal_top_keywords" mapstructure:"temporal_top_keywords" validate:"gte=1"`
	TemporalOverlapMin  int     `yaml:"temporal_overlap_min" mapstructure:"temporal_overlap_min" validate:"gte=1"`
	TemporalStrength    float64 `yaml:"temporal_strength" mapstructure:"temporal_strength" validate:"gte=0,lte=1"`
	TemporalCompletion  float64 `yaml:"temporal_completeness" mapstructure:"temporal_completeness" validate:"gte=0,lte=1"`
}

// OutlineConfig tunes the outline generator and card orderer
type OutlineConfig struct {
	MaxSections             int     `yaml:"max_sections" mapstructure:"max_sections" validate:"gte=1"`
	ThemeRelevanceThreshold float64 `yaml:"theme_relevance_threshold" mapstructure:"theme_relevance_threshold" validate:"gte=0,lte=1"`
	MaxSectionOverlap       float64 `yaml:"max_section_overlap" mapstructure:"max_section_overlap" validate:"gte=0,lte=1"`
	PreferArcStructure      bool    `yaml:"prefer_arc_structure" mapstructure:"prefer_arc_structure"`

	// Card orderer settings
	MinRelevance   float64 `yaml:"min_relevance" mapstructure:"min_relevance" validate:"gte=0,lte=1"`
	UseAssignments bool    `yaml:"use_assignments" mapstructure:"use_assignments"`
}

// AssignConfig tunes card-to-chapter assignment
type AssignConfig struct {
	MinConfidence           float64 `yaml:"min_confidence" mapstructure:"min_confidence" validate:"gte=0,lte=1"`
	HighConfidenceThreshold float64 `yaml:"high_confidence_threshold" mapstructure:"high_confidence_threshold" validate:"gte=0,lte=1"`
	MaxAlternatives         int     `yaml:"max_alternatives" mapstructure:"max_alternatives" validate:"gte=0"`
	AutoApply               bool    `yaml:"auto_apply" mapstructure:"auto_apply"`
}

// CacheConfig controls research caching
type CacheConfig struct {
	Enabled            bool   `yaml:"enabled" mapstructure:"enabled"`
	Backend            string `yaml:"backend" mapstructure:"backend" validate:"oneof=memory disk sqlite layered"`
	Dir                string `yaml:"dir" mapstructure:"dir"`
	ResearchTTLSeconds int    `yaml:"research_ttl_seconds" mapstructure:"research_ttl_seconds" validate:"gte=0"`
}

// ResearchTTL returns the research freshness window
func (c CacheConfig) ResearchTTL() time.Duration {
	return time.Duration(c.ResearchTTLSeconds) * time.Second
}

// StoreConfig locates the SQLite card store
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path" validate:"required"`
}

// LLMConfig configures the optional outline brief.
// The brief never affects any engine decision.
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=openai ollama"`
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"-" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	Timeout        int    `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`
	StrictCitation bool   `yaml:"strict_citation" mapstructure:"strict_citation"`
	HTTPProxy      string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy     string `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// ConcurrencyConfig bounds batch processing
type ConcurrencyConfig struct {
	Workers         int     `yaml:"workers" mapstructure:"workers" validate:"gte=1"`
	BriefsPerSecond float64 `yaml:"briefs_per_second" mapstructure:"briefs_per_second" validate:"gt=0"`
	BriefBurst      int     `yaml:"brief_burst" mapstructure:"brief_burst" validate:"gte=1"`
}

// LoggingConfig selects the logger mode
type LoggingConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode" validate:"oneof=dev prod nop"`
}

// DefaultConfig returns the documented defaults
func DefaultConfig() *Config {
	return &Config{
		Cluster: ClusterConfig{
			SimilarityThreshold: 0.55,
			JaccardThreshold:    0.15,
			MinClusterSize:      2,
			MaxClusters:         10,
			QuickModeLimit:      10,
		},
		Research: ResearchConfig{
			MinThemes:           3,
			MaxThemes:           10,
			MinCardsPerTheme:    2,
			TopKeywordsPerTheme: 5,
			MinCooccurrence:     2,
			MinRelevance:        0.2,
			KeywordMinLength:    4,
			ThemeStrengthNorm:   5,
			ArcSetupNorm:        3,
			ArcDevelopmentNorm:  5,
			ArcResolutionNorm:   2,
			TemporalMinCards:    4,
			TemporalTopKeywords: 10,
			TemporalOverlapMin:  3,
			TemporalStrength:    0.8,
			TemporalCompletion:  0.7,
		},
		Outline: OutlineConfig{
			MaxSections:             10,
			ThemeRelevanceThreshold: 0.3,
			MaxSectionOverlap:       0.5,
			PreferArcStructure:      true,
			MinRelevance:            0.2,
			UseAssignments:          true,
		},
		Assign: AssignConfig{
			MinConfidence:           0.3,
			HighConfidenceThreshold: 0.8,
			MaxAlternatives:         3,
			AutoApply:               false,
		},
		Cache: CacheConfig{
			Enabled:            true,
			Backend:            "layered",
			Dir:                "",
			ResearchTTLSeconds: 3600,
		},
		Store: StoreConfig{
			Path: "quire.db",
		},
		LLM: LLMConfig{
			Provider:       "", // Disabled by default
			Timeout:        30,
			MaxTokens:      800,
			StrictCitation: true,
		},
		Concurrency: ConcurrencyConfig{
			Workers:         4,
			BriefsPerSecond: 1,
			BriefBurst:      2,
		},
		Logging: LoggingConfig{
			Mode: "dev",
		},
	}
}
