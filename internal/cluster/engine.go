// Package cluster groups a book's staging cards into topical clusters.
//
// Two regimes are used depending on input size. Small inputs use a quick
// seed-and-compare pass over long words; larger inputs build a full
// pairwise similarity map and grow clusters by transitive closure. Both are
// greedy and order dependent: they are best-effort groupings, not a globally
// optimal clustering.
package cluster

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ppiankov/quire/internal/lexical"
	"github.com/ppiankov/quire/internal/model"
)

// Mode names the regime used for a run
type Mode string

const (
	ModeQuick Mode = "quick"
	ModeFull  Mode = "full"
)

const (
	unnamedCluster = "Unnamed Theme"
	namingCards    = 3
	quickMinLength = 5 // quick mode only compares words longer than 4 characters
)

// Result is the output of a clustering run
type Result struct {
	Mode        Mode                    `json:"mode"`
	Clusters    []model.SemanticCluster `json:"clusters"`
	Unclustered []string                `json:"unclustered"`
	Stats       model.ClusterStats      `json:"stats"`
}

// Engine clusters staging cards
type Engine struct {
	cfg model.ClusterConfig
}

// NewEngine creates a new clustering engine
func NewEngine(cfg model.ClusterConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Cluster groups cards by keyword similarity. Every card ends up in at most
// one cluster; cards that fit nowhere are reported as unclustered.
func (e *Engine) Cluster(cards []model.Card) Result {
	var res Result
	if len(cards) < e.cfg.QuickModeLimit {
		res = e.quick(cards)
	} else {
		res = e.full(cards)
	}
	if res.Clusters == nil {
		res.Clusters = []model.SemanticCluster{}
	}
	if res.Unclustered == nil {
		res.Unclustered = []string{}
	}
	res.Stats = stats(len(cards), res.Clusters)
	return res
}

// quick handles small inputs by seeding from each unclustered card in turn
func (e *Engine) quick(cards []model.Card) Result {
	res := Result{Mode: ModeQuick}
	if len(cards) == 0 {
		return res
	}

	sets := keywordSets(cards, quickMinLength)
	sim := func(i, j int) float64 { return lexical.Jaccard(sets[i], sets[j]) }

	if len(cards) < 3 {
		all := indexes(len(cards))
		res.Clusters = append(res.Clusters, e.build(1, cards, all, sim))
		return res
	}

	clustered := make([]bool, len(cards))
	var groups [][]int
	var bucket []int

	for seed := range cards {
		if clustered[seed] {
			continue
		}
		clustered[seed] = true
		members := []int{seed}

		for other := range cards {
			if other == seed || clustered[other] {
				continue
			}
			if sim(seed, other) > e.cfg.JaccardThreshold {
				clustered[other] = true
				members = append(members, other)
			}
		}

		if len(members) < e.cfg.MinClusterSize {
			bucket = append(bucket, members...)
			continue
		}
		groups = append(groups, members)
	}

	if len(bucket) > 0 && len(bucket) >= e.cfg.MinClusterSize {
		groups = append(groups, bucket)
		bucket = nil
	}

	for i, g := range groups {
		res.Clusters = append(res.Clusters, e.build(i+1, cards, g, sim))
	}
	res.Unclustered = cardIDs(cards, bucket)
	return res
}

// full handles larger inputs with greedy transitive closure over a
// precomputed similarity matrix
func (e *Engine) full(cards []model.Card) Result {
	res := Result{Mode: ModeFull}

	sets := keywordSets(cards, lexical.DefaultMinLength)
	matrix := similarityMatrix(sets)
	sim := func(i, j int) float64 { return matrix[i][j] }

	remaining := indexes(len(cards))
	var groups [][]int
	var failedSeeds []int

	for len(remaining) > 0 && len(groups) < e.cfg.MaxClusters {
		seed := remaining[0]
		rest := remaining[1:]
		inCluster := map[int]bool{seed: true}
		members := []int{seed}

		for _, c := range rest {
			if sim(seed, c) >= e.cfg.SimilarityThreshold {
				inCluster[c] = true
				members = append(members, c)
			}
		}

		// Absorb anything similar to any member until nothing changes.
		for changed := true; changed; {
			changed = false
			for _, c := range rest {
				if inCluster[c] {
					continue
				}
				for _, m := range members {
					if sim(m, c) >= e.cfg.SimilarityThreshold {
						inCluster[c] = true
						members = append(members, c)
						changed = true
						break
					}
				}
			}
		}

		next := make([]int, 0, len(rest))
		for _, c := range rest {
			if !inCluster[c] {
				next = append(next, c)
			}
		}

		if len(members) < e.cfg.MinClusterSize {
			// Disband: the seed may not seed again, the rest go back to
			// the pool in their original order.
			failedSeeds = append(failedSeeds, seed)
			remaining = returnToPool(next, members[1:])
			continue
		}

		groups = append(groups, members)
		remaining = next
	}

	// The leftover bucket is not counted against MaxClusters
	leftover := mergeOrdered(remaining, failedSeeds)
	if len(leftover) > 0 && len(leftover) >= e.cfg.MinClusterSize {
		groups = append(groups, leftover)
		leftover = nil
	}

	for i, g := range groups {
		res.Clusters = append(res.Clusters, e.build(i+1, cards, g, sim))
	}
	res.Unclustered = cardIDs(cards, leftover)
	return res
}

func (e *Engine) build(n int, cards []model.Card, members []int, sim func(i, j int) float64) model.SemanticCluster {
	return model.SemanticCluster{
		ID:            fmt.Sprintf("cluster-%d", n),
		Name:          Name(cards, members),
		CardIDs:       cardIDs(cards, members),
		SeedCardID:    cards[members[0]].ID,
		AvgSimilarity: avgPairwise(members, sim),
	}
}

// Name labels a cluster with its two most common keywords across its first
// three cards, scored by the number of cards containing each word.
func Name(cards []model.Card, members []int) string {
	var texts []string
	for i, m := range members {
		if i >= namingCards {
			break
		}
		texts = append(texts, cards[m].Content)
	}

	top := lexical.TopWords(texts, lexical.DefaultMinLength, 2)
	if len(top) == 0 {
		return unnamedCluster
	}
	words := make([]string, len(top))
	for i, w := range top {
		words[i] = lexical.Capitalize(w.Word)
	}
	return strings.Join(words, " & ")
}

func stats(total int, clusters []model.SemanticCluster) model.ClusterStats {
	s := model.ClusterStats{
		TotalCards:   total,
		ClusterCount: len(clusters),
	}
	for _, c := range clusters {
		s.ClusteredCards += len(c.CardIDs)
	}
	s.UnclusteredCount = total - s.ClusteredCards
	if s.ClusterCount > 0 {
		s.AvgClusterSize = float64(s.ClusteredCards) / float64(s.ClusterCount)
	}
	if total > 0 {
		s.UnclusteredPercent = float64(s.UnclusteredCount) / float64(total) * 100
	}
	return s
}

func keywordSets(cards []model.Card, minLength int) []lexical.Set {
	sets := make([]lexical.Set, len(cards))
	for i, c := range cards {
		sets[i] = lexical.KeywordSet(c.Content, minLength)
	}
	return sets
}

func similarityMatrix(sets []lexical.Set) [][]float64 {
	m := make([][]float64, len(sets))
	for i := range m {
		m[i] = make([]float64, len(sets))
	}
	for i := range sets {
		m[i][i] = 1
		for j := i + 1; j < len(sets); j++ {
			s := lexical.Jaccard(sets[i], sets[j])
			m[i][j] = s
			m[j][i] = s
		}
	}
	return m
}

func avgPairwise(members []int, sim func(i, j int) float64) float64 {
	if len(members) < 2 {
		return 0
	}
	var sum float64
	pairs := 0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			sum += sim(members[i], members[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}

// returnToPool puts disbanded members back into the ascending pool. Members
// are in discovery order, so they are sorted first.
func returnToPool(pool, members []int) []int {
	returned := slices.Clone(members)
	slices.Sort(returned)
	return mergeOrdered(pool, returned)
}

// mergeOrdered merges two ascending index lists into one ascending list
func mergeOrdered(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] < b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

func indexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func cardIDs(cards []model.Card, idx []int) []string {
	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, cards[i].ID)
	}
	return out
}
