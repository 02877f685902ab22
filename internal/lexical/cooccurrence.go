package lexical

// DefaultMinCooccurrence is the number of texts a word pair must share
const DefaultMinCooccurrence = 2

// WordCluster is a group of words that repeatedly appear together
type WordCluster struct {
	Words []string // Insertion order
}

type wordPair struct {
	a, b string
}

// CoOccurrenceClusters groups keywords that co-occur in at least
// minCooccurrence texts.
//
// For every text, every unordered pair of its distinct keywords is counted.
// Pairs are then visited in the order they were first seen, which follows
// the order of texts, and each pair at or above the threshold is merged:
// if either word already belongs to a cluster both words join it,
// otherwise a new cluster is created. When the two words already sit in
// different clusters, the later cluster is folded into the earlier one.
// The grouping is greedy and order dependent; the first pair wins ties.
func CoOccurrenceClusters(texts []string, minLength, minCooccurrence int) []WordCluster {
	if minCooccurrence <= 0 {
		minCooccurrence = DefaultMinCooccurrence
	}

	counts := make(map[wordPair]int)
	var order []wordPair
	for _, text := range texts {
		words := UniqueKeywords(text, minLength)
		for i := 0; i < len(words); i++ {
			for j := i + 1; j < len(words); j++ {
				key := canonicalPair(words[i], words[j])
				if _, seen := counts[key]; !seen {
					order = append(order, wordPair{a: words[i], b: words[j]})
				}
				counts[key]++
			}
		}
	}

	ds := newDisjointSet()
	for _, p := range order {
		if counts[canonicalPair(p.a, p.b)] < minCooccurrence {
			continue
		}
		ds.union(p.a, p.b)
	}
	return ds.clusters()
}

func canonicalPair(a, b string) wordPair {
	if a > b {
		a, b = b, a
	}
	return wordPair{a: a, b: b}
}

// disjointSet is a union-find over words with path compression.
// Roots carry the creation rank of their cluster so merges always keep the
// earliest-created cluster, and word order records insertion order.
type disjointSet struct {
	parent map[string]string
	rank   map[string]int // root -> creation order of its cluster
	order  []string       // words in insertion order
	next   int
}

func newDisjointSet() *disjointSet {
	return &disjointSet{
		parent: make(map[string]string),
		rank:   make(map[string]int),
	}
}

func (d *disjointSet) find(w string) string {
	root := w
	for d.parent[root] != root {
		root = d.parent[root]
	}
	for d.parent[w] != root {
		next := d.parent[w]
		d.parent[w] = root
		w = next
	}
	return root
}

func (d *disjointSet) has(w string) bool {
	_, ok := d.parent[w]
	return ok
}

func (d *disjointSet) add(w string, root string) {
	d.parent[w] = root
	d.order = append(d.order, w)
}

func (d *disjointSet) union(a, b string) {
	hasA, hasB := d.has(a), d.has(b)
	switch {
	case !hasA && !hasB:
		d.add(a, a)
		d.add(b, a)
		d.rank[a] = d.next
		d.next++
	case hasA && !hasB:
		d.add(b, d.find(a))
	case !hasA && hasB:
		d.add(a, d.find(b))
	default:
		ra, rb := d.find(a), d.find(b)
		if ra == rb {
			return
		}
		if d.rank[rb] < d.rank[ra] {
			ra, rb = rb, ra
		}
		d.parent[rb] = ra
		delete(d.rank, rb)
	}
}

func (d *disjointSet) clusters() []WordCluster {
	byRoot := make(map[string]*WordCluster)
	for _, w := range d.order {
		root := d.find(w)
		c, ok := byRoot[root]
		if !ok {
			c = &WordCluster{}
			byRoot[root] = c
		}
		c.Words = append(c.Words, w)
	}

	out := make([]WordCluster, d.next)
	for root, rank := range d.rank {
		out[rank] = *byRoot[root]
	}

	// Ranks of merged-away clusters leave holes; compact them.
	compact := out[:0]
	for _, c := range out {
		if len(c.Words) > 0 {
			compact = append(compact, c)
		}
	}
	return compact
}
