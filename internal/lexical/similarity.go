package lexical

// Set is a set of keywords
type Set map[string]struct{}

// NewSet builds a set from words
func NewSet(words ...string) Set {
	s := make(Set, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// Has reports whether w is in the set
func (s Set) Has(w string) bool {
	_, ok := s[w]
	return ok
}

// Intersection returns |a ∩ b|
func Intersection(a, b Set) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for w := range a {
		if b.Has(w) {
			n++
		}
	}
	return n
}

// Jaccard returns |a ∩ b| / |a ∪ b|, and 0 when both sets are empty
func Jaccard(a, b Set) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := Intersection(a, b)
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Overlap returns the share of target's words found in other, using target
// as the denominator. An empty target scores 0.
func Overlap(target, other Set) float64 {
	if len(target) == 0 {
		return 0
	}
	return float64(Intersection(target, other)) / float64(len(target))
}

// CountIn counts how many of words are in s
func CountIn(words []string, s Set) int {
	n := 0
	for _, w := range words {
		if s.Has(w) {
			n++
		}
	}
	return n
}
