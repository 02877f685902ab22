// Package lexical holds the keyword primitives shared by every analysis
// stage: stop-word filtered keyword extraction, document frequency, Jaccard
// similarity and keyword co-occurrence clustering.
package lexical

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultMinLength is the shortest token kept as a keyword
const DefaultMinLength = 4

// stopWords is the fixed list of words never treated as keywords
var stopWords = toSet([]string{
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an",
	"and", "any", "are", "because", "been", "before", "being", "below", "between", "both",
	"but", "by", "can", "could", "did", "does", "doing", "down", "during", "each",
	"even", "ever", "every", "few", "for", "from", "further", "had", "has", "have",
	"having", "he", "her", "here", "hers", "herself", "him", "himself", "his", "how",
	"however", "i", "if", "in", "into", "is", "it", "its", "itself", "just",
	"like", "made", "make", "many", "may", "me", "might", "more", "most", "much",
	"must", "my", "myself", "never", "no", "nor", "not", "now", "of", "off",
	"often", "on", "once", "only", "or", "other", "ought", "our", "ours", "ourselves",
	"out", "over", "own", "really", "same", "said", "shall", "she", "should", "since",
	"so", "some", "still", "such", "than", "that", "the", "their", "theirs", "them",
	"themselves", "then", "there", "these", "they", "thing", "things", "this", "those", "though",
	"through", "thus", "to", "too", "under", "until", "up", "upon", "very", "was",
	"we", "were", "what", "when", "where", "whether", "which", "while", "who", "whom",
	"whose", "why", "will", "with", "within", "without", "would", "yet", "you", "your",
	"yours", "yourself", "yourselves", "wouldve", "couldve", "dont", "didnt", "doesnt", "cant", "wont",
})

// ExtractKeywords returns the keywords of text in order of appearance,
// duplicates included. Tokens shorter than minLength, purely numeric tokens
// and stop-words are dropped.
func ExtractKeywords(text string, minLength int) []string {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}

	var keywords []string
	for _, token := range Tokenize(text) {
		if len([]rune(token)) < minLength {
			continue
		}
		if isNumeric(token) {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		keywords = append(keywords, token)
	}
	return keywords
}

// Tokenize lower-cases text, strips punctuation and splits on whitespace
func Tokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}

// KeywordSet returns the distinct keywords of text
func KeywordSet(text string, minLength int) Set {
	return NewSet(ExtractKeywords(text, minLength)...)
}

// UniqueKeywords returns the distinct keywords of text in order of first appearance
func UniqueKeywords(text string, minLength int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, kw := range ExtractKeywords(text, minLength) {
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// WordCount counts whitespace-separated words
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// WordFrequency returns the document frequency of every keyword: the number
// of texts containing it, not the raw term count.
func WordFrequency(texts []string, minLength int) map[string]int {
	freq := make(map[string]int)
	for _, text := range texts {
		for kw := range KeywordSet(text, minLength) {
			freq[kw]++
		}
	}
	return freq
}

// RankedWord is a keyword with its document frequency
type RankedWord struct {
	Word  string
	Count int
}

// TopWords ranks texts' keywords by document frequency, most frequent first.
// Ties keep first-appearance order so the result is deterministic.
func TopWords(texts []string, minLength, limit int) []RankedWord {
	freq := make(map[string]int)
	var order []string
	for _, text := range texts {
		for _, kw := range UniqueKeywords(text, minLength) {
			if _, ok := freq[kw]; !ok {
				order = append(order, kw)
			}
			freq[kw]++
		}
	}

	ranked := make([]RankedWord, 0, len(order))
	for _, w := range order {
		ranked = append(ranked, RankedWord{Word: w, Count: freq[w]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Capitalize upper-cases the first letter of word
func Capitalize(word string) string {
	if word == "" {
		return word
	}
	runes := []rune(word)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func isNumeric(token string) bool {
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return token != ""
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
