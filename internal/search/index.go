// Package search ranks known names against a misspelled reference, so a
// dangling featured image or author can be reported with a suggestion.
package search

import (
	"math"
	"path"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

type entry struct {
	name   string
	length int
	terms  map[string]int
}

// Index is a BM25 index over a set of names.
type Index struct {
	entries      []entry
	docFreq      map[string]int
	avgDocLength float64
}

// Result is one ranked name.
type Result struct {
	Name  string
	Score float64
}

// Build indexes names. Duplicates and names without tokens are dropped.
func Build(names []string) *Index {
	index := &Index{docFreq: make(map[string]int)}
	seen := make(map[string]bool, len(names))
	totalLength := 0

	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		terms := make(map[string]int)
		for _, token := range tokenize(name) {
			terms[token]++
		}
		// the joined form lets "coverimage" hit "cover-image"
		if joined := normalizeForFuzzy(name); joined != "" {
			terms[joined]++
		}
		length := 0
		for _, count := range terms {
			length += count
		}
		if length == 0 {
			continue
		}

		index.entries = append(index.entries, entry{name: name, length: length, terms: terms})
		totalLength += length
		for term := range terms {
			index.docFreq[term]++
		}
	}

	sort.Slice(index.entries, func(i, j int) bool {
		return index.entries[i].name < index.entries[j].name
	})
	if len(index.entries) > 0 {
		index.avgDocLength = float64(totalLength) / float64(len(index.entries))
	}
	return index
}

// Len reports how many names are indexed.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Search ranks indexed names for query. When no token matches it falls back
// to edit distance over the whole name.
func (idx *Index) Search(query string, limit int) []Result {
	if idx.Len() == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 3
	}

	queryTerms := tokenize(query)
	if joined := normalizeForFuzzy(query); joined != "" {
		queryTerms = append(queryTerms, joined)
	}
	if len(queryTerms) == 0 {
		return nil
	}
	seenTerms := make(map[string]bool, len(queryTerms))
	uniqueTerms := make([]string, 0, len(queryTerms))
	for _, term := range queryTerms {
		if seenTerms[term] {
			continue
		}
		seenTerms[term] = true
		uniqueTerms = append(uniqueTerms, term)
	}

	k1 := 1.2
	b := 0.75
	n := float64(len(idx.entries))
	avgLen := idx.avgDocLength
	if avgLen <= 0 {
		avgLen = 1
	}

	results := make([]Result, 0)
	for _, e := range idx.entries {
		score := 0.0
		docLen := float64(e.length)
		for _, term := range uniqueTerms {
			tf := float64(e.terms[term])
			if tf <= 0 {
				continue
			}
			df := float64(idx.docFreq[term])
			idf := math.Log(1.0 + ((n - df + 0.5) / (df + 0.5)))
			score += idf * (tf * (k1 + 1.0)) / (tf + k1*(1.0-b+b*(docLen/avgLen)))
		}
		if score > 0 {
			results = append(results, Result{Name: e.name, Score: score})
		}
	}

	if len(results) == 0 {
		results = fuzzyNameFallback(idx.entries, query)
	}
	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Suggest returns the best match for query, or "" when nothing is close.
func (idx *Index) Suggest(query string) string {
	results := idx.Search(query, 1)
	if len(results) == 0 || results[0].Name == query {
		return ""
	}
	return results[0].Name
}

func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Name < results[j].Name
	})
}

// tokenize lowercases value and splits it into alphanumeric runs. A file
// extension is dropped so "cover.png" still finds "cover.jpg".
func tokenize(value string) []string {
	if ext := path.Ext(value); ext != "" && len(ext) <= 6 && !strings.ContainsAny(ext, " \t") {
		value = strings.TrimSuffix(value, ext)
	}
	value = strings.ToLower(value)
	if value == "" {
		return nil
	}
	return tokenPattern.FindAllString(value, -1)
}

func fuzzyNameFallback(entries []entry, query string) []Result {
	needle := normalizeForFuzzy(query)
	if needle == "" {
		return nil
	}

	results := make([]Result, 0)
	for _, e := range entries {
		candidate := normalizeForFuzzy(e.name)
		if candidate == "" {
			continue
		}
		distance := levenshteinDistance(needle, candidate)
		threshold := len(candidate) / 3
		if threshold < 2 {
			threshold = 2
		}
		if distance > threshold {
			continue
		}
		results = append(results, Result{Name: e.name, Score: 1.0 / float64(1+distance)})
	}
	return results
}

func normalizeForFuzzy(value string) string {
	return strings.Join(tokenize(value), "")
}

func levenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		current := make([]int, len(b)+1)
		current[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			current[j] = min(current[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev = current
	}
	return prev[len(b)]
}
