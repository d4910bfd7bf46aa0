package search

import "testing"

func TestSuggest(t *testing.T) {
	media := Build([]string{"cover.jpg", "team-photo.png", "logo.svg", "cover.jpg"})
	if media.Len() != 3 {
		t.Fatalf("expected duplicates to be dropped, got %d entries", media.Len())
	}

	tests := []struct {
		query string
		want  string
	}{
		{"covr.jpg", "cover.jpg"},
		{"cover.png", "cover.jpg"},
		{"photo-team.png", "team-photo.png"},
		{"teamphoto.png", "team-photo.png"},
		{"unrelated.gif", ""},
		{"cover.jpg", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := media.Suggest(tt.query); got != tt.want {
			t.Fatalf("Suggest(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestSuggestAuthors(t *testing.T) {
	authors := Build([]string{"admin", "Jane Doe", "J. Smith"})

	if got := authors.Suggest("jane"); got != "Jane Doe" {
		t.Fatalf("expected Jane Doe, got %q", got)
	}
	if got := authors.Suggest("Jnae Doe"); got != "Jane Doe" {
		t.Fatalf("expected Jane Doe for a transposed first name, got %q", got)
	}
	if got := authors.Suggest("smith"); got != "J. Smith" {
		t.Fatalf("expected J. Smith, got %q", got)
	}
}

func TestSearchRanksAndLimits(t *testing.T) {
	idx := Build([]string{"hero-banner.jpg", "hero.jpg", "banner.jpg"})

	results := idx.Search("hero", 2)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "hero.jpg" {
		t.Fatalf("expected the shorter exact name first, got %+v", results)
	}
	if results[0].Score < results[1].Score {
		t.Fatalf("expected descending scores, got %+v", results)
	}
}

func TestEmptyIndex(t *testing.T) {
	var idx *Index
	if idx.Len() != 0 || idx.Search("x", 1) != nil {
		t.Fatalf("expected nil index to be empty")
	}
	if got := Build(nil).Suggest("anything"); got != "" {
		t.Fatalf("expected no suggestion from an empty index, got %q", got)
	}
}

func TestLevenshteinDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"cover", "covr", 1},
		{"kitten", "sitting", 3},
		{"same", "same", 0},
	}
	for _, tc := range cases {
		if got := levenshteinDistance(tc.a, tc.b); got != tc.want {
			t.Fatalf("levenshteinDistance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
