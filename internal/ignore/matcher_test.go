package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatcher_DefaultAndUserOverrides(t *testing.T) {
	m := NewMatcher([]string{
		"# drafts stay local",
		"draft-*",
		"!draft-keep.md",
		"page/private*",
		"!.gitkeep",
	})

	cases := []struct {
		path    string
		ignored bool
	}{
		{path: "media/.DS_Store", ignored: true},
		{path: "media/Thumbs.db", ignored: true},
		{path: "post/hello.md.swp", ignored: true},
		{path: "post/hello.md~", ignored: true},
		{path: "post/.gitkeep", ignored: false},
		{path: "post/draft-one.md", ignored: true},
		{path: "post/draft-keep.md", ignored: false},
		{path: "page/private-notes.md", ignored: true},
		{path: "post/private-notes.md", ignored: false},
		{path: "media/cover.jpg", ignored: false},
	}

	for _, tc := range cases {
		got := m.ShouldIgnore(tc.path)
		if got != tc.ignored {
			t.Fatalf("path %s: expected ignored=%v, got %v", tc.path, tc.ignored, got)
		}
	}
}

func TestMatcher_FilterKeepsOrder(t *testing.T) {
	m := NewMatcher([]string{"*.bak"})
	got := m.Filter("media", []string{"z.png", ".DS_Store", "a.bak", "b.jpg", "a.png"})
	want := []string{"z.png", "b.jpg", "a.png"}

	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	m, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !m.ShouldIgnore("post/.DS_Store") {
		t.Fatalf("expected default rule to apply")
	}
}

func TestLoad_ReadsRulesFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("*.psd\n\n!keep.psd\n"), 0644); err != nil {
		t.Fatalf("write ignore file: %v", err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !m.ShouldIgnore("media/layout.psd") {
		t.Fatalf("expected layout.psd to be ignored")
	}
	if m.ShouldIgnore("media/keep.psd") {
		t.Fatalf("expected keep.psd to be included")
	}
}
