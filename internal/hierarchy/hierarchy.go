// Package hierarchy infers parent/child relations between documents of one
// post type.
package hierarchy

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/wordup-dev/wordup/internal/store"
)

// Separator joins a parent base name to a child suffix ("about--team").
const Separator = "--"

// Inferrer decides the parent of listing[i]. created holds the id recorded
// for each earlier index, NoID where a document was skipped.
type Inferrer interface {
	Parent(postType string, listing []string, i int, created []store.ID) store.ID
}

// FilenamePrefix looks one document back: listing[i] is a child of
// listing[i-1] when its base name starts with the previous base name plus
// Separator. Posts are always top level.
type FilenamePrefix struct{}

var _ Inferrer = FilenamePrefix{}

func (FilenamePrefix) Parent(postType string, listing []string, i int, created []store.ID) store.ID {
	if postType == store.PostTypePost {
		return store.NoID
	}
	if i <= 0 || i >= len(listing) || i-1 >= len(created) {
		return store.NoID
	}

	prev := BaseName(listing[i-1])
	if prev == "" {
		return store.NoID
	}
	if strings.HasPrefix(BaseName(listing[i]), prev+Separator) {
		return created[i-1]
	}
	return store.NoID
}

// BaseName strips the directory and the last extension.
func BaseName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SortDescending returns a copy of names in descending byte order. Both the
// reset pass and the creation pass iterate in this order.
func SortDescending(names []string) []string {
	out := append([]string(nil), names...)
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}
