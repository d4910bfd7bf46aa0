package fileutil

import (
	"os"
)

// ListFlat returns the regular files directly inside dir in the order the
// filesystem reports them. exists is false when dir is absent.
func ListFlat(dir string) (names []string, exists bool, err error) {
	f, err := os.Open(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, true, err
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, true, err
	}

	names = make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, true, nil
}
