package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/wordup-dev/wordup/internal/ignore"
)

func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

// ScanFileHashes hashes the non-ignored files of each sub directory of
// contentDir. Keys are slash-separated paths relative to contentDir
// ("post/hello.md"). Missing sub directories contribute nothing.
func ScanFileHashes(contentDir string, subDirs []string, matcher *ignore.Matcher) (map[string]string, error) {
	hashes := make(map[string]string)

	for _, sub := range subDirs {
		names, _, err := ListFlat(filepath.Join(contentDir, sub))
		if err != nil {
			return nil, err
		}
		for _, name := range matcher.Filter(sub, names) {
			hash, err := HashFile(filepath.Join(contentDir, sub, name))
			if err != nil {
				return nil, err
			}
			hashes[path.Join(sub, name)] = hash
		}
	}

	return hashes, nil
}
