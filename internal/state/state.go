package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-faster/errors"

	"github.com/wordup-dev/wordup/internal/fileutil"
	"github.com/wordup-dev/wordup/internal/store"
)

const (
	StateFile           = ".wordup-state.json"
	CurrentStateVersion = "1"
)

// FileState tracks one imported file, keyed by its content-relative path.
type FileState struct {
	Hash     string    `json:"hash"`
	Kind     string    `json:"kind"` // media | post | page
	Title    string    `json:"title,omitempty"`
	ID       store.ID  `json:"id,omitempty"`
	Parent   store.ID  `json:"parent,omitempty"`
	Outcome  string    `json:"outcome,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Imported time.Time `json:"imported_at"`
}

// State is the manifest of the last successful import.
type State struct {
	Version   string               `json:"version"`
	RunID     string               `json:"run_id,omitempty"`
	Store     string               `json:"store,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
	Files     map[string]FileState `json:"files"`
}

// Diff groups content paths by how they differ from the manifest.
type Diff struct {
	Added   []string `json:"added"`
	Changed []string `json:"changed"`
	Removed []string `json:"removed"`
}

// Empty reports whether nothing changed.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0
}

// NewState creates a new empty state
func NewState() *State {
	return &State{
		Version: CurrentStateVersion,
		Files:   make(map[string]FileState),
	}
}

// Load reads state from the content directory. A missing file yields an
// empty state.
func Load(contentDir string) (*State, error) {
	path := filepath.Join(contentDir, StateFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, errors.Wrap(err, "read import state")
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}

	switch state.Version {
	case "":
		state.Version = CurrentStateVersion
	case CurrentStateVersion:
	default:
		return nil, errors.Errorf("%s: unsupported version %q", path, state.Version)
	}
	if state.Files == nil {
		state.Files = make(map[string]FileState)
	}
	return &state, nil
}

// Save writes state to the content directory.
func (s *State) Save(contentDir string) error {
	if s.Version == "" {
		s.Version = CurrentStateVersion
	}
	if s.Files == nil {
		s.Files = make(map[string]FileState)
	}

	s.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode import state")
	}

	path := filepath.Join(contentDir, StateFile)
	if err := fileutil.WriteIfChanged(path, data); err != nil {
		return errors.Wrap(err, "write import state")
	}
	return nil
}

// SetFile records the state of one file.
func (s *State) SetFile(path string, fs FileState) {
	if s.Files == nil {
		s.Files = make(map[string]FileState)
	}
	s.Files[path] = fs
}

// GetFileHash returns the stored hash for a file
func (s *State) GetFileHash(file string) (string, bool) {
	fs, ok := s.Files[file]
	if !ok {
		return "", false
	}
	return fs.Hash, true
}

// HasChanged returns true if the file hash differs from stored
func (s *State) HasChanged(file, currentHash string) bool {
	storedHash, ok := s.GetFileHash(file)
	if !ok {
		return true // New file
	}
	return storedHash != currentHash
}

// ChangedFiles returns new or modified files, sorted.
func (s *State) ChangedFiles(currentHashes map[string]string) []string {
	changed := make([]string, 0)

	for file, hash := range currentHashes {
		if s.HasChanged(file, hash) {
			changed = append(changed, file)
		}
	}

	sort.Strings(changed)
	return changed
}

// DeletedFiles returns tracked files that no longer exist, sorted.
func (s *State) DeletedFiles(currentFiles map[string]bool) []string {
	deleted := make([]string, 0)

	for file := range s.Files {
		if !currentFiles[file] {
			deleted = append(deleted, file)
		}
	}

	sort.Strings(deleted)
	return deleted
}

// Compare splits the difference between currentHashes and the manifest into
// added, changed and removed paths.
func (s *State) Compare(currentHashes map[string]string) Diff {
	diff := Diff{
		Added:   make([]string, 0),
		Changed: make([]string, 0),
	}
	for _, file := range s.ChangedFiles(currentHashes) {
		if _, tracked := s.Files[file]; tracked {
			diff.Changed = append(diff.Changed, file)
		} else {
			diff.Added = append(diff.Added, file)
		}
	}

	current := make(map[string]bool, len(currentHashes))
	for file := range currentHashes {
		current[file] = true
	}
	diff.Removed = s.DeletedFiles(current)
	return diff
}
