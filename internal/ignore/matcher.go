package ignore

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
)

// FileName is the per-content-directory rules file.
const FileName = ".wordupignore"

// DefaultRules are applied before any user rule and can be negated by one.
var DefaultRules = []string{
	".DS_Store",
	"Thumbs.db",
	".gitkeep",
	"*.swp",
	"*~",
}

type rule struct {
	pattern string
	negated bool
	// scoped rules contain a slash and match the content-relative path
	// ("page/draft-*") instead of the base name.
	scoped bool
}

// Matcher applies gitignore-like rules with "last rule wins" behavior.
type Matcher struct {
	rules []rule
}

// NewMatcher builds a matcher from user-provided .wordupignore lines.
func NewMatcher(userRules []string) *Matcher {
	all := make([]string, 0, len(DefaultRules)+len(userRules))
	all = append(all, DefaultRules...)
	all = append(all, userRules...)

	rules := make([]rule, 0, len(all))
	for _, line := range all {
		if parsed, ok := parseRule(line); ok {
			rules = append(rules, parsed)
		}
	}
	return &Matcher{rules: rules}
}

// Load reads <contentDir>/.wordupignore. A missing file yields the defaults.
func Load(contentDir string) (*Matcher, error) {
	f, err := os.Open(filepath.Join(contentDir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return NewMatcher(nil), nil
		}
		return nil, errors.Wrap(err, "open ignore file")
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read ignore file")
	}
	return NewMatcher(lines), nil
}

// ShouldIgnore reports whether relPath, relative to the content directory,
// is excluded.
func (m *Matcher) ShouldIgnore(relPath string) bool {
	relPath = normalizePath(relPath)
	base := path.Base(relPath)

	ignored := false
	for _, r := range m.rules {
		target := base
		if r.scoped {
			target = relPath
		}
		if ok, err := path.Match(r.pattern, target); err == nil && ok {
			ignored = !r.negated
		}
	}
	return ignored
}

// Filter drops ignored names from a listing of dir without reordering it.
func (m *Matcher) Filter(dir string, names []string) []string {
	if m == nil {
		return names
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if m.ShouldIgnore(path.Join(dir, name)) {
			continue
		}
		out = append(out, name)
	}
	return out
}

func parseRule(line string) (rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false
	}

	parsed := rule{}
	if strings.HasPrefix(line, "!") {
		parsed.negated = true
		line = strings.TrimPrefix(line, "!")
	}
	line = normalizePath(line)
	if line == "" {
		return rule{}, false
	}
	if _, err := path.Match(line, ""); err != nil {
		return rule{}, false
	}
	parsed.scoped = strings.Contains(line, "/")
	parsed.pattern = line
	return parsed, true
}

func normalizePath(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	return p
}
