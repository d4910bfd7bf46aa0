// Package document parses front-matter annotated content files.
package document

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnparsable marks a document the importer skips.
	ErrUnparsable = errors.New("document unparsable")
	// ErrMissingTitle is returned when title is absent, empty or not a scalar.
	ErrMissingTitle = errors.Wrap(ErrUnparsable, "missing title")
)

var blockFormat = frontmatter.NewFormat("---", "---", unmarshalFrontMatter)

// Parse splits raw into front matter and body.
func Parse(filename string, raw []byte) (*Document, error) {
	var fm FrontMatter
	rest, err := frontmatter.MustParse(bytes.NewReader(raw), &fm, blockFormat)
	if err != nil {
		if errors.Is(err, frontmatter.ErrNotFound) {
			return nil, errors.Wrapf(ErrUnparsable, "%s: no front matter block", filename)
		}
		return nil, errors.Wrapf(ErrUnparsable, "%s: %v", filename, err)
	}
	if fm == nil {
		fm = make(FrontMatter)
	}

	doc := &Document{
		Filename:    filename,
		FrontMatter: fm,
		Body:        trimLeadingBlankLines(string(rest)),
		Hash:        hashContent(raw),
	}
	if field, ok := fm[FieldTitle]; !ok || field.Kind != KindScalar || doc.Title() == "" {
		return nil, errors.Wrap(ErrMissingTitle, filename)
	}
	return doc, nil
}

// ParseFile reads and parses one document. The filename recorded on the
// document is the base name.
func ParseFile(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read document")
	}
	return Parse(filepath.Base(path), raw)
}

// unmarshalFrontMatter decodes a block as YAML. Blocks that are not valid
// YAML, or where YAML would read part of a value as a comment, are decoded
// as plain "key: value" lines instead.
func unmarshalFrontMatter(data []byte, v interface{}) error {
	out, ok := v.(*FrontMatter)
	if !ok {
		return errors.Errorf("unexpected target %T", v)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil || hasLineComment(&node) {
		fm, lineErr := parseLines(data)
		if lineErr != nil {
			if err != nil {
				return err
			}
			return lineErr
		}
		*out = fm
		return nil
	}

	fm, err := decodeFrontMatter(&node)
	if err != nil {
		return err
	}
	*out = fm
	return nil
}

// parseLines reads one "key: value" pair per line, splitting on the first
// colon. A key with an empty value collects the "- item" lines below it.
func parseLines(data []byte) (FrontMatter, error) {
	fm := make(FrontMatter)
	listKey := ""
	for n, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if listKey != "" && strings.HasPrefix(line, "-") {
			item := strings.TrimSpace(strings.TrimPrefix(line, "-"))
			field := fm[listKey]
			field.Kind = KindList
			if item != "" {
				field.Items = append(field.Items, item)
			}
			fm[listKey] = field
			continue
		}

		key, value, found := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, errors.Errorf("line %d: expected \"key: value\"", n+1)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			listKey = key
			continue
		}
		listKey = ""
		fm[key] = Field{Kind: KindScalar, Value: value}
	}
	return fm, nil
}

func hasLineComment(node *yaml.Node) bool {
	if node.LineComment != "" {
		return true
	}
	for _, child := range node.Content {
		if hasLineComment(child) {
			return true
		}
	}
	return false
}

func decodeFrontMatter(node *yaml.Node) (FrontMatter, error) {
	fm := make(FrontMatter)

	root := node
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return fm, nil
		}
		root = root.Content[0]
	}
	switch root.Kind {
	case 0:
		return fm, nil
	case yaml.MappingNode:
	case yaml.ScalarNode:
		if isNull(root) {
			return fm, nil
		}
		return nil, errors.New("front matter is not a mapping")
	default:
		return nil, errors.New("front matter is not a mapping")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, errors.Errorf("line %d: non-scalar key", key.Line)
		}
		field, ok, err := decodeField(value)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", key.Value)
		}
		if ok {
			fm[key.Value] = field
		}
	}
	return fm, nil
}

func decodeField(value *yaml.Node) (Field, bool, error) {
	switch value.Kind {
	case yaml.ScalarNode:
		if isNull(value) {
			return Field{}, false, nil
		}
		return Field{Kind: KindScalar, Value: value.Value}, true, nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode {
				return Field{}, false, errors.Errorf("line %d: list items must be scalars", item.Line)
			}
			if isNull(item) {
				continue
			}
			items = append(items, item.Value)
		}
		return Field{Kind: KindList, Items: items}, true, nil
	case yaml.AliasNode:
		return Field{}, false, errors.Errorf("line %d: aliases are not supported", value.Line)
	default:
		return Field{}, false, errors.Errorf("line %d: nested values are not supported", value.Line)
	}
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func trimLeadingBlankLines(s string) string {
	for {
		line, rest, found := strings.Cut(s, "\n")
		if strings.TrimSpace(line) != "" {
			return s
		}
		if !found {
			return ""
		}
		s = rest
	}
}

func hashContent(content []byte) string {
	h := sha256.New()
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))[:16] // short hash
}
