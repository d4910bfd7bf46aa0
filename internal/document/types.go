package document

import (
	"strings"
)

// FieldKind tells which arm of a Field is populated.
type FieldKind int

const (
	KindScalar FieldKind = iota + 1
	KindList
)

func (k FieldKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Field is one front-matter value: either a scalar string or an ordered list
// of strings.
type Field struct {
	Kind  FieldKind `json:"kind"`
	Value string    `json:"value,omitempty"`
	Items []string  `json:"items,omitempty"`
}

// FrontMatter maps field names to their values.
type FrontMatter map[string]Field

// Recognized front-matter fields.
const (
	FieldTitle         = "title"
	FieldStatus        = "status"
	FieldFeaturedImage = "featured_image"
	FieldTags          = "tags"
	FieldCategory      = "category"
	FieldAuthor        = "author"
	FieldMenu          = "menu"
)

// DefaultStatus is used when a document has no status.
const DefaultStatus = "publish"

// Document is a parsed content file.
type Document struct {
	Filename    string
	FrontMatter FrontMatter
	Body        string
	Hash        string // short content hash for change detection
}

// Title returns the required title field.
func (d *Document) Title() string {
	return d.Scalar(FieldTitle)
}

// Status returns the status field, defaulting to publish.
func (d *Document) Status() string {
	if status := d.Scalar(FieldStatus); status != "" {
		return status
	}
	return DefaultStatus
}

// Scalar returns the trimmed value of a scalar field, or "" when the field is
// absent or a list.
func (d *Document) Scalar(name string) string {
	field, ok := d.FrontMatter[name]
	if !ok || field.Kind != KindScalar {
		return ""
	}
	return strings.TrimSpace(field.Value)
}

// List returns a list field. Scalars are split on ";". Elements are trimmed
// and empty ones dropped, preserving order.
func (d *Document) List(name string) []string {
	field, ok := d.FrontMatter[name]
	if !ok {
		return nil
	}
	switch field.Kind {
	case KindScalar:
		return SplitList(field.Value)
	case KindList:
		return compact(field.Items)
	default:
		return nil
	}
}

// SplitList splits a ";"-joined value into trimmed, non-empty elements.
func SplitList(s string) []string {
	return compact(strings.Split(s, ";"))
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ParseIssue captures a document that would be skipped during import.
type ParseIssue struct {
	File     string `json:"file"`
	PostType string `json:"post_type,omitempty"`
	Severity string `json:"severity"` // warning | error
	Message  string `json:"message"`
}
