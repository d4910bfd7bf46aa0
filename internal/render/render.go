// Package render turns document bodies into the HTML handed to the store.
package render

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer converts Markdown bodies and passes everything else through.
type Renderer struct {
	md goldmark.Markdown
}

// New builds a renderer with GFM enabled. Raw HTML inside Markdown is kept,
// since WordPress content routinely embeds it.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				gmhtml.WithUnsafe(),
			),
		),
	}
}

// IsMarkdown reports whether filename carries a Markdown extension.
func IsMarkdown(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown", ".mdown":
		return true
	default:
		return false
	}
}

// Body renders body according to the extension of filename.
func (r *Renderer) Body(filename, body string) (string, error) {
	if !IsMarkdown(filename) {
		return body, nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", errors.Wrapf(err, "render %s", filename)
	}
	return buf.String(), nil
}
