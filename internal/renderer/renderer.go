// Package renderer renders page templates.
//
// Pages are Go text/template documents extended with the sprig function
// library. Layouts and partials found under the source root are parsed
// alongside each page and can be referenced by their slash-separated path,
// for example {{template "layouts/basic.html" .}}. Nothing is cached between
// renders, so edits to a layout are picked up by the next render.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/conneroisu/pages/internal/scanner"
	"github.com/conneroisu/pages/internal/transform"
)

// DefaultPartials are the globs, relative to the source root, whose files
// are available to every page.
var DefaultPartials = []string{"layouts/**", "partials/**"}

// PageRenderer implements transform.TemplateRenderer.
type PageRenderer struct {
	root     string
	partials []string
}

// NewPageRenderer returns a renderer resolving partials under root.
func NewPageRenderer(root string, partials ...string) *PageRenderer {
	if len(partials) == 0 {
		partials = DefaultPartials
	}
	return &PageRenderer{root: root, partials: partials}
}

var _ transform.TemplateRenderer = (*PageRenderer)(nil)

// noValue is what text/template prints for a missing key or a nil value.
var noValue = []byte("<no value>")

// Render executes the page in with data as the dot context. Keys missing
// from data render as empty text.
func (r *PageRenderer) Render(_ context.Context, in transform.Input, data map[string]any) ([]byte, error) {
	name := filepath.ToSlash(in.Rel)
	tpl := template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=default")

	// partials first so that blocks defined by the page win
	for _, pattern := range r.partials {
		files, err := scanner.Select(r.root, pattern)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			rel := filepath.ToSlash(f.Rel)
			if rel == name {
				continue
			}
			body, err := os.ReadFile(f.Path)
			if err != nil {
				return nil, err
			}
			if _, err := tpl.New(rel).Parse(string(body)); err != nil {
				return nil, fmt.Errorf("parsing partial: %w", err)
			}
		}
	}

	if _, err := tpl.Parse(string(in.Content)); err != nil {
		return nil, err
	}

	if data == nil {
		data = map[string]any{}
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return bytes.ReplaceAll(buf.Bytes(), noValue, nil), nil
}
