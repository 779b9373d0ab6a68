// Package transform defines the external transformations the build stages
// call into, and the implementations used by the pages CLI.
//
// Every stage depends on one of these interfaces rather than on a concrete
// compiler, so stages can be exercised with fakes. The production
// implementations are:
//
//   - DartSass: SCSS to CSS via the embedded Dart Sass protocol (godartsass)
//   - Esbuild: JavaScript down-levelled to an ECMAScript target (esbuild)
//   - Minify: JS, CSS, HTML and SVG minification (tdewolff/minify)
//   - ImageOptimizer: PNG, JPEG and GIF re-encoding, SVG minification
//
// Page templates are rendered by the renderer package.
package transform

import (
	"context"
	"path/filepath"
	"strings"
)

// Input is one source file handed to a transformation.
type Input struct {
	// Path is where the file lives on disk.
	Path string
	// Rel is the path relative to the stage base directory.
	Rel string
	// Content is the file body.
	Content []byte
}

// StyleCompiler compiles a style-sheet language to CSS.
type StyleCompiler interface {
	CompileStyle(ctx context.Context, in Input) ([]byte, error)
}

// Transpiler rewrites a script to a target syntax version.
type Transpiler interface {
	Transpile(ctx context.Context, in Input) ([]byte, error)
}

// TemplateRenderer renders a page template with a data context.
type TemplateRenderer interface {
	Render(ctx context.Context, in Input, data map[string]any) ([]byte, error)
}

// Minifier minifies content of the given media type.
type Minifier interface {
	Minify(mediaType string, content []byte) ([]byte, error)
}

// ImageOptimizer shrinks image files. Formats it does not understand are
// returned unchanged.
type ImageOptimizer interface {
	Optimize(ctx context.Context, in Input) ([]byte, error)
}

const (
	MediaCSS  = "text/css"
	MediaHTML = "text/html"
	MediaJS   = "application/javascript"
	MediaSVG  = "image/svg+xml"
)

// MediaType maps a file name to the media type used for minification, or ""
// when the file is not minified.
func MediaType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".css":
		return MediaCSS
	case ".html", ".htm":
		return MediaHTML
	case ".js", ".mjs":
		return MediaJS
	case ".svg":
		return MediaSVG
	default:
		return ""
	}
}
