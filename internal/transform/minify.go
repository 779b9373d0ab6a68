package transform

import (
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

// Minify minifies JS, CSS, HTML and SVG. HTML whitespace is collapsed and
// embedded <style> and <script> bodies are minified in place.
type Minify struct {
	m *minify.M
}

// NewMinify returns a Minifier for the media types in this package.
func NewMinify() *Minify {
	m := minify.New()
	m.AddFunc(MediaCSS, css.Minify)
	m.AddFuncRegexp(regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`), js.Minify)
	m.Add(MediaHTML, &html.Minifier{
		KeepDefaultAttrVals: true,
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepQuotes:          true,
	})
	m.Add(MediaSVG, &svg.Minifier{})
	return &Minify{m: m}
}

func (t *Minify) Minify(mediaType string, content []byte) ([]byte, error) {
	return t.m.Bytes(mediaType, content)
}
