package transform

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bep/godartsass/v2"
)

// DefaultSassBinary is the Dart Sass executable started in embedded mode.
const DefaultSassBinary = "sass"

// DartSass compiles SCSS and indented Sass through a long-lived Dart Sass
// process. The process is started on first use and shared by all compiles.
type DartSass struct {
	binary       string
	includePaths []string

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
}

// NewDartSass returns a compiler that resolves imports from the directory of
// each stylesheet and then from includePaths.
func NewDartSass(binary string, includePaths ...string) *DartSass {
	if binary == "" {
		binary = DefaultSassBinary
	}
	return &DartSass{binary: binary, includePaths: includePaths}
}

func (d *DartSass) start() (*godartsass.Transpiler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.transpiler != nil {
		return d.transpiler, nil
	}
	t, err := godartsass.Start(godartsass.Options{DartSassEmbeddedFilename: d.binary})
	if err != nil {
		return nil, fmt.Errorf("starting dart sass (%s): %w", d.binary, err)
	}
	d.transpiler = t
	return t, nil
}

// CompileStyle compiles in to CSS with expanded formatting.
func (d *DartSass) CompileStyle(_ context.Context, in Input) ([]byte, error) {
	t, err := d.start()
	if err != nil {
		return nil, err
	}

	syntax := godartsass.SourceSyntaxSCSS
	switch strings.ToLower(filepath.Ext(in.Path)) {
	case ".sass":
		syntax = godartsass.SourceSyntaxSASS
	case ".css":
		syntax = godartsass.SourceSyntaxCSS
	}

	res, err := t.Execute(godartsass.Args{
		Source:       string(in.Content),
		OutputStyle:  godartsass.OutputStyleExpanded,
		SourceSyntax: syntax,
		IncludePaths: append([]string{filepath.Dir(in.Path)}, d.includePaths...),
	})
	if err != nil {
		return nil, err
	}
	return []byte(res.CSS), nil
}

// Close stops the Dart Sass process, if it was started.
func (d *DartSass) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.transpiler == nil {
		return nil
	}
	err := d.transpiler.Close()
	d.transpiler = nil
	return err
}
