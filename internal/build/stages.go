package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/scanner"
	"github.com/conneroisu/pages/internal/task"
	"github.com/conneroisu/pages/internal/transform"
)

// Stage names, also used as task names.
const (
	StageClean  = "clean"
	StageStyle  = "style"
	StageScript = "script"
	StagePage   = "page"
	StageImage  = "image"
	StageFont   = "font"
	StageExtra  = "extra"
	StageUseref = "useref"
)

// publicPattern selects every file under the public directory.
const publicPattern = "*"

type stage struct {
	name    string
	base    string
	pattern string
	dest    string
	// skip excludes selected files that produce no output of their own.
	skip   func(rel string) bool
	rename func(rel string) string
	apply  func(ctx context.Context, in transform.Input) ([]byte, error)
}

// Style compiles stylesheets into the staging directory. Files whose name
// starts with an underscore are partials and only reachable through imports.
func (p *Pipeline) Style() task.Task {
	return p.leaf(StageStyle, func(ctx context.Context) error {
		return p.run(ctx, stage{
			name:    StageStyle,
			base:    p.dirs.Src,
			pattern: p.cfg.Build.Paths.Pattern(config.Styles),
			dest:    p.dirs.Temp,
			skip: func(rel string) bool {
				return strings.HasPrefix(filepath.Base(rel), "_")
			},
			rename: func(rel string) string { return withExt(rel, ".css") },
			apply:  p.styles.CompileStyle,
		})
	})
}

// Script transpiles scripts into the staging directory.
func (p *Pipeline) Script() task.Task {
	return p.leaf(StageScript, func(ctx context.Context) error {
		return p.run(ctx, stage{
			name:    StageScript,
			base:    p.dirs.Src,
			pattern: p.cfg.Build.Paths.Pattern(config.Scripts),
			dest:    p.dirs.Temp,
			rename: func(rel string) string {
				switch strings.ToLower(filepath.Ext(rel)) {
				case ".ts", ".tsx", ".jsx", ".mjs":
					return withExt(rel, ".js")
				}
				return rel
			},
			apply: p.scripts.Transpile,
		})
	})
}

// Page renders page templates into the staging directory with the
// configured data as their context.
func (p *Pipeline) Page() task.Task {
	return p.leaf(StagePage, func(ctx context.Context) error {
		return p.run(ctx, stage{
			name:    StagePage,
			base:    p.dirs.Src,
			pattern: p.cfg.Build.Paths.Pattern(config.Pages),
			dest:    p.dirs.Temp,
			apply: func(ctx context.Context, in transform.Input) ([]byte, error) {
				return p.pages.Render(ctx, in, p.cfg.Data)
			},
		})
	})
}

// Image optimises images into the distribution directory.
func (p *Pipeline) Image() task.Task {
	return p.leaf(StageImage, func(ctx context.Context) error {
		return p.run(ctx, stage{
			name:    StageImage,
			base:    p.dirs.Src,
			pattern: p.cfg.Build.Paths.Pattern(config.Images),
			dest:    p.dirs.Dist,
			apply:   p.images.Optimize,
		})
	})
}

// Font passes fonts through the image optimiser into the distribution
// directory. Font formats are copied unchanged; SVG fonts are minified.
func (p *Pipeline) Font() task.Task {
	return p.leaf(StageFont, func(ctx context.Context) error {
		return p.run(ctx, stage{
			name:    StageFont,
			base:    p.dirs.Src,
			pattern: p.cfg.Build.Paths.Pattern(config.Fonts),
			dest:    p.dirs.Dist,
			apply:   p.images.Optimize,
		})
	})
}

// Extra copies the public directory verbatim into the distribution
// directory.
func (p *Pipeline) Extra() task.Task {
	return p.leaf(StageExtra, func(ctx context.Context) error {
		return p.run(ctx, stage{
			name:    StageExtra,
			base:    p.dirs.Public,
			pattern: publicPattern,
			dest:    p.dirs.Dist,
			apply: func(_ context.Context, in transform.Input) ([]byte, error) {
				return in.Content, nil
			},
		})
	})
}

// run executes one stage. Files are transformed concurrently; the first
// failure fails the stage and no further files are started.
func (p *Pipeline) run(ctx context.Context, s stage) error {
	if s.dest == "" {
		return fmt.Errorf("%s: no output directory configured", s.name)
	}
	files, err := scanner.Select(s.base, s.pattern)
	if err != nil {
		return err
	}

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, f := range files {
		if s.skip != nil && s.skip(f.Rel) {
			continue
		}
		f := f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(f.Path)
			if err != nil {
				return err
			}
			out, err := s.apply(gctx, transform.Input{Path: f.Path, Rel: f.Rel, Content: content})
			if err != nil {
				return errors.NewTransformError(s.name, filepath.ToSlash(f.Rel), err)
			}
			rel := f.Rel
			if s.rename != nil {
				rel = s.rename(rel)
			}
			if err := writeFile(filepath.Join(s.dest, rel), out); err != nil {
				return err
			}
			written.Add(1)
			return nil
		})
	}
	err = g.Wait()

	n := int(written.Load())
	p.recorder.IncFilesWritten(s.name, n)
	p.stats.AddFiles(n)
	if err != nil {
		return err
	}
	p.log.Debug(ctx, "stage complete", "stage", s.name, "files", n)
	return nil
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func withExt(rel, ext string) string {
	return strings.TrimSuffix(rel, filepath.Ext(rel)) + ext
}
