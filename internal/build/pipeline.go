// Package build implements the asset pipeline of a pages project.
//
// A Pipeline turns the resolved configuration into leaf tasks, one per
// transform stage plus the cleaner and the reference resolver. Stage tasks
// select their sources with a glob under the source directory, run each file
// through an external transformation and write the result under the staging
// or distribution directory, keeping the path relative to the source
// directory. Workflows composes the leaves into the clean, build and develop
// workflows.
package build

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"time"

	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/logging"
	"github.com/conneroisu/pages/internal/metrics"
	"github.com/conneroisu/pages/internal/renderer"
	"github.com/conneroisu/pages/internal/task"
	"github.com/conneroisu/pages/internal/transform"
)

// Dirs holds the absolute project directories.
type Dirs struct {
	Root   string
	Src    string
	Dist   string
	Temp   string
	Public string
}

// ResolveDirs resolves the directories of b against root. Empty entries stay
// empty.
func ResolveDirs(root string, b config.BuildConfig) Dirs {
	abs := func(p string) string {
		if p == "" {
			return ""
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(root, p)
	}
	return Dirs{
		Root:   root,
		Src:    abs(b.Src),
		Dist:   abs(b.Dist),
		Temp:   abs(b.Temp),
		Public: abs(b.Public),
	}
}

// Options supplies the transformations and ambient services of a Pipeline.
// Nil fields get the production implementation.
type Options struct {
	// Dir is the project root. Defaults to the working directory.
	Dir string

	Styles   transform.StyleCompiler
	Scripts  transform.Transpiler
	Pages    transform.TemplateRenderer
	Minifier transform.Minifier
	Images   transform.ImageOptimizer

	Logger   logging.Logger
	Recorder metrics.Recorder

	// Concurrency bounds the files transformed at once within a stage.
	Concurrency int
}

// Pipeline builds the leaf tasks of a project.
type Pipeline struct {
	cfg  config.Config
	dirs Dirs

	styles   transform.StyleCompiler
	scripts  transform.Transpiler
	pages    transform.TemplateRenderer
	minifier transform.Minifier
	images   transform.ImageOptimizer

	log         logging.Logger
	recorder    metrics.Recorder
	stats       *BuildMetrics
	concurrency int
	closers     []io.Closer
}

// NewPipeline creates a pipeline for cfg.
func NewPipeline(cfg config.Config, opts Options) *Pipeline {
	root := opts.Dir
	if root == "" {
		root = "."
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	p := &Pipeline{
		cfg:         cfg,
		dirs:        ResolveDirs(root, cfg.Build),
		styles:      opts.Styles,
		scripts:     opts.Scripts,
		pages:       opts.Pages,
		minifier:    opts.Minifier,
		images:      opts.Images,
		log:         opts.Logger,
		recorder:    opts.Recorder,
		stats:       NewBuildMetrics(),
		concurrency: opts.Concurrency,
	}

	if p.minifier == nil {
		p.minifier = transform.NewMinify()
	}
	if p.styles == nil {
		sass := transform.NewDartSass("", p.dirs.Src)
		p.closers = append(p.closers, sass)
		p.styles = sass
	}
	if p.scripts == nil {
		p.scripts = transform.NewEsbuild()
	}
	if p.pages == nil {
		p.pages = renderer.NewPageRenderer(p.dirs.Src)
	}
	if p.images == nil {
		p.images = transform.NewImageOptimizer(p.minifier)
	}
	if p.log == nil {
		p.log = logging.NewNop()
	}
	p.log = p.log.WithComponent("build")
	if p.recorder == nil {
		p.recorder = metrics.NoopRecorder{}
	}
	if p.concurrency <= 0 {
		p.concurrency = runtime.NumCPU()
	}
	return p
}

// Config returns the configuration the pipeline was built from.
func (p *Pipeline) Config() config.Config { return p.cfg }

// Dirs returns the resolved project directories.
func (p *Pipeline) Dirs() Dirs { return p.dirs }

// Metrics returns a snapshot of the task summary.
func (p *Pipeline) Metrics() BuildMetrics { return p.stats.GetSnapshot() }

// Close releases the transformations started by the pipeline.
func (p *Pipeline) Close() error {
	var first error
	for _, c := range p.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// leaf wraps fn as a named task with lifecycle logging, metrics and a
// TaskError carrying the task name.
func (p *Pipeline) leaf(name string, fn func(ctx context.Context) error) task.Task {
	return task.New(name, func(ctx context.Context) error {
		log := p.log.With("task", name)
		start := time.Now()
		log.Info(ctx, fmt.Sprintf("Starting '%s'...", name))

		err := fn(ctx)
		elapsed := time.Since(start)
		p.recorder.ObserveTaskDuration(name, elapsed)
		p.recorder.IncTaskResult(name, metrics.ResultOf(err))
		p.stats.RecordTask(elapsed, err)

		if err != nil {
			log.Error(ctx, err, fmt.Sprintf("'%s' errored after %s", name, elapsed))
			return errors.NewTaskError(name, err)
		}
		log.Info(ctx, fmt.Sprintf("Finished '%s' after %s", name, elapsed), "duration", elapsed)
		return nil
	})
}
