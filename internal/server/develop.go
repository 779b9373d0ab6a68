package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conneroisu/pages/internal/build"
	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/task"
	"github.com/conneroisu/pages/internal/watcher"
)

// everything matches every file below a binding base.
const everything = "*"

// Bindings returns the watch table of the development server:
//
//   - styles, scripts and pages under the source directory re-run their
//     stage, which writes into the staging directory
//   - images and fonts under the source directory and anything under the
//     public directory reload the browser
//   - anything written to the staging directory reloads the browser, or only
//     its stylesheets when every changed file is CSS
func Bindings(p *build.Pipeline, hub *Hub) []watcher.Binding {
	cfg := p.Config().Build.Paths
	dirs := p.Dirs()
	reload := func([]watcher.ChangeEvent) { hub.Reload() }

	return []watcher.Binding{
		watcher.TaskBinding(dirs.Src, cfg.Pattern(config.Styles), p.Style()),
		watcher.TaskBinding(dirs.Src, cfg.Pattern(config.Scripts), p.Script()),
		watcher.TaskBinding(dirs.Src, cfg.Pattern(config.Pages), p.Page()),
		watcher.ReloadBinding("images", dirs.Src, cfg.Pattern(config.Images), reload),
		watcher.ReloadBinding("fonts", dirs.Src, cfg.Pattern(config.Fonts), reload),
		watcher.ReloadBinding("public", dirs.Public, everything, reload),
		watcher.ReloadBinding("staging", dirs.Temp, everything, func(changed []watcher.ChangeEvent) {
			for _, ev := range changed {
				if !strings.EqualFold(filepath.Ext(ev.Path), ".css") {
					hub.Reload()
					return
				}
			}
			hub.ReloadCSS(filepath.Base(changed[0].Path))
		}),
	}
}

// ServeOptions configures the serve task.
type ServeOptions struct {
	Options
	// Debounce is the quiet period before a batch of changes is dispatched.
	Debounce time.Duration
}

// Serve returns the task that runs the development server with its watch
// bindings until ctx is cancelled. Failed rebuilds are logged and shown in
// the browser; the server keeps running.
func Serve(p *build.Pipeline, opts ServeOptions) task.Task {
	return task.New("serve", func(ctx context.Context) error {
		srv := New(p.Config().Server, p.Dirs(), opts.Options)
		return srv.Run(ctx, Bindings(p, srv.Hub()), opts.Debounce)
	})
}

// Run starts watching and serving, and blocks until ctx is done.
func (s *Server) Run(ctx context.Context, bindings []watcher.Binding, debounce time.Duration) error {
	dispatcher, err := watcher.NewDispatcher(bindings, s.log)
	if err != nil {
		return err
	}
	dispatcher.OnResult(s.recordResult)

	fw, err := watcher.NewFileWatcher(debounce, s.log)
	if err != nil {
		return err
	}
	defer fw.Stop()
	fw.AddFilter(watcher.NoEditorFilter)
	// an empty first compile leaves no staging directory to watch
	if s.dirs.Temp != "" {
		if err := os.MkdirAll(s.dirs.Temp, 0o755); err != nil {
			return fmt.Errorf("creating staging directory: %w", err)
		}
	}
	for _, base := range dispatcher.Bases() {
		if err := fw.AddRecursive(base); err != nil {
			s.log.Warn(ctx, err, "cannot watch directory", "dir", base)
		}
	}
	fw.AddHandler(dispatcher.Handler(ctx))
	if err := fw.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = s.Shutdown(shutdownCtx)
	dispatcher.Wait()
	return err
}

// recordResult keeps the browser overlay in step with the failing tasks.
func (s *Server) recordResult(binding string, err error) {
	failing := s.errors.HasErrors()
	s.errors.Record(binding, err)
	if err != nil {
		s.hub.NotifyError(errors.ParseError(err).FormatError())
		return
	}
	if failing && !s.errors.HasErrors() {
		s.hub.ClearError()
	}
}
