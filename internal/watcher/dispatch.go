package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/conneroisu/pages/internal/logging"
	"github.com/conneroisu/pages/internal/scanner"
	"github.com/conneroisu/pages/internal/task"
)

// Action reacts to the changes of one batch that matched a binding.
type Action func(ctx context.Context, changed []ChangeEvent) error

// Binding maps a glob under a base directory to an action.
type Binding struct {
	Name    string
	Base    string
	Pattern string
	Action  Action
}

// TaskBinding re-runs t when a matching file changes.
func TaskBinding(base, pattern string, t task.Task) Binding {
	return Binding{
		Name:    t.Name(),
		Base:    base,
		Pattern: pattern,
		Action: func(ctx context.Context, _ []ChangeEvent) error {
			return t.Run(ctx)
		},
	}
}

// ReloadBinding calls reload when a matching file changes.
func ReloadBinding(name, base, pattern string, reload func(changed []ChangeEvent)) Binding {
	return Binding{
		Name:    name,
		Base:    base,
		Pattern: pattern,
		Action: func(_ context.Context, changed []ChangeEvent) error {
			reload(changed)
			return nil
		},
	}
}

type compiled struct {
	Binding
	matcher *scanner.Matcher
}

// Dispatcher routes change batches to bindings. A binding runs at most once
// per batch; runs are not queued behind earlier runs of the same binding.
// Failures are logged and reported, never returned, so the watch loop keeps
// going.
type Dispatcher struct {
	bindings []compiled
	log      logging.Logger
	onResult func(binding string, err error)
	wg       sync.WaitGroup
}

// NewDispatcher compiles the patterns of bindings.
func NewDispatcher(bindings []Binding, log logging.Logger) (*Dispatcher, error) {
	if log == nil {
		log = logging.NewNop()
	}
	d := &Dispatcher{log: log.WithComponent("watch")}
	for _, b := range bindings {
		m, err := scanner.NewMatcher(b.Pattern)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", b.Name, err)
		}
		d.bindings = append(d.bindings, compiled{Binding: b, matcher: m})
	}
	return d, nil
}

// OnResult registers fn to be told the outcome of every run.
func (d *Dispatcher) OnResult(fn func(binding string, err error)) {
	d.onResult = fn
}

// Bases returns the distinct base directories of the bindings.
func (d *Dispatcher) Bases() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range d.bindings {
		if b.Base == "" || seen[b.Base] {
			continue
		}
		seen[b.Base] = true
		out = append(out, b.Base)
	}
	return out
}

// Dispatch starts every binding matched by events and returns without
// waiting for them.
func (d *Dispatcher) Dispatch(ctx context.Context, events []ChangeEvent) {
	for _, b := range d.bindings {
		changed := b.match(events)
		if len(changed) == 0 {
			continue
		}
		d.log.Debug(ctx, "change detected", "binding", b.Name, "files", len(changed))

		d.wg.Add(1)
		go func(b compiled) {
			defer d.wg.Done()
			err := b.Action(ctx, changed)
			if err != nil {
				d.log.Error(ctx, err, "watch action failed", "binding", b.Name)
			}
			if d.onResult != nil {
				d.onResult(b.Name, err)
			}
		}(b)
	}
}

// Handler adapts the dispatcher to a FileWatcher.
func (d *Dispatcher) Handler(ctx context.Context) ChangeHandler {
	return func(events []ChangeEvent) error {
		d.Dispatch(ctx, events)
		return nil
	}
}

// Wait blocks until all started runs have returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (b compiled) match(events []ChangeEvent) []ChangeEvent {
	var out []ChangeEvent
	for _, ev := range events {
		rel, err := filepath.Rel(b.Base, ev.Path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if b.matcher.Match(rel) {
			out = append(out, ev)
		}
	}
	return out
}
