// Package task composes units of build work.
//
// A Task is a named, argument-free unit of work. Workflows are trees built
// from two combinators: Series runs its members one after another and stops
// at the first failure; Parallel starts all members together and completes
// when they have all completed, failing as soon as any member fails. Members
// of a failed Parallel group are not cancelled; they run to their own
// completion in the background.
//
// Trees are built once and never mutated, so Describe can render the exact
// ordering a workflow will follow.
package task

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Task is a unit of work.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Func adapts a function into a Task.
type Func struct {
	name string
	fn   func(ctx context.Context) error
}

// New returns a leaf task.
func New(name string, fn func(ctx context.Context) error) *Func {
	return &Func{name: name, fn: fn}
}

func (f *Func) Name() string { return f.name }

func (f *Func) Run(ctx context.Context) error { return f.fn(ctx) }

// Group is a composite task.
type Group struct {
	name     string
	kind     string
	children []Task
}

// Series runs tasks strictly in order.
func Series(tasks ...Task) *Group {
	return &Group{kind: "series", children: tasks}
}

// Parallel runs tasks concurrently.
func Parallel(tasks ...Task) *Group {
	return &Group{kind: "parallel", children: tasks}
}

// Named gives a composite task a name. The tree shape is unchanged.
func Named(name string, g *Group) *Group {
	return &Group{name: name, kind: g.kind, children: g.children}
}

func (g *Group) Name() string {
	if g.name != "" {
		return g.name
	}
	return g.shape()
}

// Children returns the members of the group.
func (g *Group) Children() []Task { return g.children }

// Sequential reports whether members run one after another.
func (g *Group) Sequential() bool { return g.kind == "series" }

func (g *Group) Run(ctx context.Context) error {
	if g.Sequential() {
		return g.runSeries(ctx)
	}
	return g.runParallel(ctx)
}

func (g *Group) runSeries(ctx context.Context) error {
	for _, t := range g.children {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.Run(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (g *Group) runParallel(ctx context.Context) error {
	first := make(chan error, 1)
	var eg errgroup.Group
	for _, t := range g.children {
		t := t
		eg.Go(func() error {
			err := t.Run(ctx)
			if err != nil {
				select {
				case first <- err:
				default:
				}
			}
			return err
		})
	}

	done := make(chan error, 1)
	go func() { done <- eg.Wait() }()

	select {
	case err := <-first:
		return err
	case err := <-done:
		return err
	}
}

func (g *Group) shape() string {
	names := make([]string, len(g.children))
	for i, c := range g.children {
		names[i] = Describe(c)
	}
	return g.kind + "(" + strings.Join(names, ", ") + ")"
}

// Describe renders the tree of t. Leaf and named tasks appear by name;
// anonymous groups expand into series(...) and parallel(...).
func Describe(t Task) string {
	if g, ok := t.(*Group); ok && g.name == "" {
		return g.shape()
	}
	return t.Name()
}

// Expand renders the full tree of t, expanding named groups as well.
func Expand(t Task) string {
	g, ok := t.(*Group)
	if !ok {
		return t.Name()
	}
	names := make([]string, len(g.children))
	for i, c := range g.children {
		names[i] = Expand(c)
	}
	return g.kind + "(" + strings.Join(names, ", ") + ")"
}
