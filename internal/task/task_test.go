package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) task(name string, delay time.Duration, err error) Task {
	return New(name, func(ctx context.Context) error {
		r.add("start:" + name)
		time.Sleep(delay)
		r.add("end:" + name)
		return err
	})
}

func indexOf(events []string, e string) int {
	for i, v := range events {
		if v == e {
			return i
		}
	}
	return -1
}

func TestSeriesRunsInOrder(t *testing.T) {
	rec := &recorder{}
	s := Series(rec.task("a", 5*time.Millisecond, nil), rec.task("b", 0, nil), rec.task("c", 0, nil))

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []string{"start:a", "end:a", "start:b", "end:b", "start:c", "end:c"}, rec.snapshot())
}

func TestSeriesStopsAtFirstFailure(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")
	s := Series(rec.task("a", 0, boom), rec.task("b", 0, nil))

	err := s.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, -1, indexOf(rec.snapshot(), "start:b"))
}

func TestParallelStartsAllMembers(t *testing.T) {
	rec := &recorder{}
	p := Parallel(rec.task("a", 20*time.Millisecond, nil), rec.task("b", 20*time.Millisecond, nil))

	require.NoError(t, p.Run(context.Background()))
	events := rec.snapshot()
	// both members start before either finishes
	assert.Less(t, indexOf(events, "start:b"), indexOf(events, "end:a"))
	assert.Less(t, indexOf(events, "start:a"), indexOf(events, "end:b"))
}

func TestParallelFailsFastWithoutCancellingSiblings(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")
	p := Parallel(rec.task("fail", 0, boom), rec.task("slow", 100*time.Millisecond, nil))

	start := time.Now()
	err := p.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Less(t, time.Since(start), 90*time.Millisecond)

	// the sibling keeps running to completion
	assert.Eventually(t, func() bool {
		return indexOf(rec.snapshot(), "end:slow") >= 0
	}, time.Second, 10*time.Millisecond)
}

func TestEmptyGroups(t *testing.T) {
	assert.NoError(t, Series().Run(context.Background()))
	assert.NoError(t, Parallel().Run(context.Background()))
}

func TestSeriesHonoursCancellation(t *testing.T) {
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Series(rec.task("a", 0, nil)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.snapshot())
}

func TestDescribe(t *testing.T) {
	leaf := func(name string) Task { return New(name, func(context.Context) error { return nil }) }
	compile := Named("compile", Parallel(leaf("style"), leaf("script"), leaf("page")))
	build := Named("build", Series(leaf("clean"), Parallel(Series(compile, leaf("useref")), leaf("image"))))

	assert.Equal(t, "build", build.Name())
	assert.Equal(t, "clean", Describe(build.children[0]))
	assert.Equal(t, "series(clean, parallel(series(compile, useref), image))", Series(build.children...).Name())
	assert.Equal(t,
		"series(clean, parallel(series(parallel(style, script, page), useref), image))",
		Expand(build))
	assert.True(t, build.Sequential())
	assert.False(t, compile.Sequential())
	assert.Len(t, compile.Children(), 3)
}
