package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pages/internal/build"
	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/testutils"
	"github.com/conneroisu/pages/internal/transform"
	"github.com/conneroisu/pages/internal/watcher"
)

type countingStyles struct{ runs atomic.Int32 }

func (c *countingStyles) CompileStyle(_ context.Context, in transform.Input) ([]byte, error) {
	c.runs.Add(1)
	return in.Content, nil
}

type countingScripts struct{ runs atomic.Int32 }

func (c *countingScripts) Transpile(_ context.Context, in transform.Input) ([]byte, error) {
	c.runs.Add(1)
	return in.Content, nil
}

func devProject(t *testing.T) (*build.Pipeline, *countingStyles, *countingScripts) {
	t.Helper()
	root := t.TempDir()
	testutils.WriteFile(t, root, "src/assets/styles/main.scss", "body{}")
	testutils.WriteFile(t, root, "src/assets/scripts/main.js", "var a;")
	testutils.WriteFile(t, root, "src/index.html", "<body></body>")

	styles, scripts := &countingStyles{}, &countingScripts{}
	p := build.NewPipeline(config.Default(), build.Options{Dir: root, Styles: styles, Scripts: scripts})
	return p, styles, scripts
}

func TestBindingsScriptChangeRerunsScriptOnly(t *testing.T) {
	p, styles, scripts := devProject(t)
	s := New(p.Config().Server, p.Dirs(), Options{})

	d, err := watcher.NewDispatcher(Bindings(p, s.Hub()), nil)
	require.NoError(t, err)

	d.Dispatch(context.Background(), []watcher.ChangeEvent{
		{Type: watcher.EventTypeModified, Path: filepath.Join(p.Dirs().Src, "assets", "scripts", "main.js")},
	})
	d.Wait()

	assert.Equal(t, int32(1), scripts.runs.Load())
	assert.Equal(t, int32(0), styles.runs.Load())
	_, err = os.Stat(filepath.Join(p.Dirs().Temp, "assets", "scripts", "main.js"))
	assert.NoError(t, err)
}

func TestBindingsStagingChanges(t *testing.T) {
	p, _, _ := devProject(t)
	s := New(p.Config().Server, p.Dirs(), Options{})
	conn := dial(t, s)

	d, err := watcher.NewDispatcher(Bindings(p, s.Hub()), nil)
	require.NoError(t, err)
	temp := p.Dirs().Temp

	d.Dispatch(context.Background(), []watcher.ChangeEvent{
		{Path: filepath.Join(temp, "assets", "styles", "main.css")},
	})
	d.Wait()
	assert.Equal(t, Message{Type: MessageCSS, File: "main.css"}, readMessage(t, conn))

	d.Dispatch(context.Background(), []watcher.ChangeEvent{
		{Path: filepath.Join(temp, "assets", "styles", "main.css")},
		{Path: filepath.Join(temp, "index.html")},
	})
	d.Wait()
	assert.Equal(t, Message{Type: MessageReload}, readMessage(t, conn))

	d.Dispatch(context.Background(), []watcher.ChangeEvent{
		{Path: filepath.Join(p.Dirs().Src, "assets", "images", "logo.png")},
	})
	d.Wait()
	assert.Equal(t, Message{Type: MessageReload}, readMessage(t, conn))
}

func TestServeTaskRunsUntilCancelled(t *testing.T) {
	p, styles, _ := devProject(t)
	cfg := p.Config()
	require.NoError(t, p.Compile().Run(context.Background()))
	before := styles.runs.Load()

	srv := New(config.ServerConfig{Host: "127.0.0.1", Port: 0, Routes: cfg.Server.Routes}, p.Dirs(), Options{})
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, Bindings(p, srv.Hub()), 20*time.Millisecond) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL() + "/")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	// give the watcher a moment to register its directories
	time.Sleep(100 * time.Millisecond)
	testutils.WriteFile(t, p.Dirs().Root, "src/assets/styles/main.scss", "body{color:red}")
	assert.Eventually(t, func() bool { return styles.runs.Load() > before }, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.True(t, strings.HasPrefix(srv.URL(), "http://127.0.0.1:"))
}

func TestServeReloadsWhenStagingStartsEmpty(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	p := build.NewPipeline(config.Default(), build.Options{Dir: root, Styles: &countingStyles{}, Scripts: &countingScripts{}})
	require.NoError(t, p.Compile().Run(context.Background()))

	srv := New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, p.Dirs(), Options{})
	require.NoError(t, srv.Listen())
	conn := dial(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, Bindings(p, srv.Hub()), 20*time.Millisecond) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool {
		_, err := os.Stat(p.Dirs().Temp)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	// give the watcher a moment to register its directories
	time.Sleep(100 * time.Millisecond)

	testutils.WriteFile(t, root, "src/index.html", "<body>new</body>")
	assert.Equal(t, Message{Type: MessageReload}, readMessage(t, conn))
	assert.True(t, testutils.Exists(root, "temp/index.html"))
}
