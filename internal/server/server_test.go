package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pages/internal/build"
	"github.com/conneroisu/pages/internal/config"
	pageserrors "github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/testutils"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	testutils.WriteFile(t, root, "temp/index.html", "<html><body><h1>staged</h1></body></html>")
	testutils.WriteFile(t, root, "temp/assets/styles/main.css", "body{}")
	testutils.WriteFile(t, root, "src/index.html", "<html><body>source</body></html>")
	testutils.WriteFile(t, root, "src/assets/images/logo.png", "png")
	testutils.WriteFile(t, root, "src/blog/index.html", "<p>blog</p>")
	testutils.WriteFile(t, root, "public/robots.txt", "User-agent: *")
	testutils.WriteFile(t, root, "node_modules/lib/lib.js", "var lib;")

	cfg := config.Default()
	dirs := build.ResolveDirs(root, cfg.Build)
	return New(cfg.Server, dirs, Options{}), root
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestStaticRootsFirstMatchWins(t *testing.T) {
	s, _ := testServer(t)
	h := s.Handler()

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "staged")
	assert.NotContains(t, rec.Body.String(), "source")

	rec = get(t, h, "/assets/images/logo.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())

	rec = get(t, h, "/robots.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User-agent: *", rec.Body.String())

	rec = get(t, h, "/blog/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<p>blog</p>")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/missing.css").Code)
}

func TestStaticRejectsTraversal(t *testing.T) {
	s, root := testServer(t)
	testutils.WriteFile(t, filepath.Dir(root), "secret.txt", "nope")

	rec := get(t, s.Handler(), "/../secret.txt")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutes(t *testing.T) {
	s, _ := testServer(t)

	rec := get(t, s.Handler(), "/node_modules/lib/lib.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "var lib;", rec.Body.String())
	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/node_modules/other.js").Code)
}

func TestHTMLGetsReloadScript(t *testing.T) {
	s, _ := testServer(t)

	body := get(t, s.Handler(), "/index.html").Body.String()
	assert.Contains(t, body, ReloadPath)
	assert.True(t, strings.HasSuffix(body, "</body></html>"))

	css := get(t, s.Handler(), "/assets/styles/main.css").Body.String()
	assert.Equal(t, "body{}", css)
}

func TestInjectScript(t *testing.T) {
	out := string(InjectScript([]byte("<html><BODY>x</BODY></html>")))
	assert.True(t, strings.HasPrefix(out, "<html><BODY>x"+ReloadScript))
	assert.True(t, strings.HasSuffix(out, "</BODY></html>"))

	fragment := string(InjectScript([]byte("<p>no body</p>")))
	assert.Equal(t, "<p>no body</p>"+ReloadScript, fragment)
}

func TestHealth(t *testing.T) {
	collector := pageserrors.NewErrorCollector()
	collector.Record("style", errors.New("expected '}'"))
	cfg := config.Default()
	s := New(cfg.Server, build.ResolveDirs(t.TempDir(), cfg.Build), Options{Errors: collector})

	rec := get(t, s.Handler(), HealthPath)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failing", resp.Status)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "style", resp.Errors[0].Task)
}

func TestStartShutdownAndOpen(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFile(t, root, "temp/index.html", "<body>hi</body>")
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.Open = true

	opened := make(chan string, 1)
	s := New(cfg.Server, build.ResolveDirs(root, cfg.Build), Options{
		OpenBrowser: func(url string) error {
			opened <- url
			return nil
		},
	})
	require.NoError(t, s.Listen())

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	select {
	case url := <-opened:
		assert.Equal(t, s.URL(), url)
	case <-time.After(2 * time.Second):
		t.Fatal("browser not opened")
	}

	resp, err := http.Get(s.URL() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "hi")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, <-done)
	require.NoError(t, s.Shutdown(ctx))
}
