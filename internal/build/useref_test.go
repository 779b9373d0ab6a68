package build

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pages/internal/testutils"
)

func TestResolverConcatenatesInOrder(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFile(t, root, "temp/a.css", "a{}")
	testutils.WriteFile(t, root, "temp/b.css", "b{}")
	r := Resolver{SearchPaths: []string{filepath.Join(root, "temp"), root}, Root: root}

	page := `<head>
<!-- build:css styles/all.css -->
<link rel="stylesheet" href="a.css">
<link rel="stylesheet" href="/b.css?v=2">
<!-- endbuild -->
</head>`
	out, assets, err := r.Resolve("index.html", []byte(page))
	require.NoError(t, err)

	assert.Equal(t, "<head>\n<link rel=\"stylesheet\" href=\"styles/all.css\">\n</head>", string(out))
	require.Len(t, assets, 1)
	assert.Equal(t, filepath.Join("styles", "all.css"), assets[0].Path)
	assert.Equal(t, "a{}\nb{}", string(assets[0].Content))
}

func TestResolverSearchOrder(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFile(t, root, "temp/main.js", "staged")
	testutils.WriteFile(t, root, "main.js", "root")
	testutils.WriteFile(t, root, "vendor/main.js", "alternate")
	r := Resolver{SearchPaths: []string{filepath.Join(root, "temp"), root}, Root: root}

	_, assets, err := r.Resolve("index.html", []byte(`<!-- build:js app.js --><script src="main.js"></script><!-- endbuild -->`))
	require.NoError(t, err)
	assert.Equal(t, "staged", string(assets[0].Content))

	_, assets, err = r.Resolve("index.html", []byte(`<!-- build:js(vendor) app.js --><script src="main.js"></script><!-- endbuild -->`))
	require.NoError(t, err)
	assert.Equal(t, "alternate", string(assets[0].Content))
}

func TestResolverNestedPage(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFile(t, root, "temp/blog/local.js", "local")
	r := Resolver{SearchPaths: []string{filepath.Join(root, "temp")}, Root: root}

	out, assets, err := r.Resolve(filepath.Join("blog", "post.html"),
		[]byte(`<!-- build:js post.js --><script src="local.js"></script><!-- endbuild -->`))
	require.NoError(t, err)
	assert.Equal(t, `<script src="post.js"></script>`, string(out))
	assert.Equal(t, filepath.Join("blog", "post.js"), assets[0].Path)
	assert.Equal(t, "local", string(assets[0].Content))
}

func TestResolverRemoveAndUnknownBlocks(t *testing.T) {
	r := Resolver{Root: t.TempDir()}
	page := `<p>keep</p><!-- build:remove --><script src="livereload.js"></script><!-- endbuild -->` +
		`<!-- build:custom out.txt --><x-ref></x-ref><!-- endbuild -->`

	out, assets, err := r.Resolve("index.html", []byte(page))
	require.NoError(t, err)
	assert.Empty(t, assets)
	assert.Equal(t, `<p>keep</p><!-- build:custom out.txt --><x-ref></x-ref><!-- endbuild -->`, string(out))
}

func TestResolverWithoutBlocks(t *testing.T) {
	page := []byte("<p>plain</p>")
	out, assets, err := Resolver{}.Resolve("index.html", page)
	require.NoError(t, err)
	assert.Equal(t, page, out)
	assert.Nil(t, assets)
}

func TestResolverMissingReference(t *testing.T) {
	root := t.TempDir()
	r := Resolver{SearchPaths: []string{root}, Root: root}

	_, _, err := r.Resolve("index.html", []byte(`<!-- build:js app.js --><script src="missing.js"></script><!-- endbuild -->`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"missing.js"`)
}

func TestResolverRequiresOutputPath(t *testing.T) {
	_, _, err := Resolver{}.Resolve("index.html", []byte(`<!-- build:js --><script src="a.js"></script><!-- endbuild -->`))
	require.Error(t, err)
}

func TestReferences(t *testing.T) {
	refs := references([]byte(`
<script src="a.js"></script>
<script>inline()</script>
<link rel="stylesheet" href="b.css" />
<img src="c.png">`))
	assert.Equal(t, []string{"a.js", "b.css"}, refs)
}
