package testutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateTempProject(t *testing.T) {
	root := CreateTempProject(t, map[string]string{
		"src/index.html":        "<p>hi</p>",
		"public/docs/notes.txt": "notes",
	})

	assert.Equal(t, "<p>hi</p>", ReadFile(t, root, "src/index.html"))
	assert.True(t, Exists(root, "public/docs"))
	assert.False(t, Exists(root, "dist"))
}
