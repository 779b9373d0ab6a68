package errors

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformError(t *testing.T) {
	cause := errors.New("unexpected token")
	err := NewTransformError("script", "assets/scripts/main.js", cause)

	assert.Equal(t, "script: assets/scripts/main.js: unexpected token", err.Error())
	assert.ErrorIs(t, err, cause)

	var te *TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "script", te.Stage)

	assert.Nil(t, NewTransformError("script", "x.js", nil))
	assert.Equal(t, "clean: boom", (&TransformError{Stage: "clean", Err: errors.New("boom")}).Error())
}

func TestTaskError(t *testing.T) {
	cause := NewTransformError("style", "main.scss", fs.ErrPermission)
	err := NewTaskError("style", cause)

	assert.Contains(t, err.Error(), "task 'style' failed")
	assert.ErrorIs(t, err, fs.ErrPermission)

	name, ok := FailedTask(err)
	assert.True(t, ok)
	assert.Equal(t, "style", name)

	// wrapping again keeps the innermost task name
	outer := NewTaskError("build", err)
	name, _ = FailedTask(outer)
	assert.Equal(t, "style", name)

	_, ok = FailedTask(errors.New("plain"))
	assert.False(t, ok)
	assert.Nil(t, NewTaskError("x", nil))
}

func TestErrorCollector(t *testing.T) {
	ec := NewErrorCollector()
	assert.False(t, ec.HasErrors())

	ec.Record("style", errors.New("bad scss"))
	ec.Record("script", errors.New("bad js"))
	assert.True(t, ec.HasErrors())
	assert.Len(t, ec.Entries(), 2)

	ec.Record("style", nil)
	entries := ec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "script", entries[0].Task)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		task     string
		file     string
		line     int
		column   int
		location string
	}{
		{
			name: "esbuild",
			err: NewTaskError("script", NewTransformError("script", "assets/scripts/main.js",
				errors.New("✘ [ERROR] Expected \";\" but found \"y\"\n\n    <stdin>:1:6:\n      1 │ let x y\n        ╵       ^"))),
			task: "script", file: "assets/scripts/main.js", line: 1, column: 6,
			location: "assets/scripts/main.js:1:6",
		},
		{
			name: "dart sass",
			err: NewTransformError("style", "assets/styles/main.scss",
				errors.New("expected \"}\".\n  ╷\n1 │ a { b\n  │      ^\n  ╵\n  - 1:6  root stylesheet")),
			file: "assets/styles/main.scss", line: 1, column: 6,
			location: "assets/styles/main.scss:1:6",
		},
		{
			name:     "template",
			err:      errors.New(`template: index.html:4: function "nope" not defined`),
			file:     "index.html",
			line:     4,
			location: "index.html:4",
		},
		{
			name:     "no position",
			err:      NewTaskError("clean", errors.New("permission denied")),
			task:     "clean",
			location: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := ParseError(tt.err)
			require.NotNil(t, pe)
			assert.Equal(t, tt.task, pe.Task)
			assert.Equal(t, tt.file, pe.File)
			assert.Equal(t, tt.line, pe.Line)
			assert.Equal(t, tt.column, pe.Column)
			assert.Equal(t, tt.location, pe.Location())
		})
	}

	assert.Nil(t, ParseError(nil))
}

func TestFormatError(t *testing.T) {
	err := NewTaskError("style", NewTransformError("style", "main.scss",
		errors.New("expected \"}\".\n  - 2:1  root stylesheet")))

	out := ParseError(err).FormatError()
	assert.True(t, strings.HasPrefix(out, "'style' failed in main.scss:2:1\n\n"), out)
	assert.Contains(t, out, "root stylesheet")

	assert.Equal(t, "boom", ParseError(errors.New("boom")).FormatError())
}
