package transform

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Esbuild transpiles scripts to an ECMAScript target.
type Esbuild struct {
	Target api.Target
}

// NewEsbuild returns a transpiler targeting ES2015, the syntax level of the
// standard preset.
func NewEsbuild() *Esbuild {
	return &Esbuild{Target: api.ES2015}
}

func (e *Esbuild) Transpile(_ context.Context, in Input) ([]byte, error) {
	res := api.Transform(string(in.Content), api.TransformOptions{
		Loader:     loaderFor(in.Path),
		Target:     e.Target,
		Sourcefile: filepath.ToSlash(in.Rel),
	})
	if len(res.Errors) > 0 {
		msgs := api.FormatMessages(res.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage})
		return nil, errors.New(strings.TrimSpace(strings.Join(msgs, "\n")))
	}
	return res.Code, nil
}

func loaderFor(path string) api.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsx":
		return api.LoaderJSX
	case ".ts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	default:
		return api.LoaderJS
	}
}
