package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(issues []ValidationError) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.Field
	}
	return out
}

func TestValidateDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "src"), 0o755))

	result := Validate(Default(), dir)
	assert.True(t, result.Valid)
	assert.False(t, result.HasErrors())
	assert.False(t, result.HasWarnings())
	assert.Empty(t, result.String())
}

func TestValidateFindings(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 70000
	cfg.Server.Host = "local;host"
	cfg.Server.Routes = map[string]string{"vendor": "", "/ok": "ok"}
	cfg.Build.Dist = "."
	cfg.Build.Public = ""
	cfg.Build.Paths.Fonts = ""

	result := Validate(cfg, t.TempDir())
	assert.False(t, result.Valid)
	assert.ElementsMatch(t, []string{
		"server.port",
		"server.host",
		"server.routes.vendor",
		"server.routes.vendor",
		"build.public",
		"build.dist",
	}, fields(result.Errors))
	assert.ElementsMatch(t, []string{"build.src", "build.paths.fonts"}, fields(result.Warnings))
	assert.Contains(t, result.String(), "route prefix must start with '/'")
}

func TestValidateSharedOutput(t *testing.T) {
	cfg := Default()
	cfg.Build.Temp = cfg.Build.Dist
	cfg.Server.Port = 80

	result := Validate(cfg, t.TempDir())
	assert.True(t, result.Valid)
	assert.Contains(t, fields(result.Warnings), "build.temp")
	assert.Contains(t, fields(result.Warnings), "server.port")
}

func TestValidateHostname(t *testing.T) {
	for _, host := range []string{"localhost", "0.0.0.0", "::1", "dev.example.com"} {
		assert.NoError(t, validateHostname(host), host)
	}
	for _, host := range []string{"bad host", "-lead.example", "a$b"} {
		assert.Error(t, validateHostname(host), host)
	}
}
