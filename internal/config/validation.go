package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ValidationError is one finding about a configuration, with suggestions.
type ValidationError struct {
	Field       string
	Value       any
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the findings of Validate. Resolution never consults
// it: a configuration with errors is still the effective configuration.
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder
	write := func(title string, issues []ValidationError) {
		if len(issues) == 0 {
			return
		}
		builder.WriteString(title + ":\n")
		for _, issue := range issues {
			fmt.Fprintf(&builder, "  • %s: %s\n", issue.Field, issue.Message)
			for _, s := range issue.Suggestions {
				fmt.Fprintf(&builder, "    - %s\n", s)
			}
		}
	}
	write("Errors", vr.Errors)
	write("Warnings", vr.Warnings)
	return builder.String()
}

func (vr *ValidationResult) addError(field string, value any, msg string, suggestions ...string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Value: value, Message: msg, Suggestions: suggestions})
}

func (vr *ValidationResult) addWarning(field string, value any, msg string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Value: value, Message: msg, Suggestions: suggestions})
}

// Validate inspects cfg for a project rooted at dir.
func Validate(cfg Config, dir string) *ValidationResult {
	result := &ValidationResult{}
	validateServer(cfg.Server, result)
	validateBuild(cfg.Build, dir, result)
	result.Valid = !result.HasErrors()
	return result
}

func validateServer(cfg ServerConfig, result *ValidationResult) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		result.addError("server.port", cfg.Port,
			fmt.Sprintf("port %d is not in valid range 0-65535", cfg.Port),
			"Common development ports: 3000, 8080, 8000",
			"Port 0 lets the system pick a free port")
	} else if cfg.Port > 0 && cfg.Port < 1024 {
		result.addWarning("server.port", cfg.Port,
			"port below 1024 requires elevated privileges",
			"Consider using a port above 1024 for development")
	}

	if cfg.Host != "" {
		if err := validateHostname(cfg.Host); err != nil {
			result.addError("server.host", cfg.Host, err.Error(),
				"Use 'localhost' for local development",
				"Use '0.0.0.0' to bind to all interfaces")
		}
	}

	prefixes := make([]string, 0, len(cfg.Routes))
	for prefix := range cfg.Routes {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		field := "server.routes." + prefix
		if !strings.HasPrefix(prefix, "/") {
			result.addError(field, prefix, "route prefix must start with '/'",
				fmt.Sprintf("Use '/%s'", prefix))
		}
		if strings.TrimSpace(cfg.Routes[prefix]) == "" {
			result.addError(field, cfg.Routes[prefix], "route target cannot be empty")
		}
	}
}

func validateBuild(cfg BuildConfig, dir string, result *ValidationResult) {
	dirs := []struct {
		field string
		value string
	}{
		{"build.src", cfg.Src},
		{"build.dist", cfg.Dist},
		{"build.temp", cfg.Temp},
		{"build.public", cfg.Public},
	}
	for _, d := range dirs {
		if strings.TrimSpace(d.value) == "" {
			result.addError(d.field, d.value, "directory cannot be empty")
		}
	}

	abs := func(p string) string {
		if p == "" {
			return ""
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(dir, p)
	}
	root := abs(".")
	for _, out := range []struct {
		field string
		value string
	}{{"build.dist", cfg.Dist}, {"build.temp", cfg.Temp}} {
		if out.value == "" {
			continue
		}
		target := abs(out.value)
		for _, keep := range []string{root, abs(cfg.Src), abs(cfg.Public)} {
			if keep != "" && contains(target, keep) {
				result.addError(out.field, out.value,
					fmt.Sprintf("cleaning %s would remove %s", out.value, keep),
					"Point output directories at their own folders, e.g. 'dist' and 'temp'")
				break
			}
		}
	}
	if cfg.Dist != "" && abs(cfg.Dist) == abs(cfg.Temp) {
		result.addWarning("build.temp", cfg.Temp, "staging and distribution share a directory",
			"Staged sources will be published alongside the build output")
	}

	if cfg.Src != "" {
		if _, err := os.Stat(abs(cfg.Src)); err != nil {
			result.addWarning("build.src", cfg.Src, "source directory does not exist",
				"Every stage will select no files")
		}
	}

	for _, c := range Categories {
		if strings.TrimSpace(cfg.Paths.Pattern(c)) == "" {
			result.addWarning("build.paths."+string(c), "", "empty pattern selects nothing")
		}
	}
}

var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

func validateHostname(host string) error {
	if i := strings.IndexAny(host, ";&|$`()<>\"'\\"); i >= 0 {
		return fmt.Errorf("contains dangerous character: %c", host[i])
	}
	if net.ParseIP(host) != nil || host == "localhost" {
		return nil
	}
	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}
	return nil
}

// contains reports whether path equals dir or lies below it.
func contains(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
