// Package scanner selects source files by glob.
//
// Patterns are evaluated relative to a base directory with
// github.com/moby/patternmatcher: `*` stays within one path segment, `**`
// crosses segments, and a pattern naming a directory also selects everything
// below it. Hidden files and directories (leading dot) are never selected.
// A base directory that does not exist yields an empty selection.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/patternmatcher"
)

// File is a selected source file.
type File struct {
	// Path is the file path as found on disk (base joined with Rel).
	Path string
	// Rel is the path relative to the base directory, used to place the
	// output under a destination root.
	Rel string
}

// Matcher tests base-relative paths against one glob.
type Matcher struct {
	pattern string
	pm      *patternmatcher.PatternMatcher
}

// NewMatcher compiles pattern. An empty pattern matches nothing.
func NewMatcher(pattern string) (*Matcher, error) {
	m := &Matcher{pattern: pattern}
	if strings.TrimSpace(pattern) == "" {
		return m, nil
	}
	pm, err := patternmatcher.New([]string{pattern})
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	m.pm = pm
	return m, nil
}

// Pattern returns the source glob.
func (m *Matcher) Pattern() string { return m.pattern }

// Match reports whether rel (relative to the base) is selected.
func (m *Matcher) Match(rel string) bool {
	if m.pm == nil || rel == "" || rel == "." {
		return false
	}
	rel = filepath.ToSlash(filepath.Clean(rel))
	if strings.HasPrefix(rel, "../") || rel == ".." || hidden(rel) {
		return false
	}
	ok, err := m.pm.MatchesOrParentMatches(rel)
	return err == nil && ok
}

// Select walks base and returns the files matching pattern in lexical order.
func Select(base, pattern string) ([]File, error) {
	m, err := NewMatcher(pattern)
	if err != nil {
		return nil, err
	}
	return m.Select(base)
}

// Select walks base and returns the files m matches in lexical order.
func (m *Matcher) Select(base string) ([]File, error) {
	if m.pm == nil {
		return nil, nil
	}
	if _, err := os.Stat(base); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var files []File
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == base {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		if m.Match(rel) {
			files = append(files, File{Path: path, Rel: rel})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", base, err)
	}
	return files, nil
}

func hidden(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
