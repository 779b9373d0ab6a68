package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/conneroisu/pages/internal/task"
)

// Clean removes the distribution and staging directories. Missing
// directories are not an error, so Clean is idempotent.
func (p *Pipeline) Clean() task.Task {
	return p.leaf(StageClean, func(ctx context.Context) error {
		for _, dir := range []string{p.dirs.Dist, p.dirs.Temp} {
			if dir == "" {
				continue
			}
			if err := p.guard(dir); err != nil {
				return err
			}
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("removing %s: %w", dir, err)
			}
			p.log.Debug(ctx, "removed", "dir", dir)
		}
		return nil
	})
}

// guard refuses to delete the project root, the sources or any of their
// ancestors.
func (p *Pipeline) guard(dir string) error {
	for _, keep := range []string{p.dirs.Root, p.dirs.Src, p.dirs.Public} {
		if keep == "" {
			continue
		}
		if within(keep, dir) {
			return fmt.Errorf("refusing to remove %s: it contains %s", dir, keep)
		}
	}
	return nil
}

// within reports whether path equals dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
