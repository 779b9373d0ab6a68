package build

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/scanner"
	"github.com/conneroisu/pages/internal/task"
	"github.com/conneroisu/pages/internal/transform"
)

// buildBlock matches
//
//	<!-- build:<type>[(<alternate search paths>)] <output path> -->
//	  ...references...
//	<!-- endbuild -->
var buildBlock = regexp.MustCompile(
	`(?s)<!--\s*build:(\w+)(?:\(([^)]*)\))?\s*(\S*?)\s*-->(.*?)<!--\s*endbuild\s*-->`)

// Block is one build block found in a page.
type Block struct {
	Type string
	// Alternate search paths, tried before the defaults.
	Alt  []string
	Out  string
	Refs []string
}

// Asset is a bundle produced from a block, relative to the page directory
// root.
type Asset struct {
	Path    string
	Content []byte
}

// Resolver concatenates the references of build blocks into bundles.
type Resolver struct {
	// SearchPaths are tried in order for every reference.
	SearchPaths []string
	// Root resolves relative alternate search paths.
	Root string
}

// Resolve rewrites every build block of page into a single reference to its
// bundle and returns the rewritten page with the bundles. rel is the page
// path relative to the page root and anchors relative bundle paths.
func (r Resolver) Resolve(rel string, page []byte) ([]byte, []Asset, error) {
	matches := buildBlock.FindAllSubmatchIndex(page, -1)
	if len(matches) == 0 {
		return page, nil, nil
	}

	pageDir := filepath.Dir(rel)
	var (
		out    bytes.Buffer
		assets []Asset
		last   int
	)
	for _, m := range matches {
		out.Write(page[last:m[0]])
		last = m[1]

		block := Block{
			Type: string(page[m[2]:m[3]]),
			Out:  string(page[m[6]:m[7]]),
			Refs: references(page[m[8]:m[9]]),
		}
		if m[4] >= 0 {
			for _, alt := range strings.Split(string(page[m[4]:m[5]]), ",") {
				if alt = strings.TrimSpace(alt); alt != "" {
					block.Alt = append(block.Alt, alt)
				}
			}
		}

		switch block.Type {
		case "remove":
			continue
		case "css", "js":
		default:
			// unknown block types are left as written
			out.Write(page[m[0]:m[1]])
			continue
		}

		if block.Out == "" {
			return nil, nil, fmt.Errorf("%s block without output path", block.Type)
		}
		content, err := r.concat(pageDir, block)
		if err != nil {
			return nil, nil, err
		}
		assets = append(assets, Asset{
			Path:    filepath.Join(pageDir, filepath.FromSlash(strings.TrimPrefix(block.Out, "/"))),
			Content: content,
		})
		out.WriteString(replacement(block))
	}
	out.Write(page[last:])
	return out.Bytes(), assets, nil
}

func (r Resolver) concat(pageDir string, block Block) ([]byte, error) {
	var buf bytes.Buffer
	for i, ref := range block.Refs {
		path, err := r.find(pageDir, block.Alt, ref)
		if err != nil {
			return nil, err
		}
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(body)
	}
	return buf.Bytes(), nil
}

// find locates ref in the alternate search paths and then in the defaults.
// Relative references are tried next to the page first.
func (r Resolver) find(pageDir string, alt []string, ref string) (string, error) {
	clean := ref
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	absolute := strings.HasPrefix(clean, "/")
	clean = filepath.FromSlash(strings.TrimLeft(clean, "/"))

	dirs := make([]string, 0, len(alt)+len(r.SearchPaths))
	for _, a := range alt {
		if !filepath.IsAbs(a) {
			a = filepath.Join(r.Root, a)
		}
		dirs = append(dirs, a)
	}
	dirs = append(dirs, r.SearchPaths...)

	for _, dir := range dirs {
		candidates := []string{filepath.Join(dir, clean)}
		if !absolute && pageDir != "." {
			candidates = append([]string{filepath.Join(dir, pageDir, clean)}, candidates...)
		}
		for _, c := range candidates {
			if info, err := os.Stat(c); err == nil && !info.IsDir() {
				return c, nil
			}
		}
	}
	return "", fmt.Errorf("reference %q not found in %s", ref, strings.Join(dirs, ", "))
}

// references lists the script src and link href attributes of a block body
// in document order.
func references(body []byte) []string {
	var refs []string
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return refs
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			attr := ""
			switch tok.Data {
			case "script":
				attr = "src"
			case "link":
				attr = "href"
			default:
				continue
			}
			for _, a := range tok.Attr {
				if a.Key == attr && a.Val != "" {
					refs = append(refs, a.Val)
				}
			}
		}
	}
}

func replacement(b Block) string {
	if b.Type == "css" {
		return fmt.Sprintf(`<link rel="stylesheet" href="%s">`, b.Out)
	}
	return fmt.Sprintf(`<script src="%s"></script>`, b.Out)
}

// Useref resolves the build blocks of the staged pages. Each page and each
// bundle is minified according to its extension and written to the
// distribution directory.
func (p *Pipeline) Useref() task.Task {
	return p.leaf(StageUseref, func(ctx context.Context) error {
		if p.dirs.Dist == "" {
			return fmt.Errorf("%s: no output directory configured", StageUseref)
		}
		pages, err := scanner.Select(p.dirs.Temp, p.cfg.Build.Paths.Pattern(config.Pages))
		if err != nil {
			return err
		}

		r := Resolver{
			SearchPaths: []string{p.dirs.Temp, p.dirs.Root},
			Root:        p.dirs.Root,
		}
		written := make(map[string]bool)
		count := 0
		for _, page := range pages {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(page.Path)
			if err != nil {
				return err
			}
			rewritten, assets, err := r.Resolve(page.Rel, content)
			if err != nil {
				return errors.NewTransformError(StageUseref, filepath.ToSlash(page.Rel), err)
			}

			outputs := append([]Asset{{Path: page.Rel, Content: rewritten}}, assets...)
			for _, a := range outputs {
				if written[a.Path] {
					continue
				}
				body, err := p.minify(a.Path, a.Content)
				if err != nil {
					return errors.NewTransformError(StageUseref, filepath.ToSlash(a.Path), err)
				}
				if err := writeFile(filepath.Join(p.dirs.Dist, a.Path), body); err != nil {
					return err
				}
				written[a.Path] = true
				count++
			}
		}
		p.recorder.IncFilesWritten(StageUseref, count)
		p.stats.AddFiles(count)
		return nil
	})
}

// minify applies exactly one of the JS, CSS or HTML minifiers based on the
// extension of name. Other files pass through.
func (p *Pipeline) minify(name string, content []byte) ([]byte, error) {
	switch mt := transform.MediaType(name); mt {
	case transform.MediaJS, transform.MediaCSS, transform.MediaHTML:
		return p.minifier.Minify(mt, content)
	default:
		return content, nil
	}
}
