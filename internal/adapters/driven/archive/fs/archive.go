// Package fs serves a document corpus from a directory tree. Corpus
// paths map onto files under the root, so "/Sunset" resolves to
// Sunset.html (or .htm/.md/.txt) relative to the root directory.
package fs

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/corvidae-labs/archivist/internal/core/domain"
	"github.com/corvidae-labs/archivist/internal/core/ports/driven"
)

var _ driven.ArchiveReader = (*Archive)(nil)

// extensions tried, in order, when resolving a corpus path to a file.
var extensions = []string{"", ".html", ".htm", ".md", ".txt"}

// Archive reads documents from a directory tree.
type Archive struct {
	root string
}

// New creates an archive rooted at dir.
func New(dir string) (*Archive, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening archive directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("archive path %q is not a directory", dir)
	}
	return &Archive{root: dir}, nil
}

// Fetch returns the raw content of the document at path. Paths that
// escape the archive root, or that resolve to no file, return
// domain.ErrNotFound.
func (a *Archive) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := a.resolve(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return content, nil
}

// Title returns the document title at path: the HTML <title> element
// when present, otherwise a title derived from the path itself.
func (a *Archive) Title(ctx context.Context, path string) string {
	content, err := a.Fetch(ctx, path)
	if err == nil {
		if title := htmlTitle(content); title != "" {
			return title
		}
	}
	return pathTitle(path)
}

// Walk visits every document under the archive root, in path order.
// It satisfies the index builder's corpus interface.
func (a *Archive) Walk(ctx context.Context, fn func(path, title string, content []byte) error) error {
	return filepath.WalkDir(a.root, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !indexable(file) {
			return nil
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %q: %w", file, err)
		}

		path := a.corpusPath(file)
		title := htmlTitle(content)
		if title == "" {
			title = pathTitle(path)
		}
		return fn(path, title, content)
	})
}

// resolve maps a corpus path to a file under the root, rejecting
// anything that would escape it.
func (a *Archive) resolve(path string) (string, error) {
	cleaned := filepath.Clean("/" + strings.TrimPrefix(path, "/"))
	if cleaned == "/" || strings.Contains(cleaned, "..") {
		return "", domain.ErrNotFound
	}
	base := filepath.Join(a.root, filepath.FromSlash(cleaned))
	for _, ext := range extensions {
		candidate := base + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", domain.ErrNotFound
}

// corpusPath converts an absolute file path back to its corpus path.
func (a *Archive) corpusPath(file string) string {
	rel, err := filepath.Rel(a.root, file)
	if err != nil {
		return "/" + filepath.Base(file)
	}
	rel = filepath.ToSlash(rel)
	ext := filepath.Ext(rel)
	for _, known := range extensions[1:] {
		if ext == known {
			rel = strings.TrimSuffix(rel, ext)
			break
		}
	}
	return "/" + rel
}

func indexable(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".html", ".htm", ".md", ".txt":
		return true
	}
	return false
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// htmlTitle extracts the <title> element text, if any.
func htmlTitle(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			title = strings.TrimSpace(whitespaceRun.ReplaceAllString(sb.String(), " "))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

// pathTitle derives a human-readable title from a corpus path.
func pathTitle(path string) string {
	base := strings.TrimPrefix(path, "/")
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	base = strings.ReplaceAll(base, "_", " ")
	if base == "" {
		return path
	}
	return base
}
