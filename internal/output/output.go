// Package output writes rendered books and their chunks to disk.
package output

import (
	"fmt"
	"os"
	"path/filepath"

	"bookpipe/internal/partition"
)

// Layout names the files produced for one book. Every file lives in Dir and
// starts with Base.
type Layout struct {
	Dir  string
	Base string
}

// NewLayout places output for the artifact at path in dir, or next to the
// artifact when dir is empty.
func NewLayout(dir, path string) Layout {
	if dir == "" {
		dir = filepath.Dir(path)
	}
	base := filepath.Base(path)
	return Layout{Dir: dir, Base: base[:len(base)-len(filepath.Ext(base))]}
}

func (l Layout) MarkdownPath() string {
	return filepath.Join(l.Dir, l.Base+".md")
}

func (l Layout) PartPath(n int) string {
	return filepath.Join(l.Dir, fmt.Sprintf("%s_part%d.md", l.Base, n))
}

func (l Layout) ManifestPath() string {
	return filepath.Join(l.Dir, l.Base+".manifest.json")
}

// WriteMarkdown writes the full rendered document to <base>.md.
func WriteMarkdown(l Layout, markdown string) (string, error) {
	path := l.MarkdownPath()
	if err := writeFile(path, markdown); err != nil {
		return "", err
	}
	return path, nil
}

// WriteChunks writes chunks and returns their paths in order. A single
// chunk is the document itself and goes to <base>.md; more than one go to
// <base>_part<N>.md. Stale part files from an earlier run with more chunks
// are removed.
func WriteChunks(l Layout, chunks []partition.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks to write for %s", l.Base)
	}
	if len(chunks) == 1 {
		path := l.MarkdownPath()
		if err := writeFile(path, chunks[0].Text); err != nil {
			return nil, err
		}
		return []string{path}, l.removeParts(1)
	}

	paths := make([]string, 0, len(chunks))
	for _, c := range chunks {
		path := l.PartPath(c.Index)
		if err := writeFile(path, c.Text); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, l.removeParts(len(chunks) + 1)
}

// removeParts deletes consecutive part files starting at from.
func (l Layout) removeParts(from int) error {
	for n := from; ; n++ {
		err := os.Remove(l.PartPath(n))
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0600)
}
