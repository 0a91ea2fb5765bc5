package output

import (
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"bookpipe/internal/partition"
)

// Manifest describes one finished job for downstream consumers: which files
// to ingest, in order, and under what title.
type Manifest struct {
	JobID     string          `json:"job_id"`
	Source    string          `json:"source"`
	Title     string          `json:"title"`
	Format    string          `json:"format"`
	MaxWords  int             `json:"max_words"`
	CreatedAt time.Time       `json:"created_at"`
	Chunks    []ManifestChunk `json:"chunks"`
}

type ManifestChunk struct {
	Index     int       `json:"index"`
	File      string    `json:"file"`
	WordCount int       `json:"word_count"`
	Oversized bool      `json:"oversized,omitempty"`
	Outline   []Heading `json:"outline,omitempty"`
}

// Heading is one level 1-3 heading of a chunk. Path joins the enclosing
// headings seen so far in the chunk, "Part > Chapter".
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	Path  string `json:"path"`
}

// NewChunkEntries pairs chunks with the files they were written to and
// extracts each chunk's outline. Chunks without text (a PDF passed through)
// get no outline.
func NewChunkEntries(chunks []partition.Chunk, files []string) []ManifestChunk {
	out := make([]ManifestChunk, 0, len(chunks))
	for i, c := range chunks {
		entry := ManifestChunk{
			Index:     c.Index,
			WordCount: c.WordCount,
			Oversized: c.Oversized,
			Outline:   Outline(c.Text),
		}
		if i < len(files) {
			entry.File = filepath.Base(files[i])
		}
		out = append(out, entry)
	}
	return out
}

// WriteManifest writes m to <base>.manifest.json.
func WriteManifest(l Layout, m Manifest) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	path := l.ManifestPath()
	if err := writeFile(path, string(data)+"\n"); err != nil {
		return "", err
	}
	return path, nil
}

// Outline lists the level 1-3 headings of a Markdown text in order.
func Outline(markdown string) []Heading {
	if strings.TrimSpace(markdown) == "" {
		return nil
	}
	src := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var out []Heading
	hierarchy := map[int]string{}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level > 3 {
			continue
		}
		title := strings.TrimSpace(string(h.Text(src)))
		if title == "" {
			continue
		}
		hierarchy[h.Level] = title
		for k := range hierarchy {
			if k > h.Level {
				delete(hierarchy, k)
			}
		}
		var parts []string
		for i := 1; i <= 3; i++ {
			if v, ok := hierarchy[i]; ok {
				parts = append(parts, v)
			}
		}
		out = append(out, Heading{Level: h.Level, Text: title, Path: strings.Join(parts, " > ")})
	}
	return out
}

var (
	bracketed     = regexp.MustCompile(`\[.*?\]`)
	parenthesized = regexp.MustCompile(`\(.*?\)`)
	whitespace    = regexp.MustCompile(`\s+`)
	partSuffix    = regexp.MustCompile(`_part\d+$`)
)

const maxTitleRunes = 50

// DisplayTitle derives a human title from a chunk file name such as
// "Some_Book_(2019)_[Publisher]_part1.md".
func DisplayTitle(file string) string {
	base := filepath.Base(file)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	title = partSuffix.ReplaceAllString(title, "")
	title = strings.ReplaceAll(title, "_", " ")
	title = bracketed.ReplaceAllString(title, "")
	title = parenthesized.ReplaceAllString(title, "")
	title = strings.TrimSpace(whitespace.ReplaceAllString(title, " "))
	if r := []rune(title); len(r) > maxTitleRunes {
		title = string(r[:maxTitleRunes]) + "..."
	}
	return title
}
