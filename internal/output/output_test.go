package output_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bookpipe/internal/output"
	"bookpipe/internal/partition"
)

func TestNewLayout(t *testing.T) {
	l := output.NewLayout("", "/books/My_Book.epub")
	if l.Dir != "/books" || l.Base != "My_Book" {
		t.Fatalf("unexpected layout: %+v", l)
	}
	l = output.NewLayout("/out", "/books/My_Book.epub")
	if got := l.PartPath(2); got != filepath.Join("/out", "My_Book_part2.md") {
		t.Fatalf("part path = %q", got)
	}
	if got := l.ManifestPath(); got != filepath.Join("/out", "My_Book.manifest.json") {
		t.Fatalf("manifest path = %q", got)
	}
}

func TestWriteChunks_Single(t *testing.T) {
	dir := t.TempDir()
	l := output.Layout{Dir: dir, Base: "book"}
	paths, err := output.WriteChunks(l, []partition.Chunk{{Index: 1, Text: "# A\n\nx\n", WordCount: 2}})
	if err != nil {
		t.Fatalf("WriteChunks error: %v", err)
	}
	if len(paths) != 1 || paths[0] != filepath.Join(dir, "book.md") {
		t.Fatalf("unexpected paths: %v", paths)
	}
	data, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "# A\n\nx\n" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestWriteChunks_PartsAndStaleCleanup(t *testing.T) {
	dir := t.TempDir()
	l := output.Layout{Dir: dir, Base: "book"}
	stale := l.PartPath(3)
	if err := os.WriteFile(stale, []byte("old"), 0600); err != nil {
		t.Fatalf("write stale: %v", err)
	}

	chunks := []partition.Chunk{
		{Index: 1, Text: "# One\n\n"},
		{Index: 2, Text: "# Two\n"},
	}
	paths, err := output.WriteChunks(l, chunks)
	if err != nil {
		t.Fatalf("WriteChunks error: %v", err)
	}
	want := []string{filepath.Join(dir, "book_part1.md"), filepath.Join(dir, "book_part2.md")}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	var joined strings.Builder
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
		joined.Write(data)
	}
	if joined.String() != "# One\n\n# Two\n" {
		t.Fatalf("parts do not reassemble: %q", joined.String())
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale part should be removed, stat err=%v", err)
	}
}

func TestWriteChunks_Empty(t *testing.T) {
	if _, err := output.WriteChunks(output.Layout{Dir: t.TempDir(), Base: "b"}, nil); err == nil {
		t.Fatalf("expected error for no chunks")
	}
}

func TestOutline(t *testing.T) {
	md := "# Book\n\n**Author:** X\n\n## Chapter 1\n\ntext\n\n#### Deep\n\n### Section 1.1\n\n## Chapter 2\n"
	got := output.Outline(md)
	want := []output.Heading{
		{Level: 1, Text: "Book", Path: "Book"},
		{Level: 2, Text: "Chapter 1", Path: "Book > Chapter 1"},
		{Level: 3, Text: "Section 1.1", Path: "Book > Chapter 1 > Section 1.1"},
		{Level: 2, Text: "Chapter 2", Path: "Book > Chapter 2"},
	}
	if len(got) != len(want) {
		t.Fatalf("outline = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("outline[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if output.Outline("  \n") != nil {
		t.Fatalf("blank text should have no outline")
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	l := output.Layout{Dir: dir, Base: "book"}
	chunks := []partition.Chunk{{Index: 1, Text: "# A\n", WordCount: 1}}
	m := output.Manifest{
		JobID:  "job-1",
		Source: "https://example.org/book/1",
		Title:  "book",
		Format: "epub",
		Chunks: output.NewChunkEntries(chunks, []string{filepath.Join(dir, "book.md")}),
	}
	path, err := output.WriteManifest(l, m)
	if err != nil {
		t.Fatalf("WriteManifest error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var back output.Manifest
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if back.JobID != "job-1" || len(back.Chunks) != 1 || back.Chunks[0].File != "book.md" {
		t.Fatalf("unexpected manifest: %+v", back)
	}
	if len(back.Chunks[0].Outline) != 1 || back.Chunks[0].Outline[0].Text != "A" {
		t.Fatalf("unexpected outline: %+v", back.Chunks[0].Outline)
	}
}

func TestDisplayTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/tmp/Deep_Work_(2016)_[Grand Central]_part1.md", "Deep Work"},
		{"Plain Title.md", "Plain Title"},
		{"a__b.pdf", "a b"},
		{"Atlas_part12.md", "Atlas"},
		{"Vol_part1_of_3.md", "Vol part1 of 3"},
		{"book_part1.md", "book"},
		{"Spare_part1_Manual.md", "Spare part1 Manual"},
		{strings.Repeat("x", 60) + ".md", strings.Repeat("x", 50) + "..."},
		{strings.Repeat("书", 55) + ".md", strings.Repeat("书", 50) + "..."},
	}
	for _, tc := range cases {
		if got := output.DisplayTitle(tc.in); got != tc.want {
			t.Errorf("DisplayTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
