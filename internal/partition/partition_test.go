package partition

import (
	"fmt"
	"strings"
	"testing"
)

func TestCountWords(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"你好 hello", 3},
		{"hello world", 2},
		{"你好世界", 4},
		{"don't stop", 3},
		{"version 2.0 released", 2},
		{"hello123world", 2},
		{"café au lait", 3},
		{"# 第一章 Intro\n\n正文 text.", 7},
		{"---\n\n***", 0},
	}
	for _, tc := range cases {
		if got := CountWords(tc.in); got != tc.want {
			t.Fatalf("CountWords(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCountWordsIdempotent(t *testing.T) {
	text := "# 标题\n\nSome text 和中文 mixed."
	first := CountWords(text)
	for i := 0; i < 3; i++ {
		if got := CountWords(text); got != first {
			t.Fatalf("CountWords changed between calls: %d vs %d", first, got)
		}
	}
}

func TestPartitionIdentityUnderCeiling(t *testing.T) {
	text := "# Title\n\nshort body\n"
	chunks := Partition(text, 100)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text || chunks[0].Index != 1 || chunks[0].WordCount != 3 {
		t.Fatalf("unexpected chunk: %+v", chunks[0])
	}
}

func TestPartitionThreeLargeChapters(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 3; i++ {
		b.WriteString(fmt.Sprintf("# Chapter\n\n%s\n", strings.Repeat("lorem ", 133333)))
	}
	text := b.String()

	chunks := Partition(text, 350000)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	assertPartition(t, text, chunks, 350000)
}

func TestPartitionSplitsOversizedSectionOnParagraphs(t *testing.T) {
	para := strings.Repeat("alpha ", 4) + "\n\n"
	text := "# One\n\n" + strings.Repeat(para, 6) + "# Two\n\nbeta gamma\n"

	chunks := Partition(text, 10)
	if len(chunks) < 3 {
		t.Fatalf("expected the first section to be cut, got %d chunks", len(chunks))
	}
	assertPartition(t, text, chunks, 10)
	last := chunks[len(chunks)-1]
	if !strings.Contains(last.Text, "# Two") {
		t.Fatalf("last chunk should hold the second section: %q", last.Text)
	}
}

func TestPartitionOversizedParagraphStandsAlone(t *testing.T) {
	huge := strings.Repeat("word ", 30)
	text := "# A\n\nsmall intro\n\n" + huge + "\n\nsmall outro\n"

	chunks := Partition(text, 10)
	assertLossless(t, text, chunks)

	var oversized []Chunk
	for _, c := range chunks {
		if c.Oversized {
			oversized = append(oversized, c)
		}
	}
	if len(oversized) != 1 {
		t.Fatalf("expected exactly one oversized chunk, got %d", len(oversized))
	}
	if CountWords(oversized[0].Text) != 30 {
		t.Fatalf("oversized chunk should hold only the long paragraph: %q", oversized[0].Text)
	}
}

func TestPartitionHeadingsBeyondLevelThreeDoNotSplit(t *testing.T) {
	text := "#### deep one two three\n\n#### deep four five six\n"
	sections := SplitSections(text)
	if len(sections) != 1 {
		t.Fatalf("level 4 headings must not start sections, got %d", len(sections))
	}
}

func TestSplitSectionsLossless(t *testing.T) {
	text := "preamble\n# A\nbody\n## B\nmore\n### C\nend"
	got := SplitSections(text)
	want := []string{"preamble\n", "# A\nbody\n", "## B\nmore\n", "### C\nend"}
	if len(got) != len(want) {
		t.Fatalf("got %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("piece %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitParagraphs(t *testing.T) {
	got := SplitParagraphs("a\n\nb\n\n\n\nc")
	want := []string{"a\n\n", "b\n\n", "\n\n", "c"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got := SplitParagraphs(""); len(got) != 1 || got[0] != "" {
		t.Fatalf("empty input should yield one empty piece, got %q", got)
	}
}

func TestSplitParagraphsCRLF(t *testing.T) {
	got := SplitParagraphs("a\r\n\r\nb\r\nstill b\r\n\r\nc")
	want := []string{"a\r\n\r\n", "b\r\nstill b\r\n\r\n", "c"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPartitionSplitsCRLFParagraphs(t *testing.T) {
	para := strings.Repeat("word ", 6)
	text := "# Only\r\n\r\n" + para + "\r\n\r\n" + para + "\r\n\r\n" + para
	chunks := Partition(text, 10)
	assertPartition(t, text, chunks, 10)
	if len(chunks) < 3 {
		t.Fatalf("expected the section to be cut at CRLF blank lines, got %d chunks", len(chunks))
	}
	for _, c := range chunks {
		if c.Oversized {
			t.Fatalf("chunk %d flagged oversized: %q", c.Index, c.Text)
		}
	}
}

func TestPartitionLeadingWhitespaceIsNotItsOwnChunk(t *testing.T) {
	text := "\n\n# A\n\n" + strings.Repeat("x ", 8) + "\n\n# B\n\n" + strings.Repeat("y ", 8)
	chunks := Partition(text, 10)
	assertPartition(t, text, chunks, 10)
	for _, c := range chunks {
		if c.WordCount == 0 {
			t.Fatalf("chunk %d carries no words: %q", c.Index, c.Text)
		}
	}
}

func assertPartition(t *testing.T, text string, chunks []Chunk, max int) {
	t.Helper()
	assertLossless(t, text, chunks)
	for _, c := range chunks {
		if c.WordCount != CountWords(c.Text) {
			t.Fatalf("chunk %d word count %d, recount %d", c.Index, c.WordCount, CountWords(c.Text))
		}
		if c.WordCount > max && !c.Oversized {
			t.Fatalf("chunk %d exceeds ceiling without oversized flag", c.Index)
		}
	}
}

func assertLossless(t *testing.T, text string, chunks []Chunk) {
	t.Helper()
	var b strings.Builder
	for i, c := range chunks {
		if c.Index != i+1 {
			t.Fatalf("chunk %d has index %d", i+1, c.Index)
		}
		b.WriteString(c.Text)
	}
	if b.String() != text {
		t.Fatalf("concatenated chunks differ from input")
	}
}
