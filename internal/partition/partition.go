package partition

import (
	"regexp"
	"strings"
	"unicode"
)

// Chunk is one contiguous slice of the partitioned text. Index starts at 1.
type Chunk struct {
	Index     int    `json:"index"`
	Text      string `json:"-"`
	WordCount int    `json:"word_count"`
	Oversized bool   `json:"oversized,omitempty"`
}

var (
	// sectionStart matches lines that open a level 1-3 heading.
	sectionStart = regexp.MustCompile(`(?m)^#{1,3}\s`)
	// blankLine matches a paragraph separator with LF or CRLF endings.
	blankLine = regexp.MustCompile(`\r?\n\r?\n`)
)

// CountWords counts each Han ideograph as one word and each maximal run of
// Latin letters as one word. Digits, punctuation and other scripts are not
// counted.
func CountWords(text string) int {
	count := 0
	inLatin := false
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			count++
			inLatin = false
		case unicode.IsLetter(r) && unicode.Is(unicode.Latin, r):
			if !inLatin {
				count++
				inLatin = true
			}
		default:
			inLatin = false
		}
	}
	return count
}

// Partition splits text into chunks of at most maxWords words. Cuts happen
// before level 1-3 headings first; a section that alone exceeds the ceiling
// is cut at blank lines instead. A paragraph that alone exceeds the ceiling
// is emitted as its own chunk and flagged Oversized.
//
// Concatenating the chunk texts in order reproduces text exactly.
func Partition(text string, maxWords int) []Chunk {
	total := CountWords(text)
	if maxWords <= 0 || total <= maxWords {
		return []Chunk{{Index: 1, Text: text, WordCount: total, Oversized: maxWords > 0 && total > maxWords}}
	}

	p := &packer{max: maxWords}
	for _, section := range SplitSections(text) {
		words := CountWords(section)
		if words <= maxWords {
			p.add(section, words)
			continue
		}
		p.flush()
		for _, para := range SplitParagraphs(section) {
			p.add(para, CountWords(para))
		}
	}
	return p.finish()
}

// SplitSections cuts text before every line that starts a level 1-3
// heading. The newline ending the previous line stays with the previous
// piece.
func SplitSections(text string) []string {
	return splitAt(text, sectionStart.FindAllStringIndex(text, -1))
}

// SplitParagraphs cuts text after every blank-line separator, keeping the
// separator on the piece it terminates.
func SplitParagraphs(text string) []string {
	var out []string
	rest := text
	for {
		loc := blankLine.FindStringIndex(rest)
		if loc == nil {
			break
		}
		out = append(out, rest[:loc[1]])
		rest = rest[loc[1]:]
	}
	if rest != "" || len(out) == 0 {
		out = append(out, rest)
	}
	return out
}

func splitAt(text string, locs [][]int) []string {
	out := make([]string, 0, len(locs)+1)
	prev := 0
	for _, loc := range locs {
		if loc[0] == 0 {
			continue
		}
		out = append(out, text[prev:loc[0]])
		prev = loc[0]
	}
	return append(out, text[prev:])
}

type packer struct {
	max    int
	cur    strings.Builder
	words  int
	chunks []Chunk
}

func (p *packer) add(piece string, words int) {
	if words > 0 && p.words > 0 && p.words+words > p.max {
		p.flush()
	}
	p.cur.WriteString(piece)
	p.words += words
}

// flush closes the current chunk. A chunk with no counted words is held
// back and carried into the next one.
func (p *packer) flush() {
	if p.words == 0 {
		return
	}
	p.emit()
}

func (p *packer) emit() {
	p.chunks = append(p.chunks, Chunk{
		Index:     len(p.chunks) + 1,
		Text:      p.cur.String(),
		WordCount: p.words,
		Oversized: p.words > p.max,
	})
	p.cur.Reset()
	p.words = 0
}

func (p *packer) finish() []Chunk {
	if p.cur.Len() > 0 {
		if p.words == 0 && len(p.chunks) > 0 {
			p.chunks[len(p.chunks)-1].Text += p.cur.String()
			p.cur.Reset()
		} else {
			p.emit()
		}
	}
	return p.chunks
}
