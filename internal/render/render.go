// Package render turns EPUB content documents into one flat Markdown text.
package render

import (
	"context"
	"errors"
	"io/fs"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/simp-lee/epub"
	"go.uber.org/zap"

	"bookpipe/internal/bookerr"
)

const (
	DefaultMinUnitChars = 100
	UnknownTitle        = "Unknown Title"
	UnknownAuthor       = "Unknown Author"
	unitSeparator       = "\n\n---\n\n"
)

var (
	excessNewlines = regexp.MustCompile(`\n{4,}`)
	spaceRuns      = regexp.MustCompile(` +`)
)

// Document is the rendered book.
type Document struct {
	Title    string
	Author   string
	Markdown string
	// Units counts content documents kept; Skipped counts those dropped
	// for being too short or unparseable.
	Units   int
	Skipped int
}

type Renderer struct {
	logger       *zap.Logger
	minUnitChars int
}

func New(logger *zap.Logger, minUnitChars int) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if minUnitChars <= 0 {
		minUnitChars = DefaultMinUnitChars
	}
	return &Renderer{logger: logger, minUnitChars: minUnitChars}
}

// RenderFile opens the EPUB at path and renders it.
func (r *Renderer) RenderFile(ctx context.Context, path string) (Document, error) {
	book, err := epub.Open(path)
	if err != nil {
		switch {
		case errors.Is(err, epub.ErrDRMProtected):
			return Document{}, bookerr.NewUnsupportedFormat(path, "epub is DRM protected", err)
		case errors.Is(err, fs.ErrNotExist):
			return Document{}, err
		default:
			return Document{}, bookerr.NewUnsupportedFormat(path, "not a readable epub archive", err)
		}
	}
	defer book.Close()

	doc, err := r.Render(ctx, book)
	if err != nil {
		var be *bookerr.Error
		if errors.As(err, &be) && be.Kind == bookerr.KindEmptyDocument {
			be.Context["path"] = path
		}
		return Document{}, err
	}
	return doc, nil
}

// Render renders an opened book, one unit per spine chapter. A unit that
// cannot be read or parsed is logged and skipped; a book with no kept unit
// fails with EmptyDocument.
func (r *Renderer) Render(ctx context.Context, book *epub.Book) (Document, error) {
	meta := book.Metadata()
	authors := make([]string, 0, len(meta.Authors))
	for _, a := range meta.Authors {
		authors = append(authors, a.Name)
	}
	doc := Document{Title: firstOr(meta.Titles, UnknownTitle), Author: firstOr(authors, UnknownAuthor)}

	var b strings.Builder
	b.WriteString("# " + doc.Title + "\n\n")
	b.WriteString("**Author:** " + doc.Author + "\n\n")
	b.WriteString("---\n\n")

	chapters := book.Chapters()
	for _, unit := range chapters {
		if err := ctx.Err(); err != nil {
			return Document{}, err
		}
		data, err := unit.RawContent()
		if err != nil {
			r.logger.Warn("skip unreadable unit", zap.String("href", unit.Href), zap.Error(err))
			doc.Skipped++
			continue
		}
		text, err := RenderUnit(string(data))
		if err != nil {
			r.logger.Warn("skip unparseable unit", zap.String("href", unit.Href), zap.Error(err))
			doc.Skipped++
			continue
		}
		if utf8.RuneCountInString(text) <= r.minUnitChars {
			r.logger.Debug("skip short unit", zap.String("href", unit.Href), zap.Int("chars", utf8.RuneCountInString(text)))
			doc.Skipped++
			continue
		}
		b.WriteString(text)
		b.WriteString(unitSeparator)
		doc.Units++
	}

	if doc.Units == 0 {
		return Document{}, bookerr.NewEmptyDocument("", len(chapters))
	}
	doc.Markdown = b.String()
	r.logger.Info("rendered epub",
		zap.String("title", doc.Title),
		zap.Int("units", doc.Units),
		zap.Int("skipped", doc.Skipped),
		zap.Int("chars", utf8.RuneCountInString(doc.Markdown)),
	)
	return doc, nil
}

// RenderUnit renders a single content document and normalizes its
// whitespace.
func RenderUnit(data string) (string, error) {
	root, err := Parse(data)
	if err != nil {
		return "", err
	}
	return Clean(Fold(root)), nil
}

// Clean caps newline runs at three, collapses space runs and trims.
func Clean(s string) string {
	s = excessNewlines.ReplaceAllString(s, "\n\n\n")
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func firstOr(items []string, def string) string {
	for _, it := range items {
		if strings.TrimSpace(it) != "" {
			return strings.TrimSpace(it)
		}
	}
	return def
}
