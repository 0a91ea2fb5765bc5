package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"bookpipe/internal/catalog"
	"bookpipe/internal/resolve"
)

// Inspect opens the catalog page at url and reports the book's details and
// the download variants the page offers. Nothing is downloaded.
func (a *App) Inspect(ctx context.Context, url string) (catalog.Book, error) {
	url, err := normalizeURL(url)
	if err != nil {
		return catalog.Book{}, err
	}
	ctx, cancel := a.withJobTimeout(ctx)
	defer cancel()

	sess, err := a.openSession(resolve.SessionOptions{
		ProfileDir: a.cfg.ProfileDir,
		Headless:   a.cfg.Headless,
	})
	if err != nil {
		return catalog.Book{}, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			a.logger.Warn("browser session close failed", zap.Error(cerr))
		}
	}()

	page := sess.Page()
	if err := a.resolver.Open(ctx, page, url); err != nil {
		return catalog.Book{}, err
	}
	html, err := page.Content()
	if err != nil {
		return catalog.Book{}, fmt.Errorf("read page content: %w", err)
	}
	book, err := catalog.Parse(url, html, catalog.DefaultSelectors())
	if err != nil {
		return catalog.Book{}, err
	}
	book.Variants = a.resolver.DetectVariants(page)
	if book.Variants == nil {
		book.Variants = []resolve.Variant{}
	}
	return book, nil
}

// PrintBook writes inspected book details to w.
func PrintBook(w io.Writer, b catalog.Book) {
	fmt.Fprintf(w, "Title: %s\n", b.Title)
	if len(b.Authors) > 0 {
		fmt.Fprintf(w, "Authors: %s\n", strings.Join(b.Authors, ", "))
	}
	for _, p := range b.Properties {
		fmt.Fprintf(w, "%s: %s\n", p.Label, p.Value)
	}
	if len(b.Variants) == 0 {
		fmt.Fprintln(w, "Download variants: (none found)")
	} else {
		names := make([]string, 0, len(b.Variants))
		for _, v := range b.Variants {
			names = append(names, string(v))
		}
		fmt.Fprintf(w, "Download variants: %s\n", strings.Join(names, ", "))
	}
	if b.Description != "" {
		fmt.Fprintf(w, "\n%s\n", b.Description)
	}
}
