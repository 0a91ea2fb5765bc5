// Package catalog reads book details from a catalog page snapshot.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bookpipe/internal/markdown"
	"bookpipe/internal/resolve"
)

// Selectors locate book details. Title and Description are tried in order
// and the first match wins.
type Selectors struct {
	Title         []string
	Authors       string
	Description   []string
	Properties    string
	PropertyLabel string
	PropertyValue string
	Noise         string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Title:         []string{`h1[itemprop="name"]`, `h1.book-title`, `h1`},
		Authors:       `[itemprop="author"] a, .authors a, [itemprop="author"]`,
		Description:   []string{`#bookDescriptionBox`, `[itemprop="description"]`, `.book-description`},
		Properties:    `.bookProperty`,
		PropertyLabel: `.property_label`,
		PropertyValue: `.property_value`,
		Noise:         `script, style, noscript, template`,
	}
}

type Property struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Book is what a catalog page says about a book.
type Book struct {
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Authors     []string          `json:"authors,omitempty"`
	Properties  []Property        `json:"properties,omitempty"`
	Description string            `json:"description,omitempty"`
	Variants    []resolve.Variant `json:"variants"`
}

// Parse extracts book details from the page HTML. The description is
// converted to Markdown with links made absolute against pageURL.
func Parse(pageURL, html string, sel Selectors) (Book, error) {
	if strings.TrimSpace(html) == "" {
		return Book{}, errors.New("empty html")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Book{}, err
	}
	if sel.Noise != "" {
		doc.Find(sel.Noise).Remove()
	}

	book := Book{URL: pageURL, Title: firstText(doc, sel.Title)}
	if book.Title == "" {
		book.Title = collapse(doc.Find("title").First().Text())
	}
	book.Authors = authors(doc, sel.Authors)
	book.Properties = properties(doc, sel)

	if desc := firstMatch(doc, sel.Description); desc != nil {
		inner, err := desc.Html()
		if err != nil {
			return Book{}, err
		}
		md, err := markdown.NewConverter(pageURL).Fragment(inner)
		if err != nil {
			return Book{}, fmt.Errorf("convert description: %w", err)
		}
		book.Description = md
	}
	return book, nil
}

func firstMatch(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, s := range selectors {
		if found := doc.Find(s).First(); found.Length() > 0 {
			return found
		}
	}
	return nil
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, s := range selectors {
		if text := collapse(doc.Find(s).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// authors returns distinct author names in page order.
func authors(doc *goquery.Document, selector string) []string {
	if selector == "" {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		name := collapse(s.Text())
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	})
	return out
}

func properties(doc *goquery.Document, sel Selectors) []Property {
	if sel.Properties == "" {
		return nil
	}
	var out []Property
	doc.Find(sel.Properties).Each(func(_ int, s *goquery.Selection) {
		label := markdown.PropertyLabel(s.Find(sel.PropertyLabel).First().Text())
		value := collapse(s.Find(sel.PropertyValue).First().Text())
		if label == "" || value == "" {
			return
		}
		out = append(out, Property{Label: label, Value: value})
	})
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
