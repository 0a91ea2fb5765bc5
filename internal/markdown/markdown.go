// Package markdown converts catalog page fragments, such as a book's
// description, to Markdown.
package markdown

import (
	"net/url"
	"regexp"
	"strings"

	htmltomd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

type Converter struct {
	md *htmltomd.Converter
}

// NewConverter returns a converter that makes relative links absolute
// against pageURL's host.
func NewConverter(pageURL string) *Converter {
	conv := htmltomd.NewConverter(hostOf(pageURL), true, nil)
	conv.Use(plugin.GitHubFlavored())
	conv.Use(CatalogPlugin())
	return &Converter{md: conv}
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Fragment converts an HTML fragment. The result has no leading or trailing
// blank lines and at most one blank line between blocks.
func (c *Converter) Fragment(html string) (string, error) {
	out, err := c.md.ConvertString(html)
	if err != nil {
		return "", err
	}
	out = strings.ReplaceAll(out, "\r\n", "\n")
	return strings.TrimSpace(blankRuns.ReplaceAllString(out, "\n\n")), nil
}

func hostOf(pageURL string) string {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return ""
	}
	return u.Host
}
