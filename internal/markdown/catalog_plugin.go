package markdown

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// CatalogPlugin handles markup found on catalog book pages: labelled
// property rows and description lists.
func CatalogPlugin() md.Plugin {
	return func(conv *md.Converter) []md.Rule {
		return []md.Rule{
			{
				Filter: []string{"div"},
				Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
					if !strings.Contains(strings.ToLower(selec.AttrOr("class", "")), "property") {
						return nil
					}
					label := PropertyLabel(selec.Find(".property_label").First().Text())
					value := strings.Join(strings.Fields(selec.Find(".property_value").First().Text()), " ")
					if label == "" || value == "" {
						return nil
					}
					res := "\n- **" + label + ":** " + value + "\n"
					return &res
				},
			},
			{
				Filter: []string{"dt"},
				Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
					res := "\n**" + strings.TrimSpace(content) + "**\n"
					return &res
				},
			},
			{
				Filter: []string{"dd"},
				Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
					res := ": " + strings.TrimSpace(content) + "\n"
					return &res
				},
			},
		}
	}
}

// PropertyLabel normalizes a property label such as " Year: ".
func PropertyLabel(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(strings.TrimRight(s, ":："))
}
