package resolve

import (
	"strings"

	"bookpipe/internal/artifact"
)

// Selectors holds the catalog-specific markup the strategies look for.
// Selectors containing %s are formatted with the lower-case format name
// ("pdf", "epub"); %S with the upper-case one.
type Selectors struct {
	MenuTrigger        string
	MenuAction         string
	ConvertTrigger     string
	ConvertStatus      string
	CompletionKeywords []string
	ConvertedLink      string
	GenericLink        string
	DirectLinks        []string
}

func DefaultSelectors() Selectors {
	return Selectors{
		MenuTrigger:        `button[aria-label="更多选项"], button[title="更多"], .more-options, [class*="dots"], [class*="more"]`,
		MenuAction:         `a:has-text("%S"), button:has-text("%S")`,
		ConvertTrigger:     `a[data-convert_to="%s"]`,
		ConvertStatus:      `.message:has-text("转换为")`,
		CompletionKeywords: []string{"完成"},
		ConvertedLink:      `a[href*="/dl/"][href*="convertedTo=%s"]`,
		GenericLink:        `a[href*="/dl/"]`,
		DirectLinks: []string{
			`a[href*="/dl/"]`,
			`a:has-text("下载")`,
			`a:has-text("Download")`,
			`button:has-text("下载")`,
		},
	}
}

// preferredFormats is the order formats are tried in wherever a strategy
// has a choice.
var preferredFormats = []artifact.Format{artifact.FormatPDF, artifact.FormatEPUB}

func forFormat(selector string, f artifact.Format) string {
	s := strings.ReplaceAll(selector, "%S", strings.ToUpper(string(f)))
	return strings.ReplaceAll(s, "%s", string(f))
}
