package resolve

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Open navigates page to url and waits for the page to settle.
func (r *Resolver) Open(ctx context.Context, page Page, url string) error {
	r.logger.Info("open book page", zap.String("url", url))
	if err := page.Goto(url, r.timing.Navigation); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return r.sleep(ctx, r.timing.LoadSettle)
}

// DetectVariants reports which page variants the loaded page exposes, in strategy
// order. Nothing is clicked, so a menu that holds no format actions still
// counts as ModernMenu here.
func (r *Resolver) DetectVariants(page Page) []Variant {
	var out []Variant
	if _, err := r.first(page, r.sel.MenuTrigger); err == nil {
		out = append(out, ModernMenu)
	}
	for _, f := range preferredFormats {
		if _, err := r.first(page, forFormat(r.sel.ConvertTrigger, f)); err == nil {
			out = append(out, LegacyConvert)
			break
		}
	}
	for _, selector := range r.sel.DirectLinks {
		if _, err := r.first(page, selector); err == nil {
			out = append(out, DirectLink)
			break
		}
	}
	return out
}
