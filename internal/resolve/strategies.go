package resolve

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"bookpipe/internal/artifact"
)

// strategy locates a download candidate for one page layout. A nil
// candidate with a nil error means the layout is not present.
type strategy struct {
	variant Variant
	locate  func(ctx context.Context, page Page) (*Candidate, error)
}

// locateModernMenu opens the overflow menu and picks the first format
// action it reveals, PDF before EPUB.
func (r *Resolver) locateModernMenu(ctx context.Context, page Page) (*Candidate, error) {
	menu, err := r.first(page, r.sel.MenuTrigger)
	if err != nil {
		return nil, nil
	}
	if err := menu.Click(); err != nil {
		r.logger.Debug("menu trigger click failed", zap.Error(err))
		return nil, nil
	}
	if err := r.sleep(ctx, r.timing.MenuSettle); err != nil {
		return nil, err
	}
	for _, f := range preferredFormats {
		if el, err := r.first(page, forFormat(r.sel.MenuAction, f)); err == nil {
			return &Candidate{Variant: ModernMenu, Format: f, Element: el}, nil
		}
	}
	return nil, nil
}

// locateLegacyConvert starts a server-side conversion for the first format
// offered, waits for its completion notice and returns the resulting link.
// Only the first offered format is attempted.
func (r *Resolver) locateLegacyConvert(ctx context.Context, page Page) (*Candidate, error) {
	for _, f := range preferredFormats {
		trigger, err := r.first(page, forFormat(r.sel.ConvertTrigger, f))
		if err != nil {
			continue
		}
		r.logger.Info("starting conversion", zap.String("format", f.String()))
		if err := trigger.Click(); err != nil {
			r.logger.Debug("convert trigger click failed", zap.Error(err))
			return nil, nil
		}
		done, err := r.waitConversion(ctx, page, f)
		if err != nil {
			return nil, err
		}
		if !done {
			r.logger.Warn("conversion not confirmed, looking for a link anyway",
				zap.String("format", f.String()),
				zap.Duration("waited", r.timing.ConvertTimeout),
			)
		}
		if link, err := r.first(page, forFormat(r.sel.ConvertedLink, f)); err == nil {
			return &Candidate{Variant: LegacyConvert, Format: f, Element: link}, nil
		}
		if link, err := r.first(page, r.sel.GenericLink); err == nil {
			return &Candidate{Variant: LegacyConvert, Format: f, Element: link}, nil
		}
		return nil, nil
	}
	return nil, nil
}

// waitConversion polls the status area until a message names the format
// and a completion keyword, or ConvertTimeout elapses.
func (r *Resolver) waitConversion(ctx context.Context, page Page, f artifact.Format) (bool, error) {
	attempts := int(r.timing.ConvertTimeout / r.timing.ConvertPoll)
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if err := r.sleep(ctx, r.timing.ConvertPoll); err != nil {
			return false, err
		}
		els, err := page.Query(r.sel.ConvertStatus)
		if err != nil {
			continue
		}
		for _, el := range els {
			text, err := el.Text()
			if err != nil {
				continue
			}
			if r.conversionDone(text, f) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *Resolver) conversionDone(message string, f artifact.Format) bool {
	if !strings.Contains(strings.ToLower(message), string(f)) {
		return false
	}
	for _, kw := range r.sel.CompletionKeywords {
		if kw != "" && strings.Contains(message, kw) {
			return true
		}
	}
	return false
}

// locateDirectLink scans the page for a plain download link. The format is
// inferred from the link target and label and may stay unknown.
func (r *Resolver) locateDirectLink(_ context.Context, page Page) (*Candidate, error) {
	for _, selector := range r.sel.DirectLinks {
		els, err := page.Query(selector)
		if err != nil {
			r.logger.Debug("selector query failed", zap.String("selector", selector), zap.Error(err))
			continue
		}
		if len(els) == 0 {
			continue
		}
		el := pickDirect(els)
		href, _ := el.Attr("href")
		text, _ := el.Text()
		return &Candidate{Variant: DirectLink, Format: artifact.FormatFromHint(href, text), Element: el}, nil
	}
	return nil, nil
}

// pickDirect prefers an element whose target is a /dl/ link.
func pickDirect(els []Element) Element {
	for _, el := range els {
		if href, err := el.Attr("href"); err == nil && strings.Contains(href, "/dl/") {
			return el
		}
	}
	return els[0]
}
