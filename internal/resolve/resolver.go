// Package resolve finds and triggers the download action on a catalog book
// page. Catalog pages come in mutually exclusive layouts; each layout has a
// strategy and the first strategy that locates a candidate wins.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"bookpipe/internal/artifact"
	"bookpipe/internal/bookerr"
)

type Variant string

const (
	ModernMenu    Variant = "modern_menu"
	LegacyConvert Variant = "legacy_convert"
	DirectLink    Variant = "direct_link"
)

// Timing bounds every wait the resolver performs.
type Timing struct {
	Navigation      time.Duration
	LoadSettle      time.Duration
	MenuSettle      time.Duration
	ConvertPoll     time.Duration
	ConvertTimeout  time.Duration
	DownloadWait    time.Duration
	FreshnessWindow time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		Navigation:      60 * time.Second,
		LoadSettle:      5 * time.Second,
		MenuSettle:      2 * time.Second,
		ConvertPoll:     time.Second,
		ConvertTimeout:  60 * time.Second,
		DownloadWait:    20 * time.Second,
		FreshnessWindow: 120 * time.Second,
	}
}

// Candidate is a located download trigger.
type Candidate struct {
	Variant Variant
	Format  artifact.Format
	Element Element
}

// Result is a successful resolution.
type Result struct {
	Artifact artifact.Artifact
	Variant  Variant
	// FromScan is set when the file was found by scanning the downloads
	// directory rather than through the download event.
	FromScan bool
}

type Options struct {
	DownloadsDir string
	Selectors    Selectors
	Timing       Timing
	Logger       *zap.Logger
}

type Resolver struct {
	downloadsDir string
	sel          Selectors
	timing       Timing
	logger       *zap.Logger
	strategies   []strategy

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(opts Options) *Resolver {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	r := &Resolver{
		downloadsDir: opts.DownloadsDir,
		sel:          opts.Selectors,
		timing:       opts.Timing,
		logger:       opts.Logger,
		now:          time.Now,
		sleep:        sleepCtx,
	}
	r.strategies = []strategy{
		{variant: ModernMenu, locate: r.locateModernMenu},
		{variant: LegacyConvert, locate: r.locateLegacyConvert},
		{variant: DirectLink, locate: r.locateDirectLink},
	}
	return r
}

// Resolve navigates page to url, locates the best download action and
// returns the file it produced.
func (r *Resolver) Resolve(ctx context.Context, page Page, url string) (Result, error) {
	if err := r.Open(ctx, page, url); err != nil {
		return Result{}, err
	}

	cand, tried, err := r.locate(ctx, page)
	if err != nil {
		return Result{}, err
	}
	if cand == nil {
		return Result{}, bookerr.NewNoDownloadPathFound(url, tried)
	}
	r.logger.Info("download candidate located",
		zap.String("variant", string(cand.Variant)),
		zap.String("format", cand.Format.String()),
	)
	return r.download(ctx, page, *cand)
}

// locate runs the strategies in order and stops at the first candidate.
func (r *Resolver) locate(ctx context.Context, page Page) (*Candidate, []string, error) {
	tried := make([]string, 0, len(r.strategies))
	for _, s := range r.strategies {
		if err := ctx.Err(); err != nil {
			return nil, tried, err
		}
		tried = append(tried, string(s.variant))
		cand, err := s.locate(ctx, page)
		if err != nil {
			return nil, tried, err
		}
		if cand != nil {
			return cand, tried, nil
		}
		r.logger.Debug("strategy found nothing", zap.String("variant", string(s.variant)))
	}
	return nil, tried, nil
}

func (r *Resolver) download(ctx context.Context, page Page, cand Candidate) (Result, error) {
	if err := os.MkdirAll(r.downloadsDir, 0755); err != nil {
		return Result{}, fmt.Errorf("create downloads dir: %w", err)
	}

	var clickErr error
	dl, err := page.ExpectDownload(r.timing.DownloadWait, func() error {
		clickErr = cand.Element.Click()
		return clickErr
	})
	if err == nil {
		dest := filepath.Join(r.downloadsDir, downloadName(dl.SuggestedFilename(), cand.Format))
		if err := dl.SaveAs(dest); err != nil {
			return Result{}, fmt.Errorf("save download to %s: %w", dest, err)
		}
		a, err := artifact.FromFile(dest)
		if err != nil {
			return Result{}, err
		}
		r.logger.Info("download saved", zap.String("path", dest), zap.Int64("bytes", a.SizeBytes))
		return Result{Artifact: a, Variant: cand.Variant}, nil
	}
	if clickErr != nil {
		return Result{}, bookerr.NewDownloadTimedOut(string(cand.Variant), cand.Format.String(), "click", clickErr)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}

	r.logger.Warn("no download event, scanning downloads dir",
		zap.String("dir", r.downloadsDir),
		zap.Duration("window", r.timing.FreshnessWindow),
		zap.Error(err),
	)
	path, ok := newestFresh(r.downloadsDir, scanFormats(cand.Format), r.now(), r.timing.FreshnessWindow)
	if !ok {
		return Result{}, bookerr.NewDownloadTimedOut(string(cand.Variant), cand.Format.String(), r.timing.DownloadWait.String(), err)
	}
	a, err := artifact.FromFile(path)
	if err != nil {
		return Result{}, err
	}
	r.logger.Info("download found by scan", zap.String("path", path))
	return Result{Artifact: a, Variant: cand.Variant, FromScan: true}, nil
}

// downloadName keeps only the base of the browser's suggestion and makes
// sure a usable extension is present.
func downloadName(suggested string, f artifact.Format) string {
	name := filepath.Base(strings.TrimSpace(strings.ReplaceAll(suggested, "\\", "/")))
	if name == "." || name == "/" || name == "" {
		name = "download"
	}
	if artifact.FormatFromName(name) == artifact.FormatUnknown && f != artifact.FormatUnknown {
		name += f.Ext()
	}
	return name
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var errNoElements = errors.New("no elements")

// first returns the first element matching selector. Query failures are
// treated as no match; a page mid-navigation rejects selectors.
func (r *Resolver) first(page Page, selector string) (Element, error) {
	els, err := page.Query(selector)
	if err != nil {
		r.logger.Debug("selector query failed", zap.String("selector", selector), zap.Error(err))
		return nil, errNoElements
	}
	if len(els) == 0 {
		return nil, errNoElements
	}
	return els[0], nil
}
