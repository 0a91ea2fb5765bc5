// Package app runs book jobs: fetch a book through the browser (or take a
// local file), render it to Markdown and partition it into chunk files.
package app

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookpipe/internal/artifact"
	"bookpipe/internal/bookerr"
	"bookpipe/internal/config"
	"bookpipe/internal/output"
	"bookpipe/internal/partition"
	"bookpipe/internal/render"
	"bookpipe/internal/resolve"
)

// Resolver locates and downloads the book offered on a catalog page.
type Resolver interface {
	Open(ctx context.Context, page resolve.Page, url string) error
	DetectVariants(page resolve.Page) []resolve.Variant
	Resolve(ctx context.Context, page resolve.Page, url string) (resolve.Result, error)
}

// Session is a browser tab on the signed-in profile.
type Session interface {
	Page() resolve.Page
	Close() error
}

type App struct {
	cfg      config.Config
	logger   *zap.Logger
	renderer *render.Renderer
	resolver Resolver

	openSession func(resolve.SessionOptions) (Session, error)
	newID       func() string
	hookOutput  io.Writer
}

// Result describes a finished job.
type Result struct {
	JobID        string
	Source       string
	Title        string
	Format       artifact.Format
	Variant      resolve.Variant
	FromScan     bool
	ArtifactPath string
	RenderedPath string
	Files        []string
	Chunks       []partition.Chunk
	ManifestPath string
	Steps        []StepResult
}

func New(cfg config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:      cfg,
		logger:   logger,
		renderer: render.New(logger, cfg.MinUnitChars),
		resolver: resolve.New(resolve.Options{
			DownloadsDir: cfg.DownloadsDir,
			Selectors:    resolve.DefaultSelectors(),
			Timing:       timingFromConfig(cfg),
			Logger:       logger,
		}),
		openSession: openBrowserSession,
		newID:       uuid.NewString,
		hookOutput:  os.Stderr,
	}
}

func openBrowserSession(opts resolve.SessionOptions) (Session, error) {
	s, err := resolve.OpenSession(opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func timingFromConfig(cfg config.Config) resolve.Timing {
	return resolve.Timing{
		Navigation:      cfg.NavigationTimeout,
		LoadSettle:      cfg.LoadSettle,
		MenuSettle:      cfg.MenuSettle,
		ConvertPoll:     cfg.ConvertPollInterval,
		ConvertTimeout:  cfg.ConvertTimeout,
		DownloadWait:    cfg.DownloadWait,
		FreshnessWindow: cfg.FreshnessWindow,
	}
}

// Run acquires the book at url through the browser and processes it.
func (a *App) Run(ctx context.Context, url string) (Result, error) {
	url, err := normalizeURL(url)
	if err != nil {
		return Result{}, err
	}
	ctx, cancel := a.withJobTimeout(ctx)
	defer cancel()

	j := a.newJob(url)
	j.url = url
	j.logger.Info("job started", zap.String("url", url))

	var art artifact.Artifact
	err = j.run(StepFetch, func() error {
		res, err := a.fetch(ctx, j, url)
		if err != nil {
			return err
		}
		art = res.Artifact
		return nil
	})
	if err != nil {
		return j.finish(err)
	}
	return j.finish(a.process(ctx, j, art))
}

// Convert processes a local EPUB, Markdown or PDF file. The browser is
// never started.
func (a *App) Convert(ctx context.Context, path string) (Result, error) {
	ctx, cancel := a.withJobTimeout(ctx)
	defer cancel()

	j := a.newJob(path)
	j.logger.Info("job started", zap.String("path", path))
	j.skip(StepFetch, "local input")

	art, err := artifact.FromFile(path)
	if err != nil {
		return j.finish(j.fail(StepRender, err, 0))
	}
	return j.finish(a.process(ctx, j, art))
}

func (a *App) withJobTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.JobTimeout > 0 {
		return context.WithTimeout(ctx, a.cfg.JobTimeout)
	}
	return context.WithCancel(ctx)
}

// fetch holds the browser session only for as long as resolution takes.
func (a *App) fetch(ctx context.Context, j *job, url string) (resolve.Result, error) {
	sess, err := a.openSession(resolve.SessionOptions{
		ProfileDir:   a.cfg.ProfileDir,
		DownloadsDir: a.cfg.DownloadsDir,
		Headless:     a.cfg.Headless,
		Logger:       j.logger,
	})
	if err != nil {
		return resolve.Result{}, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			j.logger.Warn("browser session close failed", zap.Error(cerr))
		}
	}()

	res, err := a.resolver.Resolve(ctx, sess.Page(), url)
	if err != nil {
		return resolve.Result{}, err
	}
	j.metrics.IncVariant(string(res.Variant), res.Artifact.Format.String())
	j.res.Variant = res.Variant
	j.res.FromScan = res.FromScan
	j.res.ArtifactPath = res.Artifact.LocalPath
	return res, nil
}

func (a *App) process(ctx context.Context, j *job, art artifact.Artifact) error {
	j.res.Format = art.Format
	j.res.ArtifactPath = art.LocalPath
	layout := output.NewLayout(a.cfg.OutputDir, art.LocalPath)

	var text string
	switch art.Format {
	case artifact.FormatEPUB:
		err := j.run(StepRender, func() error {
			doc, err := a.renderer.RenderFile(ctx, art.LocalPath)
			if err != nil {
				return err
			}
			path, err := output.WriteMarkdown(layout, doc.Markdown)
			if err != nil {
				return err
			}
			j.logger.Info("book rendered",
				zap.String("path", path),
				zap.String("title", doc.Title),
				zap.Int("units", doc.Units),
				zap.Int("skipped", doc.Skipped),
			)
			text = doc.Markdown
			j.res.RenderedPath = path
			return nil
		})
		if err != nil {
			return err
		}
	case artifact.FormatMarkdown:
		j.skip(StepRender, "input is markdown")
		j.res.RenderedPath = art.LocalPath
	case artifact.FormatPDF:
		j.skip(StepRender, "pdf is passed through")
		return j.run(StepPartition, func() error {
			return a.passThroughPDF(ctx, j, layout, art)
		})
	default:
		return j.fail(StepRender, bookerr.NewUnsupportedFormat(art.LocalPath, "format "+art.Format.String()+" cannot be processed", nil), 0)
	}

	return j.run(StepPartition, func() error {
		if art.Format == artifact.FormatMarkdown {
			data, err := os.ReadFile(art.LocalPath)
			if err != nil {
				return err
			}
			text = string(data)
			if strings.TrimSpace(text) == "" {
				return bookerr.NewEmptyDocument(art.LocalPath, 0)
			}
		}
		return a.partition(ctx, j, layout, text)
	})
}

func (a *App) partition(ctx context.Context, j *job, layout output.Layout, text string) error {
	chunks := partition.Partition(text, a.cfg.MaxWords)
	files, err := output.WriteChunks(layout, chunks)
	if err != nil {
		return err
	}
	for _, c := range chunks {
		if c.Oversized {
			j.logger.Warn("chunk exceeds word ceiling",
				zap.Int("chunk", c.Index),
				zap.Int("words", c.WordCount),
				zap.Int("max_words", a.cfg.MaxWords),
			)
		}
	}
	j.res.Chunks = chunks
	j.res.Files = files
	return a.publish(ctx, j, layout)
}

// passThroughPDF hands the PDF on unchanged as a single chunk. The word
// count comes from the text layer when there is one.
func (a *App) passThroughPDF(ctx context.Context, j *job, layout output.Layout, art artifact.Artifact) error {
	words := 0
	info, err := artifact.ReadPDF(art.LocalPath)
	if err != nil {
		j.logger.Warn("pdf text layer unreadable, word count unknown", zap.String("path", art.LocalPath), zap.Error(err))
	} else {
		words = partition.CountWords(info.Text)
	}
	chunk := partition.Chunk{Index: 1, WordCount: words, Oversized: a.cfg.MaxWords > 0 && words > a.cfg.MaxWords}
	if chunk.Oversized {
		j.logger.Warn("pdf exceeds word ceiling and is not split",
			zap.String("path", art.LocalPath),
			zap.Int("words", words),
			zap.Int("max_words", a.cfg.MaxWords),
		)
	}
	j.res.Chunks = []partition.Chunk{chunk}
	j.res.Files = []string{art.LocalPath}
	return a.publish(ctx, j, layout)
}

// publish writes the manifest and runs the post commands.
func (a *App) publish(ctx context.Context, j *job, layout output.Layout) error {
	j.res.Title = output.DisplayTitle(j.res.Files[0])
	m := output.Manifest{
		JobID:     j.res.JobID,
		Source:    j.res.Source,
		Title:     j.res.Title,
		Format:    j.res.Format.String(),
		MaxWords:  a.cfg.MaxWords,
		CreatedAt: time.Now().UTC(),
		Chunks:    output.NewChunkEntries(j.res.Chunks, j.res.Files),
	}
	path, err := output.WriteManifest(layout, m)
	if err != nil {
		return err
	}
	j.res.ManifestPath = path
	j.metrics.SetChunks(len(j.res.Files))
	j.logger.Info("chunks written",
		zap.Int("chunks", len(j.res.Files)),
		zap.String("manifest", path),
	)
	return a.runPostCommands(ctx, j, layout.Dir)
}
