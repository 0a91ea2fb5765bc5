// Package cli defines the bookpipe command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bookpipe/internal/app"
	"bookpipe/internal/catalog"
	"bookpipe/internal/config"
	"bookpipe/internal/logging"
	"bookpipe/internal/tui"
)

// ExitError carries the process exit code for err.
type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "error"
}

func (e ExitError) Unwrap() error { return e.Err }

// Runner is the job surface the commands drive.
type Runner interface {
	Run(ctx context.Context, url string) (app.Result, error)
	Convert(ctx context.Context, path string) (app.Result, error)
	Inspect(ctx context.Context, url string) (catalog.Book, error)
}

// Env holds what the commands write to and build on.
type Env struct {
	Stdout       io.Writer
	Stderr       io.Writer
	NewRunner    func(config.Config, *zap.Logger) Runner
	ConfigWizard func(path string) (string, error)
}

func DefaultEnv() Env {
	return Env{
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		NewRunner:    func(cfg config.Config, logger *zap.Logger) Runner { return app.New(cfg, logger) },
		ConfigWizard: tui.RunConfigWizard,
	}
}

type rootOptions struct {
	env        Env
	configPath string
	logLevel   string
}

func NewRootCommand(env Env) *cobra.Command {
	o := &rootOptions{env: env}
	root := &cobra.Command{
		Use:   "bookpipe",
		Short: "Download catalog books and turn them into Markdown chunks",
		Long: `bookpipe downloads a book through a signed-in browser profile, renders
EPUB files to Markdown and splits the text into word-bounded chunk files.

Everything except the config file and the log level is configuration:
see "bookpipe init-config" and the BOOKPIPE_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(env.Stdout)
	root.SetErr(env.Stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return ExitError{Code: 2, Err: err}
	})
	root.PersistentFlags().StringVar(&o.configPath, "config", "", "Path to config file (default: search ./, ./configs, ~/.bookpipe)")
	root.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")

	root.AddCommand(
		o.runCommand(),
		o.convertCommand(),
		o.inspectCommand(),
		o.initConfigCommand(),
	)
	return root
}

func (o *rootOptions) runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <url>",
		Short: "Download the book at a catalog URL, render and chunk it",
		Example: `  bookpipe run https://catalog.example.org/book/123
  bookpipe run catalog.example.org/book/123 --log-level debug`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withRunner(func(r Runner) error {
				res, err := r.Run(cmd.Context(), args[0])
				return o.report(res, err)
			})
		},
	}
}

func (o *rootOptions) convertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <file>",
		Short: "Render and chunk a local EPUB, Markdown or PDF file",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withRunner(func(r Runner) error {
				res, err := r.Convert(cmd.Context(), args[0])
				return o.report(res, err)
			})
		},
	}
}

func (o *rootOptions) inspectCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect <url>",
		Short: "Show a catalog book's details and download options without downloading",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withRunner(func(r Runner) error {
				book, err := r.Inspect(cmd.Context(), args[0])
				if err != nil {
					return ExitError{Code: 1, Err: err}
				}
				if asJSON {
					enc := json.NewEncoder(o.env.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(book)
				}
				app.PrintBook(o.env.Stdout, book)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the book as JSON")
	return cmd
}

func (o *rootOptions) initConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write a config file interactively",
		Args:  exactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			path := o.configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}
			written, err := o.env.ConfigWizard(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(o.env.Stdout, "Wrote %s\n", written)
			return nil
		},
	}
}

// withRunner loads configuration, builds the logger and hands a runner to fn.
func (o *rootOptions) withRunner(fn func(Runner) error) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return ExitError{Code: 2, Err: err}
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return ExitError{Code: 2, Err: err}
	}
	defer func() { _ = logger.Sync() }()
	return fn(o.env.NewRunner(cfg, logger))
}

func (o *rootOptions) report(res app.Result, err error) error {
	if err != nil {
		fmt.Fprintln(o.env.Stderr, "Job failed:")
		app.PrintFailure(o.env.Stderr, err)
		return ExitError{Code: 1, Err: err}
	}
	app.PrintSummary(o.env.Stdout, res)
	return nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return ExitError{Code: 2, Err: fmt.Errorf("%w\nUsage: %s", err, cmd.UseLine())}
		}
		return nil
	}
}
