// Package tui holds the interactive config wizard behind `bookpipe init-config`.
package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"bookpipe/internal/config"
)

// RunConfigWizard asks for the settings a first run needs and writes them to
// path. An existing file at path pre-fills the form.
func RunConfigWizard(path string) (string, error) {
	base := config.Defaults()
	if _, err := os.Stat(path); err == nil {
		loaded, err := config.Load(path)
		if err != nil {
			return "", err
		}
		base = loaded
	}

	state := newFormState(path, base)
	form := buildForm(state).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return "", err
	}

	cfg, err := buildConfig(state)
	if err != nil {
		return "", err
	}
	if err := writeConfig(state.configPath, cfg); err != nil {
		return "", err
	}
	return state.configPath, nil
}

type formState struct {
	base config.Config

	profileDir    string
	downloadsDir  string
	headless      bool
	outputDir     string
	maxWordsStr   string
	jobTimeoutStr string
	logFormat     string
	metricsFile   string
	configPath    string
}

func newFormState(path string, base config.Config) *formState {
	s := &formState{base: base, configPath: path}
	s.fromConfig(base)
	return s
}

func (s *formState) fromConfig(cfg config.Config) {
	s.profileDir = cfg.ProfileDir
	s.downloadsDir = cfg.DownloadsDir
	s.headless = cfg.Headless
	s.outputDir = cfg.OutputDir
	s.maxWordsStr = strconv.Itoa(cfg.MaxWords)
	s.jobTimeoutStr = cfg.JobTimeout.String()
	s.logFormat = cfg.LogFormat
	if s.logFormat == "" {
		s.logFormat = "console"
	}
	s.metricsFile = cfg.MetricsFile
}

func buildForm(state *formState) *huh.Form {
	return huh.NewForm(
		buildBrowserGroup(state),
		buildOutputGroup(state),
		buildFinishGroup(state),
	)
}

func buildBrowserGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Browser profile dir").
			Description("Chromium profile already signed in to the catalog.").
			Value(&state.profileDir).
			Validate(requireValue("profile dir is required")),
		huh.NewInput().Title("Downloads dir").
			Description("Where downloaded books are saved.").
			Value(&state.downloadsDir).
			Validate(requireValue("downloads dir is required")),
		huh.NewConfirm().Title("Headless").Description("Hide the browser window?").Value(&state.headless),
		huh.NewInput().Title("Job timeout").Description("Upper bound for one run, e.g. 15m.").
			Value(&state.jobTimeoutStr).
			Validate(validateDurationString(time.Second)),
	).Title("Browser")
}

func buildOutputGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Output dir").
			Description("Optional: defaults to the downloaded file's dir.").
			Value(&state.outputDir),
		huh.NewInput().Title("Max words per chunk").Value(&state.maxWordsStr).
			Validate(validateIntString(1, 100000000)),
		huh.NewInput().Title("Metrics file").
			Description("Optional: Prometheus textfile written after each run.").
			Value(&state.metricsFile),
		huh.NewSelect[string]().Title("Log format").Value(&state.logFormat).Options(
			huh.NewOption("console", "console"),
			huh.NewOption("json", "json"),
		),
	).Title("Output")
}

func buildFinishGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Config path").Value(&state.configPath).Validate(validateConfigPath),
	).Title("Finish")
}

// buildConfig overlays the form answers on the base config.
func buildConfig(state *formState) (config.Config, error) {
	maxWords, err := parsePositiveInt(state.maxWordsStr, "max words must be a positive integer")
	if err != nil {
		return config.Config{}, err
	}
	jobTimeout, err := time.ParseDuration(strings.TrimSpace(state.jobTimeoutStr))
	if err != nil || jobTimeout <= 0 {
		return config.Config{}, errors.New("job timeout must be a positive duration")
	}

	cfg := state.base
	cfg.ProfileDir = strings.TrimSpace(state.profileDir)
	cfg.DownloadsDir = strings.TrimSpace(state.downloadsDir)
	cfg.Headless = state.headless
	cfg.OutputDir = strings.TrimSpace(state.outputDir)
	cfg.MaxWords = maxWords
	cfg.JobTimeout = jobTimeout
	cfg.LogFormat = state.logFormat
	cfg.MetricsFile = strings.TrimSpace(state.metricsFile)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func writeConfig(path string, cfg config.Config) error {
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0600)
}

func parsePositiveInt(s, errMsg string) (int, error) {
	val, err := parseInt(s)
	if err != nil || val <= 0 {
		return 0, errors.New(errMsg)
	}
	return val, nil
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func requireValue(msg string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(msg)
		}
		return nil
	}
}

func validateIntString(minVal, maxVal int) func(string) error {
	return func(s string) error {
		v, err := parseInt(s)
		if err != nil {
			return errors.New("must be an integer")
		}
		if v < minVal || v > maxVal {
			return fmt.Errorf("must be between %d and %d", minVal, maxVal)
		}
		return nil
	}
}

func validateDurationString(minVal time.Duration) func(string) error {
	return func(s string) error {
		d, err := time.ParseDuration(strings.TrimSpace(s))
		if err != nil {
			return errors.New("must be a duration like 90s or 15m")
		}
		if d < minVal {
			return fmt.Errorf("must be at least %s", minVal)
		}
		return nil
	}
}

func validateConfigPath(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("path cannot be empty")
	}
	if strings.ContainsAny(filepath.Base(s), `:*?"<>|`) {
		return errors.New("invalid characters")
	}
	if ext := strings.ToLower(filepath.Ext(s)); ext != ".json" {
		return errors.New("config path must end in .json")
	}
	return nil
}
