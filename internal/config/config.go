package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "BOOKPIPE"

type Config struct {
	ProfileDir   string `mapstructure:"profile_dir" json:"profile_dir"`
	DownloadsDir string `mapstructure:"downloads_dir" json:"downloads_dir"`
	OutputDir    string `mapstructure:"output_dir" json:"output_dir"`
	Headless     bool   `mapstructure:"headless" json:"headless"`

	NavigationTimeout   time.Duration `mapstructure:"navigation_timeout" json:"navigation_timeout"`
	LoadSettle          time.Duration `mapstructure:"load_settle" json:"load_settle"`
	MenuSettle          time.Duration `mapstructure:"menu_settle" json:"menu_settle"`
	ConvertPollInterval time.Duration `mapstructure:"convert_poll_interval" json:"convert_poll_interval"`
	ConvertTimeout      time.Duration `mapstructure:"convert_timeout" json:"convert_timeout"`
	DownloadWait        time.Duration `mapstructure:"download_wait" json:"download_wait"`
	FreshnessWindow     time.Duration `mapstructure:"freshness_window" json:"freshness_window"`
	JobTimeout          time.Duration `mapstructure:"job_timeout" json:"job_timeout"`

	MaxWords     int `mapstructure:"max_words" json:"max_words"`
	MinUnitChars int `mapstructure:"min_unit_chars" json:"min_unit_chars"`

	LogLevel     string   `mapstructure:"log_level" json:"log_level"`
	LogFormat    string   `mapstructure:"log_format" json:"log_format"`
	MetricsFile  string   `mapstructure:"metrics_file" json:"metrics_file"`
	PostCommands []string `mapstructure:"post_commands" json:"post_commands"`
}

func Defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		ProfileDir:          filepath.Join(home, ".bookpipe", "browser_profile"),
		DownloadsDir:        filepath.Join(home, "Downloads"),
		NavigationTimeout:   60 * time.Second,
		LoadSettle:          5 * time.Second,
		MenuSettle:          2 * time.Second,
		ConvertPollInterval: time.Second,
		ConvertTimeout:      60 * time.Second,
		DownloadWait:        20 * time.Second,
		FreshnessWindow:     120 * time.Second,
		JobTimeout:          15 * time.Minute,
		MaxWords:            350000,
		MinUnitChars:        100,
		LogLevel:            "info",
		LogFormat:           "console",
	}
}

// Load resolves configuration from defaults, an optional file and the
// environment, in increasing precedence. An empty path searches SearchDirs
// for bookpipe.{json,yaml,toml}; a missing file there is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		for _, dir := range SearchDirs() {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.ProfileDir = expandHome(cfg.ProfileDir)
	cfg.DownloadsDir = expandHome(cfg.DownloadsDir)
	cfg.OutputDir = expandHome(cfg.OutputDir)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("profile_dir", d.ProfileDir)
	v.SetDefault("downloads_dir", d.DownloadsDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("headless", d.Headless)
	v.SetDefault("navigation_timeout", d.NavigationTimeout)
	v.SetDefault("load_settle", d.LoadSettle)
	v.SetDefault("menu_settle", d.MenuSettle)
	v.SetDefault("convert_poll_interval", d.ConvertPollInterval)
	v.SetDefault("convert_timeout", d.ConvertTimeout)
	v.SetDefault("download_wait", d.DownloadWait)
	v.SetDefault("freshness_window", d.FreshnessWindow)
	v.SetDefault("job_timeout", d.JobTimeout)
	v.SetDefault("max_words", d.MaxWords)
	v.SetDefault("min_unit_chars", d.MinUnitChars)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("metrics_file", d.MetricsFile)
	v.SetDefault("post_commands", []string{})
}

func (c Config) Validate() error {
	if c.MaxWords <= 0 {
		return fmt.Errorf("max_words must be positive, got %d", c.MaxWords)
	}
	if strings.TrimSpace(c.DownloadsDir) == "" {
		return errors.New("downloads_dir is required")
	}
	if c.ConvertPollInterval <= 0 {
		return errors.New("convert_poll_interval must be positive")
	}
	for name, d := range map[string]time.Duration{
		"navigation_timeout": c.NavigationTimeout,
		"convert_timeout":    c.ConvertTimeout,
		"download_wait":      c.DownloadWait,
		"freshness_window":   c.FreshnessWindow,
		"job_timeout":        c.JobTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

// Marshal renders cfg as JSON with durations in Go duration syntax so the
// result loads back through Load.
func Marshal(cfg Config) ([]byte, error) {
	out := map[string]any{
		"profile_dir":           cfg.ProfileDir,
		"downloads_dir":         cfg.DownloadsDir,
		"output_dir":            cfg.OutputDir,
		"headless":              cfg.Headless,
		"navigation_timeout":    cfg.NavigationTimeout.String(),
		"load_settle":           cfg.LoadSettle.String(),
		"menu_settle":           cfg.MenuSettle.String(),
		"convert_poll_interval": cfg.ConvertPollInterval.String(),
		"convert_timeout":       cfg.ConvertTimeout.String(),
		"download_wait":         cfg.DownloadWait.String(),
		"freshness_window":      cfg.FreshnessWindow.String(),
		"job_timeout":           cfg.JobTimeout.String(),
		"max_words":             cfg.MaxWords,
		"min_unit_chars":        cfg.MinUnitChars,
		"log_level":             cfg.LogLevel,
		"log_format":            cfg.LogFormat,
		"metrics_file":          cfg.MetricsFile,
		"post_commands":         cfg.PostCommands,
	}
	if cfg.PostCommands == nil {
		out["post_commands"] = []string{}
	}
	return json.MarshalIndent(out, "", "  ")
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
