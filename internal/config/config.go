package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/buildstamp/internal/foundation/errors"
)

// DefaultFile is the configuration file looked up in the project root.
const DefaultFile = ".buildstamp.yaml"

// Config represents the buildstamp configuration.
type Config struct {
	BinDir  string        `yaml:"bin_dir"`
	Targets TargetsConfig `yaml:"targets"`
	Git     GitConfig     `yaml:"git"`
	Build   BuildConfig   `yaml:"build"`
	Image   ImageConfig   `yaml:"image"`
	Watch   WatchConfig   `yaml:"watch"`
	Log     LogConfig     `yaml:"log"`

	// Warnings collects adjustments made while loading, for the caller to log.
	Warnings []string `yaml:"-"`
}

// TargetsConfig controls entry point discovery.
type TargetsConfig struct {
	Pattern string `yaml:"pattern"` // doublestar glob relative to the project root
}

// GitConfig selects the repository query backend.
type GitConfig struct {
	Backend GitBackend `yaml:"backend"`
}

// BuildConfig controls compilation.
type BuildConfig struct {
	Jobs     int   `yaml:"jobs"`
	Trimpath *bool `yaml:"trimpath,omitempty"`
}

// ImageConfig controls container image assembly and publishing.
type ImageConfig struct {
	BuilderImage string     `yaml:"builder_image"`
	RuntimeImage string     `yaml:"runtime_image"`
	Registries   []string   `yaml:"registries"`
	Push         PushConfig `yaml:"push"`
}

// PushConfig is the retry policy applied to each registry push.
type PushConfig struct {
	Mode    RetryBackoffMode `yaml:"mode"`
	Initial time.Duration    `yaml:"initial"`
	Max     time.Duration    `yaml:"max"`
	Retries int              `yaml:"retries"`
}

// WatchConfig controls watch-test and watch-run.
type WatchConfig struct {
	Pattern  string        `yaml:"pattern"`
	Mode     WatchMode     `yaml:"mode"`
	Interval time.Duration `yaml:"interval"`
	Debounce time.Duration `yaml:"debounce"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// UseTrimpath reports whether -trimpath is passed to the go tool.
func (b BuildConfig) UseTrimpath() bool {
	return b.Trimpath == nil || *b.Trimpath
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the configuration file at path. A missing file yields the defaults;
// a file that exists but cannot be parsed or validated is a config error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the CLI flag
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration").
				Fatal().
				WithContext("path", path).
				Build()
		}
	case stderrors.Is(err, fs.ErrNotExist):
		// defaults only
	default:
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read configuration").
			Fatal().
			WithContext("path", path).
			Build()
	}

	applyEnvOverrides(cfg)

	res, err := NormalizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg.Warnings = res.Warnings
	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid configuration").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return cfg, nil
}

// applyEnvOverrides lets BUILDSTAMP_* variables override file values.
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("BUILDSTAMP_LOG_LEVEL")); v != "" {
		cfg.Log.Level = LogLevel(v)
	}
	if v := strings.TrimSpace(os.Getenv("BUILDSTAMP_LOG_FORMAT")); v != "" {
		cfg.Log.Format = LogFormat(v)
	}
}

// Marshal renders cfg as YAML, used by `info -v` to show the effective configuration.
func Marshal(cfg *Config) (string, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(out), nil
}
