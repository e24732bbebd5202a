package config

import "time"

// Default values applied to unset fields.
const (
	DefaultBinDir         = "./bin"
	DefaultTargetPattern  = "cmd/*/main.go"
	DefaultBuilderImage   = "golang:1.24-alpine"
	DefaultRuntimeImage   = "alpine:3.20"
	DefaultWatchPattern   = "**/*.go"
	DefaultWatchInterval  = 500 * time.Millisecond
	DefaultWatchDebounce  = 200 * time.Millisecond
	DefaultPushInitial    = time.Second
	DefaultPushMax        = 10 * time.Second
	DefaultPushRetries    = 2
	DefaultRegistryGitHub = "github"
)

func applyDefaults(cfg *Config) {
	if cfg.BinDir == "" {
		cfg.BinDir = DefaultBinDir
	}
	if cfg.Targets.Pattern == "" {
		cfg.Targets.Pattern = DefaultTargetPattern
	}
	if cfg.Git.Backend == "" {
		cfg.Git.Backend = GitBackendCLI
	}
	if cfg.Build.Jobs <= 0 {
		cfg.Build.Jobs = 1
	}

	if cfg.Image.BuilderImage == "" {
		cfg.Image.BuilderImage = DefaultBuilderImage
	}
	if cfg.Image.RuntimeImage == "" {
		cfg.Image.RuntimeImage = DefaultRuntimeImage
	}
	if cfg.Image.Registries == nil {
		cfg.Image.Registries = []string{DefaultRegistryGitHub}
	}
	if cfg.Image.Push.Mode == "" {
		cfg.Image.Push.Mode = RetryBackoffLinear
	}
	if cfg.Image.Push.Initial <= 0 {
		cfg.Image.Push.Initial = DefaultPushInitial
	}
	if cfg.Image.Push.Max <= 0 {
		cfg.Image.Push.Max = DefaultPushMax
	}
	// retries: 0 means unset; a negative value disables retries.
	switch {
	case cfg.Image.Push.Retries == 0:
		cfg.Image.Push.Retries = DefaultPushRetries
	case cfg.Image.Push.Retries < 0:
		cfg.Image.Push.Retries = 0
	}

	if cfg.Watch.Pattern == "" {
		cfg.Watch.Pattern = DefaultWatchPattern
	}
	if cfg.Watch.Mode == "" {
		cfg.Watch.Mode = WatchModeNotify
	}
	if cfg.Watch.Interval <= 0 {
		cfg.Watch.Interval = DefaultWatchInterval
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = LogLevelInfo
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = LogFormatText
	}
}
