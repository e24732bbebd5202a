package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate checks a normalized, defaulted configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config nil")
	}
	if err := validatePattern("targets.pattern", cfg.Targets.Pattern); err != nil {
		return err
	}
	if filepath.Base(cfg.Targets.Pattern) != "main.go" {
		return fmt.Errorf("targets.pattern must match main.go files, got %q", cfg.Targets.Pattern)
	}
	if err := validatePattern("watch.pattern", cfg.Watch.Pattern); err != nil {
		return err
	}
	if cfg.Image.Push.Initial > cfg.Image.Push.Max {
		return fmt.Errorf("image.push.initial (%s) exceeds image.push.max (%s)", cfg.Image.Push.Initial, cfg.Image.Push.Max)
	}
	seen := make(map[string]bool, len(cfg.Image.Registries))
	for _, r := range cfg.Image.Registries {
		if r == "" {
			return errors.New("image.registries contains an empty entry")
		}
		if seen[r] {
			return fmt.Errorf("duplicate registry: %s", r)
		}
		seen[r] = true
	}
	return nil
}

func validatePattern(field, pattern string) error {
	if filepath.IsAbs(pattern) {
		return fmt.Errorf("%s must be relative to the project root, got %q", field, pattern)
	}
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("%s is not a valid glob: %q", field, pattern)
	}
	return nil
}
