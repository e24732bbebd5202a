package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/buildstamp/internal/foundation/errors"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig canonicalizes enumerated fields before defaults are applied.
// Unknown log settings fall back with a warning; an unknown git backend, watch
// mode or push backoff mode is a config error.
func NormalizeConfig(c *Config) (*NormalizationResult, error) {
	if c == nil {
		return nil, fmt.Errorf("config nil")
	}
	res := &NormalizationResult{}

	if raw := string(c.Log.Level); strings.TrimSpace(raw) != "" {
		lvl := NormalizeLogLevel(raw)
		if string(lvl) != raw {
			res.warn("log.level", raw, string(lvl))
		}
		c.Log.Level = lvl
	}
	if raw := string(c.Log.Format); strings.TrimSpace(raw) != "" {
		f := NormalizeLogFormat(raw)
		if string(f) != raw {
			res.warn("log.format", raw, string(f))
		}
		c.Log.Format = f
	}

	backend, err := gitBackendNormalizer.Parse(string(c.Git.Backend))
	if err != nil {
		return res, invalidField("git.backend", err)
	}
	c.Git.Backend = backend

	mode, err := watchModeNormalizer.Parse(string(c.Watch.Mode))
	if err != nil {
		return res, invalidField("watch.mode", err)
	}
	c.Watch.Mode = mode

	if raw := strings.TrimSpace(string(c.Image.Push.Mode)); raw != "" {
		rb, err := retryBackoffNormalizer.Parse(raw)
		if err != nil {
			return res, invalidField("image.push.mode", err)
		}
		c.Image.Push.Mode = rb
	}

	if c.Build.Jobs < 0 {
		c.Build.Jobs = 0
	}
	return res, nil
}

func (r *NormalizationResult) warn(field, from, to string) {
	r.Warnings = append(r.Warnings, fmt.Sprintf("normalized %s from %q to %q", field, from, to))
}

func invalidField(field string, err error) error {
	return errors.WrapError(err, errors.CategoryConfig, "invalid "+field).
		Fatal().
		WithContext("field", field).
		Build()
}
