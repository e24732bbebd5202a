package image

import (
	"context"
	"log/slog"
	"os"
	"path"
	"strings"

	"git.home.luguber.info/inful/buildstamp/internal/logfields"
	"git.home.luguber.info/inful/buildstamp/internal/shell"
)

// GitHubRegistry is the registry entry selecting the GitHub package registry.
const GitHubRegistry = "github"

// GitHubRegistryHost hosts the GitHub package registry.
const GitHubRegistryHost = "docker.pkg.github.com"

// Env carries the CI identity used for the GitHub registry.
type Env struct {
	Actor      string
	Repository string
	Token      string
}

// EnvFromOS reads GITHUB_ACTOR, GITHUB_REPOSITORY and GITHUB_TOKEN.
func EnvFromOS() Env {
	return Env{
		Actor:      strings.TrimSpace(os.Getenv("GITHUB_ACTOR")),
		Repository: strings.TrimSpace(os.Getenv("GITHUB_REPOSITORY")),
		Token:      os.Getenv("GITHUB_TOKEN"),
	}
}

// InActions reports whether the GitHub Actions identity is present.
func (e Env) InActions() bool { return e.Actor != "" && e.Repository != "" }

// RegistryTag is one tag pushed to one registry.
type RegistryTag struct {
	Registry string
	Tag      string
}

const missingTokenHint = `Found GitHub Actions context but no GITHUB_TOKEN.
Image will not be pushed to the GitHub package registry.
To resolve this issue, add the following to your workflow:
  env:
    GITHUB_TOKEN: ${{ secrets.GITHUB_TOKEN }}`

// registryTags maps each configured registry onto a tag for base. The github
// entry logs in with the token and is skipped (with a warning) when no token
// is available; a failed login is logged and the tag is kept.
func (p *Packager) registryTags(ctx context.Context, base string, registries []string, env Env, dryRun bool) []RegistryTag {
	var tags []RegistryTag
	for _, reg := range registries {
		reg = strings.TrimSpace(reg)
		if reg == "" {
			continue
		}
		if reg != GitHubRegistry {
			tags = append(tags, RegistryTag{Registry: reg, Tag: strings.TrimSuffix(reg, "/") + "/" + base})
			continue
		}
		if !env.InActions() {
			p.logger.Debug("No GitHub Actions context; skipping GitHub registry")
			continue
		}
		if env.Token == "" {
			p.logger.Warn(missingTokenHint, logfields.Registry(GitHubRegistryHost))
			continue
		}
		p.login(ctx, env, dryRun)
		tags = append(tags, RegistryTag{Registry: reg, Tag: path.Join(GitHubRegistryHost, env.Repository, base)})
	}
	return tags
}

func (p *Packager) login(ctx context.Context, env Env, dryRun bool) {
	cmd := shell.Command{
		Name:  "docker",
		Args:  []string{"login", GitHubRegistryHost, "--username", env.Actor, "--password-stdin"},
		Stdin: strings.NewReader(env.Token + "\n"),
		Dir:   p.dir,
	}
	p.printf("Authenticating with %s...\n", GitHubRegistryHost)
	if dryRun {
		p.printf("%s\n", cmd.String())
		return
	}
	if _, err := p.runner.Output(ctx, cmd); err != nil {
		p.logger.Warn("Failed to authenticate with registry",
			logfields.Registry(GitHubRegistryHost),
			slog.String("actor", env.Actor),
			logfields.Error(err))
	}
}
