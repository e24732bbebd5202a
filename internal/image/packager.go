package image

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"git.home.luguber.info/inful/buildstamp/internal/foundation/errors"
	"git.home.luguber.info/inful/buildstamp/internal/logfields"
	"git.home.luguber.info/inful/buildstamp/internal/metrics"
	"git.home.luguber.info/inful/buildstamp/internal/retry"
	"git.home.luguber.info/inful/buildstamp/internal/shell"
)

// Request describes one image build.
type Request struct {
	// Name and Version form the local tag name:version.
	Name       string
	Version    string
	Dockerfile Dockerfile
	Registries []string
	Env        Env
	// DryRun prints the Dockerfile and commands without running docker.
	DryRun bool
}

// Tag is the local image tag.
func (r Request) Tag() string { return r.Name + ":" + r.Version }

// Result lists what was built and pushed.
type Result struct {
	Tags   []string
	Pushed []string
	Failed []string
}

// Packager builds and pushes images with the docker CLI.
type Packager struct {
	runner   shell.Runner
	logger   *slog.Logger
	recorder metrics.Recorder
	policy   retry.Policy
	dir      string
	out      io.Writer
}

// NewPackager creates a packager running docker in dir.
func NewPackager(runner shell.Runner, dir string, logger *slog.Logger) *Packager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Packager{
		runner:   runner,
		logger:   logger,
		recorder: metrics.NoopRecorder{},
		policy:   retry.DefaultPolicy(),
		dir:      dir,
		out:      os.Stdout,
	}
}

// WithRecorder injects a metrics recorder.
func (p *Packager) WithRecorder(r metrics.Recorder) *Packager {
	if r != nil {
		p.recorder = r
	}
	return p
}

// WithRetryPolicy sets the policy used for each push. A policy that fails
// validation is ignored and the current one is kept.
func (p *Packager) WithRetryPolicy(policy retry.Policy) *Packager {
	if err := policy.Validate(); err != nil {
		p.logger.Warn("Ignoring invalid push retry policy", logfields.Error(err))
		return p
	}
	p.policy = policy
	return p
}

// WithOutput redirects progress output.
func (p *Packager) WithOutput(w io.Writer) *Packager {
	p.out = w
	return p
}

func (p *Packager) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Build renders the Dockerfile, builds the image with every tag and pushes
// the registry tags. A failed build aborts with docker's exit status. Every
// push is attempted; failures are joined into one error exiting with 1.
func (p *Packager) Build(ctx context.Context, req Request) (*Result, error) {
	dockerfile, err := req.Dockerfile.Render()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryImage, "invalid image definition").Fatal().Build()
	}

	base := req.Tag()
	registryTags := p.registryTags(ctx, base, req.Registries, req.Env, req.DryRun)
	res := &Result{Tags: []string{base}}
	for _, rt := range registryTags {
		res.Tags = append(res.Tags, rt.Tag)
	}

	args := make([]string, 0, 2*len(res.Tags)+4)
	args = append(args, "build")
	for _, t := range res.Tags {
		args = append(args, "-t", t)
	}
	args = append(args, "-f", "-", ".")
	build := shell.Command{Name: "docker", Args: args, Dir: p.dir, Stdin: strings.NewReader(dockerfile)}

	p.printf("|%s\n%s", build.String(), dockerfile)
	if req.DryRun {
		for _, rt := range registryTags {
			p.printf("docker push %s\n", rt.Tag)
		}
		return res, nil
	}

	if err := p.runner.Run(ctx, build); err != nil {
		b := errors.ImageError("docker build failed").
			Fatal().
			WithCause(err).
			WithContext(logfields.KeyImage, base)
		if code, ok := shell.ExitCode(err); ok {
			b = b.WithExitCode(code)
		}
		return res, b.Build()
	}
	p.logger.Info("Image built", logfields.Image(base), logfields.Version(req.Version))

	var pushErrs []error
	for _, rt := range registryTags {
		if err := p.push(ctx, rt); err != nil {
			res.Failed = append(res.Failed, rt.Tag)
			pushErrs = append(pushErrs, err)
			continue
		}
		res.Pushed = append(res.Pushed, rt.Tag)
	}
	if len(pushErrs) > 0 {
		return res, errors.ImageError("failed to push image to at least one registry").
			Fatal().
			WithCause(stderrors.Join(pushErrs...)).
			WithContext("failed", len(pushErrs)).
			WithExitCode(1).
			Build()
	}
	return res, nil
}

func (p *Packager) push(ctx context.Context, rt RegistryTag) error {
	p.printf("Pushing %s ...\n", rt.Tag)
	cmd := shell.Command{Name: "docker", Args: []string{"push", rt.Tag}, Dir: p.dir}
	err := p.policy.Do(ctx, func(ctx context.Context) error {
		return p.runner.Run(ctx, cmd)
	}, func(attempt int, err error) {
		p.recorder.IncPushRetry(rt.Registry)
		p.logger.Warn("Push failed; retrying",
			logfields.Image(rt.Tag),
			logfields.Registry(rt.Registry),
			logfields.Attempt(attempt),
			logfields.Error(err))
	})
	p.recorder.IncPushResult(rt.Registry, metrics.ResultFor(err, ctx.Err() != nil))
	if err != nil {
		p.logger.Error("Push failed", logfields.Image(rt.Tag), logfields.Registry(rt.Registry), logfields.Error(err))
		return fmt.Errorf("push %s: %w", rt.Tag, err)
	}
	return nil
}
