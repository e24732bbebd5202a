package commands

import (
	"git.home.luguber.info/inful/buildstamp/internal/build"
	"git.home.luguber.info/inful/buildstamp/internal/image"
	"git.home.luguber.info/inful/buildstamp/internal/metrics"
	"git.home.luguber.info/inful/buildstamp/internal/retry"
)

// imageBinDir is where the builder stage writes binaries; the runtime stage
// copies /src/bin into /bin.
const imageBinDir = "./bin"

// BuildImageCmd implements the 'build-image' command.
type BuildImageCmd struct {
	DryRun bool `name:"dry-run" help:"Print the Dockerfile and docker commands without running them"`
}

func (c *BuildImageCmd) Run(g *Global) error {
	p, err := g.Project()
	if err != nil {
		return err
	}
	cfg := g.Config.Image

	var steps []string
	for _, cmd := range p.Plan.Commands(build.ActionBuild, imageBinDir) {
		steps = append(steps, cmd.String())
	}
	dockerfile := image.Dockerfile{
		BuilderImage:  cfg.BuilderImage,
		RuntimeImage:  cfg.RuntimeImage,
		BuildCommands: steps,
	}
	if p.Plan.MainTarget != "" {
		dockerfile.Entrypoint = "/bin/" + p.Plan.MainTarget
	}

	name := p.Identifier
	if name == "" {
		name = p.Name
	}
	req := image.Request{
		Name:       name,
		Version:    p.Version.String(),
		Dockerfile: dockerfile,
		Registries: cfg.Registries,
		Env:        image.EnvFromOS(),
		DryRun:     c.DryRun,
	}

	_, err = image.NewPackager(g.Runner, p.Dir, g.Logger).
		WithRecorder(g.Recorder).
		WithRetryPolicy(retry.FromPushConfig(cfg.Push)).
		WithOutput(g.Stdout).
		Build(g.Context, req)
	g.Recorder.IncCommandResult("build-image", metrics.ResultFor(err, g.Context.Err() != nil))
	return err
}
