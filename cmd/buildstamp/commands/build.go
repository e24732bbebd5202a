package commands

import (
	"log/slog"
	"slices"

	"git.home.luguber.info/inful/buildstamp/internal/build"
	"git.home.luguber.info/inful/buildstamp/internal/foundation/errors"
	"git.home.luguber.info/inful/buildstamp/internal/logfields"
	"git.home.luguber.info/inful/buildstamp/internal/workspace"
)

// TestCmd implements the 'test' command.
type TestCmd struct {
	Args []string `arg:"" optional:"" passthrough:"" help:"Extra arguments for go test"`
}

func (t *TestCmd) Run(g *Global) error {
	return g.Executor(g.Dir).Test(g.Context, t.Args...)
}

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Targets []string `arg:"" optional:"" help:"Targets to build (all when omitted)"`
}

func (b *BuildCmd) Run(g *Global) error {
	p, err := g.Project()
	if err != nil {
		return err
	}

	cmds := p.Plan.Commands(build.ActionBuild, g.Config.BinDir)
	if len(b.Targets) > 0 {
		for _, name := range b.Targets {
			if _, ok := p.Plan.Targets[name]; !ok {
				return errors.ValidationError("unknown target").
					WithContext(logfields.KeyTarget, name).
					WithContext("available", p.Plan.Targets.Names()).
					Build()
			}
		}
		cmds = slices.DeleteFunc(cmds, func(c build.Command) bool {
			return !slices.Contains(b.Targets, c.Target)
		})
	}
	if len(cmds) == 0 {
		g.Logger.Warn("No build targets found", slog.String("pattern", g.Config.Targets.Pattern))
		return nil
	}

	bin := workspace.NewBinDir(p.Dir, g.Config.BinDir)
	if err := bin.Create(); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create bin directory").
			WithContext(logfields.KeyPath, bin.GetPath()).
			Build()
	}
	return g.Executor(p.Dir).BuildAll(g.Context, cmds)
}

// RunCmd implements the 'run' command.
type RunCmd struct {
	Args []string `arg:"" optional:"" passthrough:"" help:"Arguments passed to the program"`
}

func (r *RunCmd) Run(g *Global) error {
	p, err := g.Project()
	if err != nil {
		return err
	}
	cmd, ok := p.Plan.Main(build.ActionRun, g.Config.BinDir)
	if !ok {
		return errNoMainTarget(g)
	}
	return g.Executor(p.Dir).Run(g.Context, cmd, r.Args...)
}

func errNoMainTarget(g *Global) error {
	return errors.ValidationError("no target to run").
		WithContext("pattern", g.Config.Targets.Pattern).
		Build()
}

// CleanCmd implements the 'clean' command.
type CleanCmd struct{}

func (c *CleanCmd) Run(g *Global) error {
	bin := workspace.NewBinDir(g.Dir, g.Config.BinDir)
	if err := bin.Remove(); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to remove bin directory").
			WithContext(logfields.KeyPath, bin.GetPath()).
			Build()
	}
	g.Logger.Info("Removed bin directory", logfields.Path(bin.GetPath()))
	return nil
}
