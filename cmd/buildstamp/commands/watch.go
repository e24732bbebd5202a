package commands

import (
	"context"

	"git.home.luguber.info/inful/buildstamp/internal/build"
	"git.home.luguber.info/inful/buildstamp/internal/foundation/errors"
	"git.home.luguber.info/inful/buildstamp/internal/logfields"
	"git.home.luguber.info/inful/buildstamp/internal/workspace"
)

// WatchTestCmd implements the 'watch-test' command.
type WatchTestCmd struct {
	Args []string `arg:"" optional:"" passthrough:"" help:"Extra arguments for go test"`
}

func (c *WatchTestCmd) Run(g *Global) error {
	exec := g.Executor(g.Dir)
	w, err := g.watcher(string(build.ActionTest), false, func(ctx context.Context) error {
		return exec.Test(ctx, c.Args...)
	})
	if err != nil {
		return err
	}
	return w.Run(g.Context)
}

// WatchRunCmd implements the 'watch-run' command. The main target is compiled
// into a scratch directory and executed directly so a restart can stop it.
type WatchRunCmd struct {
	Args []string `arg:"" optional:"" passthrough:"" help:"Arguments passed to the program"`
}

func (c *WatchRunCmd) Run(g *Global) error {
	scratch := workspace.NewManager("", "buildstamp-run")
	if err := scratch.Create(); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create scratch directory").Build()
	}
	defer func() {
		if err := scratch.Cleanup(); err != nil {
			g.Logger.Warn("Failed to remove scratch directory", logfields.Path(scratch.GetPath()), logfields.Error(err))
		}
	}()

	exec := g.Executor(g.Dir)
	w, err := g.watcher(string(build.ActionRun), true, func(ctx context.Context) error {
		// Re-derive so the version tracks the edited tree.
		p, err := g.Resolve(ctx)
		if err != nil {
			return err
		}
		cmd, ok := p.Plan.Main(build.ActionBuild, scratch.GetPath())
		if !ok {
			return errNoMainTarget(g)
		}
		if err := exec.BuildAll(ctx, []build.Command{cmd}); err != nil {
			return err
		}
		return exec.Exec(ctx, cmd, c.Args...)
	})
	if err != nil {
		return err
	}
	return w.Run(g.Context)
}
