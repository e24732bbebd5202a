package commands

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/buildstamp/internal/foundation/errors"
	"git.home.luguber.info/inful/buildstamp/internal/logfields"
	"git.home.luguber.info/inful/buildstamp/internal/releasenotes"
)

// ReleaseNotesCmd implements the 'release-notes' command.
type ReleaseNotesCmd struct {
	Release   string `arg:"" optional:"" name:"version" help:"Version to extract (defaults to the derived version)"`
	Prefix    string `help:"Title written before the version, e.g. the project name"`
	Input     string `help:"Changelog file" default:"CHANGELOG.md"`
	Checksums string `help:"Checksums file appended in a fenced block"`
	Output    string `short:"o" help:"Write the notes to this file instead of stdout"`
}

func (r *ReleaseNotesCmd) Run(g *Global) error {
	version := r.Release
	if version == "" {
		p, err := g.Project()
		if err != nil {
			return err
		}
		version = p.Version.String()
	}

	notes, err := releasenotes.Generate(version, releasenotes.Options{
		Prefix:    r.Prefix,
		Input:     g.path(r.Input),
		Checksums: g.path(r.Checksums),
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to generate release notes").
			WithContext(logfields.KeyVersion, version).
			Build()
	}

	if r.Output == "" {
		_, err = fmt.Fprint(g.Stdout, notes)
		return err
	}
	out := g.path(r.Output)
	if err := os.WriteFile(out, []byte(notes), 0o644); err != nil { // #nosec G306 -- release notes are published
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write release notes").
			WithContext(logfields.KeyPath, out).
			Build()
	}
	g.Logger.Info("Release notes written", logfields.Path(out), logfields.Version(version))
	return nil
}
