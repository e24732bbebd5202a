package commands

import (
	"fmt"
	"io"

	"git.home.luguber.info/inful/buildstamp/internal/config"
	"git.home.luguber.info/inful/buildstamp/internal/project"
)

// InfoCmd implements the 'info' command.
type InfoCmd struct{}

func (i *InfoCmd) Run(g *Global) error {
	p, err := g.Project()
	if err != nil {
		return err
	}
	writeInfo(g.Stdout, p)

	if g.Verbose {
		out, err := config.Marshal(g.Config)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.Stdout, "\nConfiguration:\n%s", out)
	}
	return nil
}

func writeInfo(w io.Writer, p *project.Project) {
	mainTarget := "(none)"
	if p.Plan.MainTarget != "" {
		mainTarget = p.Binary(p.Plan.MainTarget)
	}
	_, _ = fmt.Fprintf(w, "Module:      %s\n", p.Module)
	_, _ = fmt.Fprintf(w, "Version:     %s\n", p.Version)
	_, _ = fmt.Fprintf(w, "Source:      %s\n", p.SourceURL())
	_, _ = fmt.Fprintf(w, "Image name:  %s\n", p.Identifier)
	_, _ = fmt.Fprintf(w, "Main target: %s\n", mainTarget)

	if extra := p.AdditionalTargets(); len(extra) > 0 {
		_, _ = fmt.Fprintln(w, "Additional targets:")
		for _, name := range extra {
			_, _ = fmt.Fprintf(w, "  - %s\n", p.Binary(name))
		}
	}
}

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (v *VersionCmd) Run(g *Global) error {
	p, err := g.Project()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(g.Stdout, p.Version)
	return err
}
