package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/buildstamp/cmd/buildstamp/commands"
	"git.home.luguber.info/inful/buildstamp/internal/foundation/errors"
	"git.home.luguber.info/inful/buildstamp/internal/logfields"
	"git.home.luguber.info/inful/buildstamp/pkg/buildinfo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	global := &commands.Global{Context: ctx}
	var cli commands.CLI
	parser := kong.Must(&cli,
		kong.Name("buildstamp"),
		kong.Description("Derive version metadata from git and build, run, test and package Go targets stamped with it."),
		kong.UsageOnError(),
		kong.Vars{"version": buildinfo.Summary()},
		kong.Bind(global),
	)

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		stop()
		if errors.IsClassified(err) {
			errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
		}
		parser.FatalIfErrorf(err)
	}

	err = kctx.Run(&cli)
	if ferr := global.Finish(); ferr != nil {
		slog.Warn("Failed to write metrics file", logfields.Error(ferr))
	}
	stop()
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
