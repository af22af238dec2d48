package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"segrec/internal/cli"
	"segrec/internal/output"
)

func main() {
	if err := run(); err != nil {
		if !cli.IsReported(err) {
			output.NewFormatter(os.Stderr).Error(err.Error())
		}
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp(os.Stdout)
	app.startup()
	defer app.close()
	if app.bootErr != nil {
		return cli.Reported(app.bootErr)
	}

	deps := &cli.Dependencies{
		Backend: app,
		Config:  app.Config(),
	}

	return cli.NewRootCmd(deps).ExecuteContext(ctx)
}
