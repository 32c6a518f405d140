package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/iamfafakkk/minimalFreeRadius/internal/app"
	"github.com/iamfafakkk/minimalFreeRadius/internal/config"
	"github.com/iamfafakkk/minimalFreeRadius/internal/logging"

	log "github.com/sirupsen/logrus"
)

// main runs the CLI entrypoint and exits on unrecoverable command errors.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if errRun := run(ctx, os.Args[1:]); errRun != nil {
		log.WithError(errRun).Error("command failed")
		os.Exit(1)
	}
}

// run parses flags, loads config, and starts the API server.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("freeradius-api", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file path (or env CONFIG_PATH)")
	createSchema := fs.Bool("create-schema", false, "create missing FreeRADIUS tables (development only)")
	schemaOnly := fs.Bool("schema-only", false, "create missing tables and exit")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}

	appCfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	closer, err := logging.Setup(appCfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	if *schemaOnly {
		return app.CreateSchema(appCfg)
	}
	if errValidate := appCfg.Validate(); errValidate != nil {
		return errValidate
	}
	return app.RunServer(ctx, appCfg, app.Options{CreateSchema: *createSchema})
}
