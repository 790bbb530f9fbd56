package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mobirithm/appkit/internal/buildinfo"
	"github.com/mobirithm/appkit/internal/client/cli"
	"github.com/mobirithm/appkit/internal/client/config"
	"github.com/mobirithm/appkit/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "app stopped with error", "error", err)
	}

}
