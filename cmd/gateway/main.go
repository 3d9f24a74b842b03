// Package main runs the HackCrew gateway.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/hackcrew/service_layer/internal/app/runtime"
	"github.com/hackcrew/service_layer/internal/logging"
)

func main() {
	envFile := flag.String("env", ".env", "optional env file loaded before the environment is read")
	flag.Parse()

	log := logging.NewDefault("gateway")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := runtime.NewApplication(ctx, *envFile)
	if err != nil {
		log.WithError(err).Fatal("failed to build gateway")
	}

	runErr := gw.Run(ctx)
	if runErr != nil {
		log.WithError(runErr).Error("gateway stopped unexpectedly")
	}

	log.Info("shutting down")
	if err := gw.Shutdown(context.Background()); err != nil {
		log.WithError(err).Error("shutdown incomplete")
		os.Exit(1)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
