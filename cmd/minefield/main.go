package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/minefield/internal/app"
	"github.com/vancomm/minefield/internal/config"
)

func main() {
	envFile := flag.String("env", "", "load environment from `file` before reading config")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			logrus.WithError(err).Fatal("unable to load env file")
		}
	}

	logger, err := config.NewLogger()
	if err != nil {
		logrus.WithError(err).Fatal("unable to configure logging")
	}
	logger.WithField("development", config.Development()).Info("starting up")

	mainCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	a, err := app.New(logger)
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if err := a.Start(mainCtx); err != nil {
		logger.WithError(err).Error("exit reason")
		os.Exit(1)
	}
	logger.Info("shut down")
}
