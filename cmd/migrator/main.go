package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/minefield/internal/config"
	"github.com/vancomm/minefield/internal/database"
)

func main() {
	envFile := flag.String("env", "", "load environment from `file`")
	down := flag.Bool("down", false, "roll back every migration")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			logrus.WithError(err).Fatal("failed to load env file")
		}
	}

	logger, err := config.NewLogger()
	if err != nil {
		logrus.WithError(err).Fatal("failed to configure logger")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pool, migrator, err := database.ConnectAndMigrate(ctx)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to db")
	}
	defer pool.Close()

	if *down {
		if err := migrator.Down(); err != nil {
			logger.WithError(err).Fatal("failed to roll back migrations")
		}
		logger.Info("migrations rolled back")
		return
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		logger.WithError(err).Error("failed to check migration version")
		return
	}
	logger.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("migration successful")
}
