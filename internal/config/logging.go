package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"
)

// NewLogger builds the process logger: colored text in development, JSON
// otherwise, plus a rotated JSON file when LOG_FILE is set.
func NewLogger() (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level := logrus.InfoLevel
	if Development() {
		level = logrus.DebugLevel
		logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   true,
			FullTimestamp: true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if s, ok := os.LookupEnv("LOG_LEVEL"); ok {
		var err error
		if level, err = logrus.ParseLevel(s); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
	}
	logger.SetLevel(level)

	if filename, ok := os.LookupEnv("LOG_FILE"); ok && filename != "" {
		maxSize, err := lookupInt("LOG_FILE_MAX_SIZE", 50)
		if err != nil {
			return nil, err
		}
		maxBackups, err := lookupInt("LOG_FILE_MAX_BACKUPS", 3)
		if err != nil {
			return nil, err
		}
		maxAge, err := lookupInt("LOG_FILE_MAX_AGE", 28)
		if err != nil {
			return nil, err
		}
		hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
			Filename:   filename,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			MaxAge:     maxAge,
			Level:      level,
			Formatter:  &logrus.JSONFormatter{},
		})
		if err != nil {
			return nil, fmt.Errorf("unable to open log file: %w", err)
		}
		logger.AddHook(hook)
	}

	return logger, nil
}
