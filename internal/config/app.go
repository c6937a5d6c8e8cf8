package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type App struct {
	Port     string
	BasePath string
	// Origins lists the origins allowed by CORS and the websocket upgrader.
	// Empty means any origin.
	Origins []string
}

func NewApp() (*App, error) {
	port, ok := os.LookupEnv("APP_PORT")
	if !ok {
		port = "8080"
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return nil, fmt.Errorf("invalid APP_PORT %q: %w", port, err)
	}
	return &App{
		Port:     port,
		BasePath: strings.TrimSuffix(os.Getenv("APP_BASE_PATH"), "/"),
		Origins:  splitList(os.Getenv("CORS_ORIGINS")),
	}, nil
}

func (a App) Addr() string {
	return ":" + a.Port
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func lookupInt(key string, def int) (int, error) {
	s, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func lookupFloat(key string, def float64) (float64, error) {
	s, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func lookupDuration(key string, def time.Duration) (time.Duration, error) {
	s, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
