package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vancomm/minefield/internal/mines"
)

type Storage string

const (
	StoragePostgres Storage = "postgres"
	StorageSQLite   Storage = "sqlite"
	StorageFile     Storage = "file"
	StorageMemory   Storage = "memory"
)

type Game struct {
	Board       mines.Params
	Storage     Storage
	StoragePath string
	// PlayersPath is the player registry file of the file storage.
	PlayersPath string
}

// DefaultBaseline are the scores a brand new board starts from.
var DefaultBaseline = map[string]int{
	"Anton":   42,
	"Bob":     27,
	"Charlie": 35,
	"Diana":   19,
	"Eve":     31,
}

func NewGame() (*Game, error) {
	params := mines.DefaultParams()
	var err error
	if params.Width, err = lookupInt("BOARD_WIDTH", params.Width); err != nil {
		return nil, err
	}
	if params.Height, err = lookupInt("BOARD_HEIGHT", params.Height); err != nil {
		return nil, err
	}
	if params.Density, err = lookupFloat("MINE_DENSITY", params.Density); err != nil {
		return nil, err
	}
	if params.SaveTimeout, err = lookupDuration("SAVE_TIMEOUT", params.SaveTimeout); err != nil {
		return nil, err
	}

	params.Baseline = DefaultBaseline
	if s, ok := os.LookupEnv("BASELINE_SCORES"); ok {
		if params.Baseline, err = ParseScores(s); err != nil {
			return nil, err
		}
	}

	g := &Game{Board: params, Storage: StorageMemory}
	if s, ok := os.LookupEnv("STORAGE"); ok {
		g.Storage = Storage(strings.ToLower(s))
	}
	switch g.Storage {
	case StoragePostgres, StorageMemory:
	case StorageSQLite:
		g.StoragePath = lookupString("STORAGE_PATH", "minefield.sqlite")
	case StorageFile:
		g.StoragePath = lookupString("STORAGE_PATH", "minefield.json")
		g.PlayersPath = lookupString("PLAYERS_PATH", playersPath(g.StoragePath))
	default:
		return nil, fmt.Errorf("unknown STORAGE %q", g.Storage)
	}
	return g, nil
}

// ParseScores reads "name:score" pairs separated by commas.
func ParseScores(s string) (map[string]int, error) {
	scores := make(map[string]int)
	for _, item := range splitList(s) {
		name, value, found := strings.Cut(item, ":")
		if !found {
			return nil, fmt.Errorf("invalid score %q: missing ':'", item)
		}
		score, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid score %q: %w", item, err)
		}
		scores[strings.TrimSpace(name)] = score
	}
	return scores, nil
}

// playersPath puts the registry next to the board: minefield.json becomes
// minefield.players.json.
func playersPath(boardPath string) string {
	ext := filepath.Ext(boardPath)
	return strings.TrimSuffix(boardPath, ext) + ".players.json"
}

func lookupString(key, def string) string {
	if s, ok := os.LookupEnv(key); ok && s != "" {
		return s
	}
	return def
}
