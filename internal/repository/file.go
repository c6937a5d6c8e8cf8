package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/vancomm/minefield/internal/mines"
)

// FileStore keeps the board as a JSON document on disk. Writes go to a
// temporary file that is renamed over the old one.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (*mines.Snapshot, error) {
	doc, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, mines.ErrNoSnapshot
	} else if err != nil {
		return nil, err
	}
	return mines.DecodeSnapshot(doc)
}

func (s *FileStore) Save(ctx context.Context, snap *mines.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := snap.Bytes()
	if err != nil {
		return err
	}
	return writeFile(s.path, doc)
}

// writeFile replaces path with doc through a temporary file in the same
// directory.
func writeFile(path string, doc []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// NewFilePlayers returns a registry that is read from the JSON document at
// path and rewritten after every change.
func NewFilePlayers(path string) (*MemoryPlayers, error) {
	m := NewMemoryPlayers()
	doc, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		var players []Player
		if err := json.Unmarshal(doc, &players); err != nil {
			return nil, fmt.Errorf("malformed player file %s: %w", path, err)
		}
		for _, p := range players {
			m.players[p.Username] = p
		}
	}
	m.persist = func(ctx context.Context, players map[string]Player) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		list := make([]Player, 0, len(players))
		for _, name := range slices.Sorted(maps.Keys(players)) {
			list = append(list, players[name])
		}
		doc, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return err
		}
		return writeFile(path, doc)
	}
	return m, nil
}
