package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minefield/internal/game"
	"github.com/vancomm/minefield/internal/repository"
)

func newTestApp(t *testing.T, storage string) *App {
	t.Helper()
	return newTestAppIn(t, storage, t.TempDir())
}

func newTestAppIn(t *testing.T, storage, dir string) *App {
	t.Helper()
	t.Setenv("STORAGE", storage)
	t.Setenv("STORAGE_PATH", filepath.Join(dir, "board"))
	t.Setenv("BOARD_WIDTH", "12")
	t.Setenv("BOARD_HEIGHT", "10")
	t.Setenv("AGENT_BOTS", "Alex,Eve")

	logger, _ := test.NewNullLogger()
	a, err := New(logger)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, a.openStorage(ctx))
	t.Cleanup(a.close)
	require.NoError(t, a.setupGame(ctx))
	a.loadRoutes(ctx)
	return a
}

func TestAppServesStatus(t *testing.T) {
	for _, storage := range []string{"memory", "file", "sqlite"} {
		t.Run(storage, func(t *testing.T) {
			t.Setenv("DEVELOPMENT", "1")
			a := newTestApp(t, storage)

			rec := httptest.NewRecorder()
			a.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var status struct {
				LoggedIn bool             `json:"logged_in"`
				Grid     game.GridPayload `json:"grid"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
			assert.False(t, status.LoggedIn)
			assert.Equal(t, 12, status.Grid.Width)
			assert.Equal(t, 10, status.Grid.Height)

			snap, err := a.store.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, status.Grid.Generation, snap.Generation)

			assert.Len(t, a.game.Agents().Tracked(), 2)
		})
	}
}

func TestAppRegenerateIsDevelopmentOnly(t *testing.T) {
	for dev, code := range map[string]int{
		"1": http.StatusOK,
		"0": http.StatusNotFound,
	} {
		t.Run("DEVELOPMENT="+dev, func(t *testing.T) {
			t.Setenv("DEVELOPMENT", dev)
			t.Setenv("JWT_SECRET", "secret")
			a := newTestApp(t, "memory")

			rec := httptest.NewRecorder()
			a.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/board/regenerate", nil))
			assert.Equal(t, code, rec.Code)
		})
	}
}

func TestAppKeepsPlayersAcrossRestarts(t *testing.T) {
	for _, storage := range []string{"file", "sqlite"} {
		t.Run(storage, func(t *testing.T) {
			t.Setenv("DEVELOPMENT", "1")
			dir := t.TempDir()
			ctx := context.Background()

			first := newTestAppIn(t, storage, dir)
			_, err := first.players.CreatePlayer(ctx, repository.CreatePlayerParams{Username: "Hana", X: 3, Y: 4})
			require.NoError(t, err)
			first.close()

			second := newTestAppIn(t, storage, dir)
			p, err := second.players.FetchPlayer(ctx, "Hana")
			require.NoError(t, err)
			assert.Equal(t, 3, p.X)
			assert.Equal(t, 4, p.Y)

			_, err = second.players.FetchPlayer(ctx, "Alex")
			assert.NoError(t, err)
		})
	}
}
