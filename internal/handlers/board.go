package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minefield/internal/game"
	"github.com/vancomm/minefield/internal/mines"
)

type Board struct {
	logger *logrus.Logger
	game   *game.Game
}

func NewBoard(logger *logrus.Logger, g *game.Game) *Board {
	return &Board{logger: logger, game: g}
}

func (h Board) View(w http.ResponseWriter, r *http.Request) {
	q, err := ParseViewQuery(r.URL.Query())
	if err != nil {
		sendErrorOrLog(w, h.logger, http.StatusBadRequest, err)
		return
	}
	sendJSONOrLog(w, h.logger, h.game.Engine().View(q.X, q.Y, q.Width, q.Height))
}

func (h Board) Scores(w http.ResponseWriter, r *http.Request) {
	q, err := ParseScoresQuery(r.URL.Query())
	if err != nil {
		sendErrorOrLog(w, h.logger, http.StatusBadRequest, err)
		return
	}
	sendJSONOrLog(w, h.logger, h.game.Engine().Leaderboard(q.Limit))
}

// Regenerate starts a new board generation. The new board is live even
// when saving it failed.
func (h Board) Regenerate(w http.ResponseWriter, r *http.Request) {
	err := h.game.Regenerate(r.Context())
	if err != nil && !errors.Is(err, mines.ErrPersistence) {
		internalError(w, h.logger, "unable to regenerate board", err)
		return
	}
	if err != nil {
		h.logger.WithError(err).Warn("regenerated board not persisted")
	}
	sendJSONOrLog(w, h.logger, h.game.Grid())
}
