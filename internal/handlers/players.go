package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minefield/internal/config"
	"github.com/vancomm/minefield/internal/game"
	"github.com/vancomm/minefield/internal/middleware"
	"github.com/vancomm/minefield/internal/repository"
)

type PlayerStore interface {
	CreatePlayer(ctx context.Context, params repository.CreatePlayerParams) (*repository.Player, error)
	FetchPlayer(ctx context.Context, username string) (*repository.Player, error)
	ListOnlinePlayers(ctx context.Context, since time.Time) ([]repository.Player, error)
}

var ErrPositionOutOfBounds = errors.New("position is outside the board")

type Players struct {
	logger  *logrus.Logger
	players PlayerStore
	game    *game.Game
	jwt     *config.JWT
	cookies *config.Cookies
	now     func() time.Time
}

func NewPlayers(
	logger *logrus.Logger,
	players PlayerStore,
	g *game.Game,
	jwt *config.JWT,
	cookies *config.Cookies,
) *Players {
	return &Players{
		logger:  logger,
		players: players,
		game:    g,
		jwt:     jwt,
		cookies: cookies,
		now:     time.Now,
	}
}

func (h Players) dto(p *repository.Player) PlayerDTO {
	return PlayerDTO{Player: *p, Score: h.game.Engine().ScoreOf(p.Username)}
}

// Register creates a player and hands back a token for it. The token is
// also stored in the auth cookies.
func (h Players) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		sendErrorOrLog(w, h.logger, http.StatusBadRequest, err)
		return
	}
	params, err := ParseCreatePlayer(r.Form)
	if err != nil {
		sendErrorOrLog(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if !h.game.Engine().IsValidPosition(params.X, params.Y) {
		sendErrorOrLog(w, h.logger, http.StatusBadRequest, ErrPositionOutOfBounds)
		return
	}

	player, err := h.players.CreatePlayer(r.Context(), params)
	if errors.Is(err, repository.ErrNameTaken) {
		sendErrorOrLog(w, h.logger, http.StatusConflict, err)
		return
	}
	if err != nil {
		internalError(w, h.logger, "unable to create player", err)
		return
	}

	token, err := h.jwt.Issue(player.Username)
	if err != nil {
		internalError(w, h.logger, "unable to sign token", err)
		return
	}
	if h.cookies != nil {
		if err := h.cookies.Refresh(w, token); err != nil {
			internalError(w, h.logger, "unable to set cookies", err)
			return
		}
	}

	h.logger.WithField("player", player.Username).Info("player registered")
	sendJSONOrLog(w, h.logger, RegisteredDTO{Player: h.dto(player), Token: token})
}

func (h Players) Online(w http.ResponseWriter, r *http.Request) {
	players, err := h.players.ListOnlinePlayers(r.Context(), h.now().Add(-repository.OnlineWindow))
	if err != nil {
		internalError(w, h.logger, "unable to list players", err)
		return
	}
	dtos := make([]PlayerDTO, len(players))
	for i := range players {
		dtos[i] = h.dto(&players[i])
	}
	sendJSONOrLog(w, h.logger, dtos)
}

// Status reports whether the request carries a valid token and what the
// current board looks like.
func (h Players) Status(w http.ResponseWriter, r *http.Request) {
	status := StatusDTO{Grid: h.game.Grid()}
	claims, ok := middleware.Claims(r.Context())
	if !ok {
		sendJSONOrLog(w, h.logger, status)
		return
	}
	player, err := h.players.FetchPlayer(r.Context(), claims.Username)
	if errors.Is(err, repository.ErrPlayerNotFound) {
		if h.cookies != nil {
			h.cookies.Clear(w)
		}
		sendJSONOrLog(w, h.logger, status)
		return
	}
	if err != nil {
		internalError(w, h.logger, "unable to fetch player", err)
		return
	}
	dto := h.dto(player)
	status.LoggedIn = true
	status.Player = &dto
	sendJSONOrLog(w, h.logger, status)
}
