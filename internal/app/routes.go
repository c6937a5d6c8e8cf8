package app

import (
	"context"
	"net/http"

	"github.com/vancomm/minefield/internal/config"
	"github.com/vancomm/minefield/internal/handlers"
	"github.com/vancomm/minefield/internal/middleware"
	"github.com/vancomm/minefield/internal/server"
)

func (a *App) loadRoutes(ctx context.Context) {
	base := a.cfg.BasePath
	players := handlers.NewPlayers(a.logger, a.players, a.game, a.jwt, a.cookies)
	board := handlers.NewBoard(a.logger, a.game)
	ws := server.New(ctx, a.game, a.hub, a.ws, a.logger)

	a.router.HandleFunc("GET "+base+"/v1/status", players.Status)
	a.router.HandleFunc("POST "+base+"/v1/players", players.Register)
	a.router.HandleFunc("GET "+base+"/v1/players/online", players.Online)
	a.router.HandleFunc("GET "+base+"/v1/scores", board.Scores)
	a.router.HandleFunc("GET "+base+"/v1/board", board.View)
	a.router.HandleFunc("GET "+base+"/v1/connect", ws.Connect)
	if config.Development() {
		a.router.HandleFunc("POST "+base+"/v1/board/regenerate", board.Regenerate)
	}
}

func (a *App) handler() http.Handler {
	return middleware.Wrap(
		a.router,
		middleware.Auth(a.logger, a.jwt, a.cookies),
		middleware.Logging(a.logger),
		middleware.Cors(a.cfg.Origins),
	)
}
