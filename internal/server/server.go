package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/minefield/internal/config"
	"github.com/vancomm/minefield/internal/game"
	"github.com/vancomm/minefield/internal/middleware"
	"github.com/vancomm/minefield/internal/repository"
)

// Server upgrades authenticated requests to websocket game sessions.
type Server struct {
	game *game.Game
	hub  *Hub
	ws   *config.WebSocket
	log  *logrus.Logger
	ctx  context.Context
}

// New returns a server whose sessions run under ctx, so cancelling it
// stops command execution of every connection.
func New(ctx context.Context, g *game.Game, hub *Hub, ws *config.WebSocket, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = Log
	}
	return &Server{game: g, hub: hub, ws: ws, log: logger, ctx: ctx}
}

func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.Claims(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	p, err := s.game.Join(r.Context(), claims.Username)
	if errors.Is(err, repository.ErrPlayerNotFound) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if err != nil {
		s.log.WithError(err).Error("unable to join player")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	conn, err := s.ws.Upgrader.Upgrade(w, r, nil) // headers sent here
	if err != nil {
		s.log.WithError(err).Error("unable to upgrade")
		return
	}

	c := &Client{
		hub:          s.hub,
		conn:         conn,
		send:         make(chan []byte, max(s.ws.SendBuffer, 1)),
		player:       p.Username,
		log:          s.log.WithField("player", p.Username),
		writeTimeout: s.ws.WriteTimeout,
		pongTimeout:  s.ws.PongTimeout,
	}
	s.hub.register(c)
	c.log.Debug("established WS connection")
	go c.writePump()
	c.reply(game.Event{Type: game.EventGrid, Payload: s.game.Grid()})

	err = c.readPump(s.ctx, s.game)
	s.hub.unregister(c)
	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.log.WithError(err).Warn("error in ws loop")
		return
	}
	c.log.Debug("closed WS connection")
}
