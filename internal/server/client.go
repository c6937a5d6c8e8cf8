package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/minefield/internal/game"
	"github.com/vancomm/minefield/internal/mines"
)

const maxMessageSize = 4096

// Client is one websocket connection of a player.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	player string
	log    *logrus.Entry

	writeTimeout time.Duration
	pongTimeout  time.Duration
}

// reply queues a message for this client only.
func (c *Client) reply(e game.Event) {
	msg, err := json.Marshal(e)
	if err != nil {
		c.log.WithError(err).Error("unable to encode reply")
		return
	}
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		c.log.Warn("reply dropped, send buffer full")
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.WithError(err).Debug("write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump executes the newline separated commands the client sends until
// the connection breaks.
func (c *Client) readPump(ctx context.Context, g *game.Game) error {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
	})

	for {
		mt, buf, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		if mt != websocket.TextMessage {
			continue
		}
		c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))

		for _, line := range strings.Split(string(buf), "\n") {
			line = strings.TrimSpace(line)
			resp, err := execute(ctx, g, c.player, line)
			switch {
			case err == nil:
			case errors.Is(err, mines.ErrPersistence):
				c.log.WithError(err).Warn("command not persisted")
			default:
				c.log.WithError(err).WithField("command", line).Debug("command rejected")
				c.reply(errorEvent(err))
			}
			if resp != nil {
				c.reply(*resp)
			}
		}
	}
}
