package config

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
)

type WebSocket struct {
	Upgrader     websocket.Upgrader
	WriteTimeout time.Duration
	PongTimeout  time.Duration
	// SendBuffer is the number of outgoing messages queued per client
	// before the client is dropped as too slow.
	SendBuffer int
}

func NewWebSocket(origins []string) (*WebSocket, error) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(origins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, origin)
		},
	}

	ws := &WebSocket{
		Upgrader:     upgrader,
		WriteTimeout: 10 * time.Second,
		PongTimeout:  60 * time.Second,
	}
	var err error
	if ws.SendBuffer, err = lookupInt("WS_SEND_BUFFER", 256); err != nil {
		return nil, err
	}
	return ws, nil
}
