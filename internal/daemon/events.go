package daemon

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"platter/internal/logging"
)

const (
	eventWriteTimeout = 10 * time.Second
	eventPingInterval = 30 * time.Second
)

var eventUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API binds to loopback by default; cross-origin browser access is
	// a deliberate local-tooling allowance.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleEvents upgrades to a websocket and pushes job state snapshots: the
// current state immediately, then every transition until the client
// disconnects or the daemon shuts down.
func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := eventUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	updates, unsubscribe := s.daemon.ctrl.Subscribe()
	defer unsubscribe()

	// Discard client frames but notice disconnects.
	readClosed := make(chan struct{})
	go func() {
		defer close(readClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(payload any) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
		return conn.WriteJSON(payload) == nil
	}
	if !send(s.daemon.ctrl.Status()) {
		return
	}

	ping := time.NewTicker(eventPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-readClosed:
			return
		case state, ok := <-updates:
			if !ok || !send(state) {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
			if conn.WriteMessage(websocket.PingMessage, nil) != nil {
				return
			}
		}
	}
}
