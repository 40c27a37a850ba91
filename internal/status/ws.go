package status

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"stakeout/internal/engine"
)

const (
	wsReadBufferSize  = 1024
	wsWriteBufferSize = 1024
	wsWriteTimeout    = 10 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  wsReadBufferSize,
	WriteBufferSize: wsWriteBufferSize,
	// The server binds loopback or an operator-chosen address; origin
	// checks add nothing for a local tool.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleEventsWS streams engine events to the client as JSON messages.
// A slow or gone client misses its write deadline and is dropped.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if s.opts.Bus == nil {
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}
	replay := replayCount(r)

	events, cancel := s.opts.Bus.Subscribe()
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		s.opts.Logger.Warn("websocket upgrade failed", map[string]string{"error": err.Error()})
		return
	}
	defer cancel()
	defer conn.Close()

	if replay > 0 {
		history := s.opts.Bus.DumpHistory()
		if replay < len(history) {
			history = history[len(history)-replay:]
		}
		for _, ev := range history {
			if writeEvent(conn, ev) != nil {
				return
			}
		}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					conn.Close()
					return
				}
				if writeEvent(conn, ev) != nil {
					conn.Close()
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Reads are discarded; the loop only notices the client going away.
	for {
		if _, _, readErr := conn.ReadMessage(); readErr != nil {
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev engine.Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(ev)
}

// replayCount parses the optional replay query parameter, the number of
// retained events to send before live streaming begins.
func replayCount(r *http.Request) int {
	raw := r.URL.Query().Get("replay")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
