package api

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
)

// handleServerWS is the WebSocket flavor of handleStartServer. Output goes
// out as text frames; the session ends when the socket closes.
func (s *Server) handleServerWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, command := q.Get("projectId"), q.Get("command")
	if err := s.checkStart(id, command); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := s.deps.Supervisor.Start(ctx, id, command)
	if err != nil {
		writeError(w, err)
		return
	}
	defer stream.Close()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "project", id, "error", err)
		return
	}
	defer conn.Close()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	buf := make([]byte, streamBufSize)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			if werr := conn.WriteMessage(websocket.TextMessage, buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			break
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
}
