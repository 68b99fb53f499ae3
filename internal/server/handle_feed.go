package server

import (
	"log/slog"
	"net/http"

	"nhooyr.io/websocket"
)

// handleFeed streams live session events over a websocket. It pushes the
// same payloads as the SSE stream; clients that need bidirectional
// transports or older proxies use this instead.
func handleFeed(broker *Broker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := liveSession(r)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ch := broker.Subscribe(l.ID)
		defer broker.Unsubscribe(l.ID, ch)

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case data := <-ch:
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			}
		}
	}
}
