package hostinterface

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) WriteLine(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, line)
}

// WebsocketHandler accepts bridges connecting over a websocket. Each text message
// is one command line; outbound commands are broadcast to every connection.
func (b *Bridge) WebsocketHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.logger.Warn("Websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		b.logger.Info("Bridge connected", "remote", r.RemoteAddr)
		if b.out != nil {
			detach := b.out.Attach(&wsSink{conn: conn})
			defer detach()
		}

		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					b.logger.Warn("Bridge connection lost", "error", err)
				}
				b.logger.Info("Bridge disconnected", "remote", r.RemoteAddr)
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			if err := b.HandleLine(string(data)); err != nil {
				b.logger.Debug("Command rejected", "error", err)
			}
		}
	})
}
