package api

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket handles GET /ws: the extension's command channel.
// Commands published to the hub are forwarded to the socket; inbound
// messages are acknowledgments and are drained until the peer goes away.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] failed to upgrade connection: %v", err)
		return
	}
	defer conn.Close()

	subID, commands := h.hub.Subscribe()
	defer h.hub.Unsubscribe(subID)

	log.Printf("[ws] extension connected (%s)", subID[:8])

	// Forward hub commands to the socket
	done := make(chan struct{})
	go func() {
		defer close(done)
		for cmd := range commands {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(cmd)); err != nil {
				return
			}
		}
	}()

	// Drain acknowledgments until the peer disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error: %v", err)
			}
			break
		}
	}

	h.hub.Unsubscribe(subID)
	<-done

	log.Printf("[ws] extension disconnected (%s)", subID[:8])
}
