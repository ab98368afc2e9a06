package ws

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"inkcopilot/internal/checkout"
	"inkcopilot/internal/middleware"
)

const (
	pingPeriod = 30 * time.Second
	pongWait   = 60 * time.Second
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin only accepts pages served from this host; the socket is cookie-authenticated.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// UpgradeCheckoutWS streams the view of one checkout session to its page.
// When the last page on a session goes away the flow is closed.
func UpgradeCheckoutWS(registry *checkout.Registry, hub *Hub, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middleware.GetSession(c)
		if sess == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		owner := sess.Owner()
		flow, err := registry.Get(owner, c.Query("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "checkout session not found"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := NewClient(flow.ID(), owner)
		hub.Register(client)
		data, _ := json.Marshal(NewMessage(flow.Snapshot()))
		client.trySend(data)

		go writePump(client, conn)
		readPump(conn)

		if last := client.Close(); last {
			if err := registry.Close(owner, flow.ID()); err == nil {
				logger.Debug().Str("checkout_id", flow.ID()).Msg("[ws] page left, checkout closed")
			}
		}
	}
}

// writePump copies messages from client.Send to the connection.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and returns when the connection drops.
func readPump(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
