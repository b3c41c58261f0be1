package websocket

import (
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts browsers connecting from pages served by this host
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// HandleWebSocket upgrades the request and keeps adminID subscribed until the page closes
func HandleWebSocket(c echo.Context, hub *Hub, adminID primitive.ObjectID) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		AdminID: adminID,
		Conn:    conn,
	}

	if !hub.add(client) {
		conn.Close()
		return nil
	}

	if err := client.WriteJSON(Notification{
		Type:    NotificationTypeConnected,
		Message: "Live sales connected",
	}); err != nil {
		c.Logger().Warnf("websocket welcome for admin %s failed: %v", adminID.Hex(), err)
	}

	// Reads only detect the page going away
	go func() {
		defer hub.remove(client)

		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	return nil
}
