package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func dialAdmin(t *testing.T, hub *Hub, adminID primitive.ObjectID) *websocket.Conn {
	t.Helper()

	e := echo.New()
	e.GET("/live", func(c echo.Context) error {
		return HandleWebSocket(c, hub, adminID)
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/live", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var welcome Notification
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, NotificationTypeConnected, welcome.Type)
	return conn
}

func TestNotifySaleReachesOnlyThatAdmin(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	aliceConn := dialAdmin(t, hub, alice)
	bobConn := dialAdmin(t, hub, bob)

	assert.Equal(t, 1, hub.Connected(alice))
	require.NoError(t, hub.NotifySale(alice, map[string]interface{}{"title": "Pen", "quantity": 2}))

	var got Notification
	require.NoError(t, aliceConn.ReadJSON(&got))
	assert.Equal(t, NotificationTypeSale, got.Type)
	assert.Equal(t, "Pen", got.Data.(map[string]interface{})["title"])

	require.NoError(t, bobConn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	assert.Error(t, bobConn.ReadJSON(&got))
}

func TestNotifySaleWithoutConnection(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	assert.NoError(t, hub.NotifySale(primitive.NewObjectID(), nil))
}

func TestSameOrigin(t *testing.T) {
	req := httptest.NewRequest("GET", "/admin/sales/live", nil)
	req.Host = "shop.example.com"
	assert.True(t, sameOrigin(req))

	req.Header.Set("Origin", "https://shop.example.com")
	assert.True(t, sameOrigin(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, sameOrigin(req))
}
