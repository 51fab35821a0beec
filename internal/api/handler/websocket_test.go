package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qs3c/novel_go_server/internal/pkg/jwt"
	"github.com/qs3c/novel_go_server/internal/pkg/ws"
)

const testJWTSecret = "test-secret-key-for-websocket"

func setupWebSocketServer(t *testing.T, allowedOrigins []string) (*ws.Hub, string) {
	t.Helper()

	hub := ws.NewHub(zap.NewNop())
	h := NewWebSocketHandler(hub, testJWTSecret, allowedOrigins, zap.NewNop())

	r := gin.New()
	r.GET("/ws", h.Handle)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return hub, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func TestWebSocketHandler_RejectsMissingToken(t *testing.T) {
	_, url := setupWebSocketServer(t, nil)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketHandler_RejectsInvalidToken(t *testing.T) {
	_, url := setupWebSocketServer(t, nil)

	_, resp, err := websocket.DefaultDialer.Dial(url+"?token=bogus", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketHandler_RegistersAndPushes(t *testing.T) {
	hub, url := setupWebSocketServer(t, nil)
	token, err := jwt.GenerateToken("user-ws", testJWTSecret, 1)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return hub.IsOnline("user-ws") }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.SendToUser("user-ws", &ws.Message{Type: "task_progress", Data: map[string]int{"progress": 50}}))

	var msg map[string]interface{}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "task_progress", msg["type"])

	conn.Close()
	assert.Eventually(t, func() bool { return !hub.IsOnline("user-ws") }, time.Second, 10*time.Millisecond)
}

func TestWebSocketHandler_CheckOrigin(t *testing.T) {
	_, url := setupWebSocketServer(t, []string{"http://allowed.example"})
	token, err := jwt.GenerateToken("user-ws", testJWTSecret, 1)
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(url+"?token="+token, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "http://allowed.example")
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, header)
	require.NoError(t, err)
	conn.Close()
}
