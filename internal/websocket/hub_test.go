package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/checklists/:id", WebSocketHandler(hub, nil, []string{"*"}, nil))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, id string) *gorillaWS.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/checklists/" + id
	conn, _, err := gorillaWS.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// TestHub_PublishToTopic 测试按主题推送
func TestHub_PublishToTopic(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	srv := newTestServer(t, hub)
	a := dial(t, srv, "cl-1")
	b := dial(t, srv, "cl-2")

	require.Eventually(t, func() bool { return hub.GetClientCount() == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.TopicClientCount("cl-1"))

	hub.Publish("cl-1", []byte(`{"type":"checklist.submitted"}`))

	a.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := a.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"checklist.submitted"}`, string(msg))

	b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = b.ReadMessage()
	assert.Error(t, err)
}

// TestHub_Unregister 测试断开后注销
func TestHub_Unregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	srv := newTestServer(t, hub)
	conn := dial(t, srv, "cl-1")
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

// TestNewUpgrader_CheckOrigin 测试来源校验
func TestNewUpgrader_CheckOrigin(t *testing.T) {
	up := NewUpgrader([]string{"https://app.example.com"})
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, up.CheckOrigin(req))

	req.Header.Set("Origin", "https://app.example.com")
	assert.True(t, up.CheckOrigin(req))
}
