package api_test

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/deferral-gin/internal/api"
	"github.com/mautops/deferral-gin/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*auth.KeycloakClaims, error) {
	if token != "good" {
		return nil, errors.New("invalid token")
	}
	return &auth.KeycloakClaims{Sub: "checker-1"}, nil
}

// TestSSEBroker_PublishSubscribe 测试按主题分发
func TestSSEBroker_PublishSubscribe(t *testing.T) {
	broker := api.NewSSEBroker()
	events, cancel := broker.Subscribe("cl-1")
	other, cancelOther := broker.Subscribe("cl-2")
	defer cancelOther()

	assert.Equal(t, 1, broker.Subscribers("cl-1"))
	broker.Publish("cl-1", []byte(`{"type":"checklist.submitted"}`))

	select {
	case msg := <-events:
		assert.JSONEq(t, `{"type":"checklist.submitted"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	select {
	case <-other:
		t.Fatal("event delivered to wrong topic")
	default:
	}

	cancel()
	cancel()
	assert.Equal(t, 0, broker.Subscribers("cl-1"))
}

// TestSSEHandler_RequiresToken 测试配置校验器时需要 token
func TestSSEHandler_RequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/sse/checklists/:id", api.SSEHandler(api.NewSSEBroker(), stubValidator{}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sse/checklists/cl-1", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sse/checklists/cl-1?token=bad", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestSSEHandler_Stream 测试连接消息与事件推送
func TestSSEHandler_Stream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	broker := api.NewSSEBroker()
	router := gin.New()
	router.GET("/sse/checklists/:id", api.SSEHandler(broker, stubValidator{}))

	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/sse/checklists/cl-1?token=good", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() string {
		var lines []string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			if line == "" {
				return strings.Join(lines, "\n")
			}
			lines = append(lines, line)
		}
	}

	connected := readEvent()
	assert.Contains(t, connected, "event: connected")
	assert.Contains(t, connected, `"userId":"checker-1"`)

	require.Eventually(t, func() bool { return broker.Subscribers("cl-1") == 1 }, time.Second, 10*time.Millisecond)
	broker.Publish("cl-1", []byte(`{"type":"document.decided"}`))

	evt := readEvent()
	assert.Equal(t, "event: checklist\ndata: {\"type\":\"document.decided\"}", evt)
}
