package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/deferral-gin/internal/websocket"
)

const sseHeartbeat = 30 * time.Second

// SSEBroker 按主题(清单 ID)分发事件给 SSE 订阅者
type SSEBroker struct {
	mu     sync.RWMutex
	topics map[string]map[chan []byte]struct{}
}

// NewSSEBroker 创建 SSE 分发器
func NewSSEBroker() *SSEBroker {
	return &SSEBroker{topics: make(map[string]map[chan []byte]struct{})}
}

// Subscribe 订阅主题,返回的 cancel 必须调用
func (b *SSEBroker) Subscribe(topic string) (<-chan []byte, func()) {
	ch := make(chan []byte, 32)
	b.mu.Lock()
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[chan []byte]struct{})
		b.topics[topic] = subs
	}
	subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(subs, ch)
			if len(subs) == 0 {
				delete(b.topics, topic)
			}
			b.mu.Unlock()
		})
	}
}

// Publish 推送消息,订阅者缓冲区满时丢弃该条
func (b *SSEBroker) Publish(topic string, payload []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.topics[topic] {
		select {
		case ch <- payload:
		default:
		}
	}
}

// Subscribers 主题的订阅数
func (b *SSEBroker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// SSEHandler 订阅某个清单的实时事件
// validator 为 nil 时使用上游认证中间件写入的 user_id
func SSEHandler(broker *SSEBroker, validator websocket.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if validator != nil {
			token := c.Query("token")
			if token == "" {
				Error(c, http.StatusUnauthorized, T(c, "error.unauthorized"), "missing token")
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				Error(c, http.StatusUnauthorized, T(c, "error.unauthorized"), "invalid token")
				return
			}
			userID = claims.Sub
		}

		checklistID := c.Param("id")
		if checklistID == "" {
			Error(c, http.StatusBadRequest, T(c, "error.bad_request"), "checklist id required")
			return
		}

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			Error(c, http.StatusInternalServerError, T(c, "error.internal_error"), "streaming not supported")
			return
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no") // 禁用 Nginx 缓冲

		events, cancel := broker.Subscribe(checklistID)
		defer cancel()

		if err := writeSSE(c.Writer, "connected", map[string]interface{}{
			"checklistId": checklistID,
			"userId":      userID,
			"time":        time.Now().Unix(),
		}); err != nil {
			return
		}
		flusher.Flush()

		ticker := time.NewTicker(sseHeartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-c.Request.Context().Done():
				return
			case <-ticker.C:
				if _, err := io.WriteString(c.Writer, ": heartbeat\n\n"); err != nil {
					return
				}
			case msg := <-events:
				if _, err := fmt.Fprintf(c.Writer, "event: checklist\ndata: %s\n\n", msg); err != nil {
					return
				}
			}
			flusher.Flush()
		}
	}
}

// writeSSE 写一条 SSE 消息: event: <name>\ndata: <json>\n\n
func writeSSE(w io.Writer, event string, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, body)
	return err
}
