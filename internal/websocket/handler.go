package websocket

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/mautops/deferral-gin/internal/auth"
	"github.com/sirupsen/logrus"
)

// TokenValidator 校验查询参数中的 token
type TokenValidator interface {
	ValidateToken(token string) (*auth.KeycloakClaims, error)
}

// NewUpgrader 按允许的来源创建 upgrader,"*" 表示不限制
func NewUpgrader(allowedOrigins []string) gorillaWS.Upgrader {
	return gorillaWS.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WebSocketHandler 订阅某个清单的实时事件
// validator 为 nil 时使用上游中间件写入的 user_id
func WebSocketHandler(hub *Hub, validator TokenValidator, allowedOrigins []string, logger *logrus.Logger) gin.HandlerFunc {
	upgrader := NewUpgrader(allowedOrigins)
	return func(c *gin.Context) {
		topic := c.Param("id")
		if topic == "" {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "missing checklist id"})
			return
		}

		userID := c.GetString("user_id")
		if validator != nil {
			token := c.Query("token")
			if token == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "missing token"})
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "invalid token"})
				return
			}
			userID = claims.Sub
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade 已经写入了错误响应
			return
		}

		client := NewClient(uuid.New().String(), userID, topic, hub, conn, logger)
		hub.Register <- client

		go client.ReadPump()
		go client.WritePump()
	}
}
