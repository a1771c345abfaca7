package websocket

import (
	"sync"
)

// Message 发往某个主题的消息
type Message struct {
	Topic   string
	Payload []byte
}

// Hub 管理所有 WebSocket 连接,按主题(清单 ID)分组
type Hub struct {
	// 已注册的客户端,按主题分组
	topics map[string]map[*Client]bool

	// 广播消息到某个主题
	Broadcast chan Message

	// 注册新客户端
	Register chan *Client

	// 注销客户端
	Unregister chan *Client

	stop chan struct{}

	// 互斥锁，保护 topics map
	mu sync.RWMutex
}

// NewHub 创建新的 Hub
func NewHub() *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]bool),
		Broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

// Run 运行 Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			clients, ok := h.topics[client.Topic]
			if !ok {
				clients = make(map[*Client]bool)
				h.topics[client.Topic] = clients
			}
			clients[client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case msg := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.topics[msg.Topic] {
				select {
				case client.Send <- msg.Payload:
				default:
					h.remove(client)
				}
			}
			h.mu.Unlock()

		case <-h.stop:
			h.mu.Lock()
			for _, clients := range h.topics {
				for client := range clients {
					h.remove(client)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// remove 需持有写锁
func (h *Hub) remove(client *Client) {
	clients, ok := h.topics[client.Topic]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client.Send)
	}
	if len(clients) == 0 {
		delete(h.topics, client.Topic)
	}
}

// Publish 向主题发布消息,不阻塞调用方
func (h *Hub) Publish(topic string, payload []byte) {
	select {
	case h.Broadcast <- Message{Topic: topic, Payload: payload}:
	default:
	}
}

// Stop 停止 Hub 并关闭所有客户端
func (h *Hub) Stop() {
	close(h.stop)
}

// HasClient 检查客户端是否存在
func (h *Hub) HasClient(clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.topics {
		for client := range clients {
			if client.ID == clientID {
				return true
			}
		}
	}
	return false
}

// GetClientCount 获取客户端数量
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, clients := range h.topics {
		n += len(clients)
	}
	return n
}

// TopicClientCount 获取某个主题的订阅数
func (h *Hub) TopicClientCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
