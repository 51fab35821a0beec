package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/qs3c/novel_go_server/internal/pkg/pubsub"
)

const writeWait = 5 * time.Second

// Hub 按用户维护进度推送连接，一个用户可有多个连接（多标签页、重连）
type Hub struct {
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	closed  bool
	log     *zap.Logger
}

type Client struct {
	UserID string
	Conn   *websocket.Conn
	mu     sync.Mutex // 写锁
}

// write 带超时写入，慢连接不阻塞其他推送
func (c *Client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		log:     log.Named("ws"),
	}
}

// Register 关闭后的 hub 直接断开新连接
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		client.Conn.Close()
		return
	}
	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]struct{})
	}
	h.clients[client.UserID][client] = struct{}{}
	n := len(h.clients[client.UserID])
	h.mu.Unlock()

	h.log.Debug("client connected", zap.String("user_id", client.UserID), zap.Int("user_conns", n))
}

func (h *Hub) Unregister(client *Client) {
	if h.remove(client) {
		h.log.Debug("client disconnected", zap.String("user_id", client.UserID))
	}
}

func (h *Hub) remove(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[client.UserID]
	if !ok {
		return false
	}
	if _, ok := conns[client]; !ok {
		return false
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
	return true
}

// PushProgress 将任务进度推给任务所属用户
func (h *Hub) PushProgress(msg *pubsub.ProgressMessage) error {
	if msg == nil || !h.IsOnline(msg.UserID) {
		return nil
	}
	return h.SendToUser(msg.UserID, &Message{Type: msg.Type, Data: msg})
}

// SendToUser 向用户的所有连接发送，写失败的连接被移除并关闭
func (h *Hub) SendToUser(userID string, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(data); err != nil {
			h.log.Warn("drop connection", zap.String("user_id", userID), zap.Error(err))
			h.remove(c)
			c.Conn.Close()
		}
	}
	return nil
}

// IsOnline 用户是否有连接
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// ConnectionCount 在线连接数
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}

// Close 停机时断开所有连接，之后的注册会被拒绝
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	all := h.clients
	h.clients = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	n := 0
	for _, conns := range all {
		for c := range conns {
			c.mu.Lock()
			_ = c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
				time.Now().Add(time.Second))
			c.mu.Unlock()
			c.Conn.Close()
			n++
		}
	}
	h.log.Info("hub closed", zap.Int("connections", n))
}
