package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 推送给前端的消息类型
const (
	MsgTypeInit        = "init"         // 连接建立时的车辆列表快照
	MsgTypeCarsChanged = "cars_changed" // 单次存储变更
	MsgTypeError       = "error"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
	sendBufferSize = 256
)

// Message 推送消息。Seq 为变更序号，客户端发现序号不连续时应重新拉取 /api/cars
type Message struct {
	Type string      `json:"type"`
	Seq  uint64      `json:"seq,omitempty"`
	Data interface{} `json:"data"`
}

// InitData 连接建立时下发的车辆列表
type InitData struct {
	Cars interface{} `json:"cars"`
}

// InitDataProvider 返回当前车辆列表
type InitDataProvider func() *InitData

// Client 一个浏览器连接，只接收推送
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub 管理所有连接，并把车辆变更推送给它们
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}

	outbox     chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	seq      atomic.Uint64
	snapshot InitDataProvider
}

// NewHub 创建 Hub，需调用 Run 后才开始分发
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger.With(zap.String("component", "ws")),
		clients:    make(map[*Client]struct{}),
		outbox:     make(chan []byte, sendBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// SetInitDataProvider 设置新连接的快照来源，需在 Run 之前调用
func (h *Hub) SetInitDataProvider(provider InitDataProvider) {
	h.snapshot = provider
}

// Run 分发循环，ctx 取消后断开所有连接
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.disconnectAll()
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c, "WebSocket client disconnected")
		case payload := <-h.outbox:
			h.fanOut(payload)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("WebSocket client connected", zap.Int("total_clients", total))
	h.sendSnapshot(c)
}

// remove 关闭发送队列，WritePump 随之退出
func (h *Hub) remove(c *Client, msg string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Info(msg, zap.Int("total_clients", total))
	}
}

func (h *Hub) disconnectAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// fanOut 发送给所有连接；队列满的连接被断开，重连后会收到新的快照
func (h *Hub) fanOut(payload []byte) {
	var slow []*Client

	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.remove(c, "Dropped slow WebSocket client")
	}
}

// sendSnapshot 下发当前车辆列表，携带最近一次变更的序号
func (h *Hub) sendSnapshot(c *Client) {
	if h.snapshot == nil {
		h.logger.Warn("No init data provider set")
		return
	}
	data := h.snapshot()
	if data == nil {
		return
	}

	payload, err := json.Marshal(Message{Type: MsgTypeInit, Seq: h.seq.Load(), Data: data})
	if err != nil {
		h.logger.Error("Failed to marshal init data", zap.Error(err))
		return
	}

	select {
	case c.send <- payload:
	default:
		h.logger.Warn("Failed to send init data, client buffer full")
	}
}

// Broadcast 把已编码的消息放入分发队列，队列已满时丢弃
func (h *Hub) Broadcast(payload []byte) {
	select {
	case h.outbox <- payload:
	default:
		h.logger.Warn("Broadcast queue full, message dropped")
	}
}

// BroadcastMessage 编码并广播消息
func (h *Hub) BroadcastMessage(msgType string, data interface{}) {
	h.broadcast(Message{Type: msgType, Data: data})
}

// BroadcastChange 广播一次存储变更，序号递增
func (h *Hub) BroadcastChange(change interface{}) {
	h.broadcast(Message{Type: MsgTypeCarsChanged, Seq: h.seq.Add(1), Data: change})
}

func (h *Hub) broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	h.Broadcast(payload)
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NewClient 包装已升级的连接
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// Register 加入 Hub；Hub 已停止时直接关闭发送队列
func (c *Client) Register() {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		close(c.send)
	}
}

// Unregister 离开 Hub
func (c *Client) Unregister() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// ReadPump 丢弃客户端消息，只用来处理 pong 和发现断线
func (c *Client) ReadPump() {
	defer func() {
		c.Unregister()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// WritePump 发送推送并定期 ping，发送队列关闭后发出 close 帧
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
