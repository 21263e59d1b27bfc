package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client 表示一个 WebSocket 客户端连接
type Client struct {
	hub    *Hub            // 所属的 Hub
	conn   *websocket.Conn // WebSocket 连接
	send   chan []byte     // 发送消息的通道
	userID string          // 学生ID

	mu         sync.Mutex         // 保护 cancelTurn
	cancelTurn context.CancelFunc // 取消当前回答轮次
}

// 连接配置常量
const (
	// 写超时时间
	writeWait = 10 * time.Second

	// 等待 Pong 响应的超时时间
	pongWait = 60 * time.Second

	// 发送 Ping 的间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小（64KB，纯文本提问足够）
	maxMessageSize = 64 * 1024
)

// NewClient 创建新的客户端
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256), // 缓冲区大小
		userID: userID,
	}
}

// newTurnContext 为新一轮回答创建上下文
// 同一连接上后发的提问会取消前一轮还在输出的回答
func (c *Client) newTurnContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelTurn != nil {
		c.cancelTurn()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelTurn = cancel
	return ctx
}

// cancelPendingTurn 取消当前还在输出的回答
func (c *Client) cancelPendingTurn() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelTurn != nil {
		c.cancelTurn()
		c.cancelTurn = nil
	}
}

// ReadPump 读取 WebSocket 消息的 goroutine
// 每个客户端连接启动一个 ReadPump
// 负责从 WebSocket 读取消息并分发处理
func (c *Client) ReadPump() {
	// 确保退出时清理资源
	defer func() {
		c.cancelPendingTurn()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	// 设置读取限制
	c.conn.SetReadLimit(maxMessageSize)

	// 设置读取超时
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	// 设置 Pong 处理函数
	// 每次收到 Pong，重置读取超时
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// 循环读取消息
	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			// 检查是否是正常关闭
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		// 解析消息
		var msg Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Printf("Failed to parse message: %v", err)
			continue
		}

		// 处理消息
		c.handleMessage(&msg)
	}
}

// WritePump 写入 WebSocket 消息的 goroutine
// 每个客户端连接启动一个 WritePump
// 负责从 send 通道读取消息并写入 WebSocket
func (c *Client) WritePump() {
	// 创建 Ping 定时器
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			// 设置写超时
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				// send 通道已关闭
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// 获取 Writer
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			// 写入消息
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			// 发送 Ping
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 向客户端发送消息
func (c *Client) SendMessage(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	// 非阻塞发送
	select {
	case c.send <- data:
		return nil
	default:
		// 如果通道已满，说明客户端处理不过来
		log.Printf("Client send buffer full, dropping message")
		return nil
	}
}

// handleMessage 处理接收到的消息
func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case TypeHeartbeat:
		// 回复 Pong
		c.SendMessage(NewMessage(TypePong, nil))

	case TypeUserMessage:
		// 学生提问：解析后交给 Hub 编排回答
		var payload UserMessagePayload
		if err := decodePayload(msg.Payload, &payload); err != nil {
			log.Printf("Failed to parse user message payload: %v", err)
			c.SendMessage(NewMessage(TypeError, ErrorPayload{Code: 400, Message: "消息格式错误"}))
			return
		}
		c.hub.handleUserMessage(c, &payload, msg.MessageID)

	case TypeChatCancel:
		// 学生主动打断当前回答
		c.cancelPendingTurn()

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// decodePayload 将通用 Payload 解析为具体类型
func decodePayload(payload interface{}, target interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// Close 关闭客户端连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 关闭 send 通道
	select {
	case <-c.send:
		// 通道已关闭
	default:
		close(c.send)
	}
}
