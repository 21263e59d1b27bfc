// Package websocket 提供 WebSocket 通信功能
// 实现学生端与辅导服务的实时对话通道
package websocket

import (
	"time"
)

// MessageType 消息类型常量
const (
	// 客户端 → 服务端
	TypeHeartbeat   = "heartbeat"    // 心跳
	TypeUserMessage = "user:message" // 学生发送的提问
	TypeChatCancel  = "chat:cancel"  // 取消当前正在输出的回答

	// 服务端 → 客户端
	TypeAssistantDelta = "assistant:delta" // 回答的增量片段（打字机节奏）
	TypeAssistantDone  = "assistant:done"  // 回答完整输出完毕
	TypeError          = "error"           // 错误消息
	TypePong           = "pong"            // 心跳响应
)

// Message WebSocket 消息结构
// 所有消息都使用这个统一的结构
type Message struct {
	Type      string      `json:"type"`                 // 消息类型
	Payload   interface{} `json:"payload"`              // 消息内容
	Timestamp int64       `json:"timestamp"`            // 时间戳（毫秒）
	MessageID string      `json:"message_id,omitempty"` // 消息ID，用于追踪
}

// NewMessage 创建新消息
func NewMessage(msgType string, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewMessageWithID 创建带消息ID的新消息
func NewMessageWithID(msgType string, payload interface{}, messageID string) *Message {
	return &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
		MessageID: messageID,
	}
}

// ==================== Payload 类型定义 ====================

// UserMessagePayload 学生提问 Payload
type UserMessagePayload struct {
	Subject      string `json:"subject"`                 // 复合科目标签
	Content      string `json:"content"`                 // 提问内容
	ResourcePath string `json:"resource_path,omitempty"` // 引用的资源路径（可选）
}

// AssistantDeltaPayload 回答增量 Payload
// 按打字机节奏逐条发送
type AssistantDeltaPayload struct {
	Delta   string `json:"delta"`   // 本次新增的片段
	Content string `json:"content"` // 截至当前的完整前缀
}

// AssistantDonePayload 回答结束 Payload
// 独立于增量事件发送，客户端据此解除输入锁定
type AssistantDonePayload struct {
	Content string `json:"content"` // 完整回答
}

// ErrorPayload 错误消息 Payload
type ErrorPayload struct {
	Code    int    `json:"code"`    // 错误码
	Message string `json:"message"` // 错误信息
}

// HeartbeatPayload 心跳 Payload
type HeartbeatPayload struct {
	// 目前心跳不需要额外数据
}
