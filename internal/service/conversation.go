// Package service 提供业务逻辑层的实现
package service

import (
	"time"

	"edu-tutor-server/internal/model"
)

// DefaultConversationGap 会话分组的默认不活跃间隔阈值
// 相邻消息间隔严格超过该值时认为是两次独立会话
const DefaultConversationGap = 30 * time.Minute

// Conversation 会话视图
// 不落库，每次读取历史时由时间正序的消息序列重建，
// 视图关闭后即丢弃
type Conversation struct {
	// ID 会话标识，取首条消息的 ID
	ID string `json:"id"`

	// Messages 会话内的消息（时间正序）
	Messages []model.Message `json:"messages"`

	// StartTime 首条消息的时间
	StartTime time.Time `json:"start_time"`

	// ResourcePath 首条消息关联的资源路径（可选）
	ResourcePath *string `json:"resource_path,omitempty"`

	// StudentID 首条消息的作者
	StudentID string `json:"student_id"`

	// MessageCount 消息数量
	MessageCount int `json:"message_count"`
}

// GroupConversations 将时间正序的消息序列切分为会话列表
// 单次线性遍历：当前消息与前一条消息的间隔严格大于 gap 时，
// 结束当前分组并以当前消息开启新分组；遍历结束后刷出尾部分组
//
// 边界语义:
//   - 空输入返回空列表
//   - 单条消息构成单消息会话
//   - 相同时间戳的消息永远不会被拆开（严格大于比较）
//
// 输入顺序被信任，不做重排序
// 参数:
//   - messages: 时间正序的消息序列
//   - gap: 不活跃间隔阈值，<=0 时使用 DefaultConversationGap
//
// 返回:
//   - []Conversation: 会话列表（按开始时间正序）
func GroupConversations(messages []model.Message, gap time.Duration) []Conversation {
	if gap <= 0 {
		gap = DefaultConversationGap
	}

	conversations := make([]Conversation, 0)
	var current []model.Message

	flush := func() {
		if len(current) == 0 {
			return
		}
		first := current[0]
		conversations = append(conversations, Conversation{
			ID:           first.ID,
			Messages:     current,
			StartTime:    first.CreatedAt,
			ResourcePath: first.ResourcePath,
			StudentID:    first.StudentID,
			MessageCount: len(current),
		})
		current = nil
	}

	for i, msg := range messages {
		if i > 0 && msg.CreatedAt.Sub(messages[i-1].CreatedAt) > gap {
			flush()
		}
		current = append(current, msg)
	}
	flush()

	return conversations
}
