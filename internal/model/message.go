// Package model 定义了与数据库表对应的数据结构
package model

import (
	"time"

	"gorm.io/datatypes"
)

// MessageRole 消息角色常量
const (
	MessageRoleUser      = "user"      // 学生/教师发送的提问
	MessageRoleAssistant = "assistant" // AI 助教的回答
)

// Message 聊天消息模型
// 对应数据库表 chat_messages
// 消息一旦落库即不可变，会话视图在读取时由分组算法重建
type Message struct {
	// ID 消息唯一标识，UUID
	ID string `gorm:"primaryKey;size:36" json:"id"`

	// StudentID 消息作者的用户ID（教师提问时同样写入此字段）
	StudentID string `gorm:"size:36;index:idx_msg_query,priority:3;not null" json:"student_id"`

	// Role 消息角色
	// user: 用户发送的提问
	// assistant: AI 助教的回答
	Role string `gorm:"size:20;not null" json:"role"`

	// Content 消息内容
	// 使用 TEXT 类型存储，回答可能很长
	Content string `gorm:"type:text;not null" json:"content"`

	// Subject 基础科目名（已去除角色前缀和班级后缀，如 "Biology"）
	Subject string `gorm:"size:100;index:idx_msg_query,priority:1;not null" json:"subject"`

	// ClassLevel 班级/年级（如 "5th-grade"）
	ClassLevel string `gorm:"size:50;index:idx_msg_query,priority:2;not null" json:"class_level"`

	// Topics 写入时从消息正文提取的主题短语列表
	// 以 JSON 数组存储
	Topics datatypes.JSONSlice[string] `json:"topics"`

	// ResourcePath 本次提问关联的 PDF 资源路径（可选）
	ResourcePath *string `gorm:"size:500" json:"resource_path,omitempty"`

	// CreatedAt 消息创建时间
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_msg_query,priority:4" json:"created_at"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "chat_messages"
}
