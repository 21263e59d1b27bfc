// Package repository 提供数据访问层的实现
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"edu-tutor-server/internal/model"
)

// MessageRepository 消息数据访问层
// 负责聊天消息相关的所有数据库操作
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建 MessageRepository 实例
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// MessageFilter 历史查询的过滤条件
// Subject/ClassLevel 是等值匹配，时间范围是闭区间
// AuthorID 与 ExcludeAuthorID 互斥：
//   - 学生视角只看自己 -> AuthorID
//   - 教师视角看除自己之外的所有人 -> ExcludeAuthorID
type MessageFilter struct {
	Subject         string    // 基础科目（必填）
	ClassLevel      string    // 班级（必填）
	Start           time.Time // 范围起点（含）
	End             time.Time // 范围终点（含）
	AuthorID        string    // 只保留该作者的消息
	ExcludeAuthorID string    // 排除该作者的消息
}

// Create 创建新消息
// 参数:
//   - ctx: 上下文
//   - message: 消息对象，CreatedAt 会被自动填充
//
// 返回:
//   - error: 数据库错误
func (r *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// Query 按过滤条件查询消息
// 结果按创建时间正序排列，供会话分组算法直接消费
// 参数:
//   - ctx: 上下文
//   - filter: 过滤条件
//
// 返回:
//   - []model.Message: 消息列表（时间正序）
//   - error: 数据库错误
func (r *MessageRepository) Query(ctx context.Context, filter MessageFilter) ([]model.Message, error) {
	query := r.db.WithContext(ctx).
		Where("subject = ?", filter.Subject).
		Where("class_level = ?", filter.ClassLevel)

	// 零值表示该侧不限
	if !filter.Start.IsZero() {
		query = query.Where("created_at >= ?", filter.Start)
	}
	if !filter.End.IsZero() {
		query = query.Where("created_at <= ?", filter.End)
	}

	if filter.AuthorID != "" {
		query = query.Where("student_id = ?", filter.AuthorID)
	}
	if filter.ExcludeAuthorID != "" {
		query = query.Where("student_id <> ?", filter.ExcludeAuthorID)
	}

	var messages []model.Message
	err := query.Order("created_at ASC").Find(&messages).Error
	return messages, err
}

// CountBySubject 统计某科目某班级的消息数量
// 教师仪表盘展示用
// 参数:
//   - ctx: 上下文
//   - subject: 科目
//   - classLevel: 班级
//
// 返回:
//   - int64: 消息数量
//   - error: 数据库错误
func (r *MessageRepository) CountBySubject(ctx context.Context, subject, classLevel string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("subject = ? AND class_level = ?", subject, classLevel).
		Count(&count).Error
	return count, err
}
