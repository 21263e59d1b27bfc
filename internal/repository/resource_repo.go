// Package repository 提供数据访问层的实现
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"edu-tutor-server/internal/model"
)

// ResourceRepository 教学资源数据访问层
type ResourceRepository struct {
	db *gorm.DB
}

// NewResourceRepository 创建 ResourceRepository 实例
func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Create 创建资源记录
// 参数:
//   - ctx: 上下文
//   - resource: 资源对象，CreatedAt 会被自动填充
//
// 返回:
//   - error: 数据库错误
func (r *ResourceRepository) Create(ctx context.Context, resource *model.Resource) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

// GetByID 根据 ID 获取资源
// 参数:
//   - ctx: 上下文
//   - id: 资源ID
//
// 返回:
//   - *model.Resource: 资源对象，未找到返回 nil
//   - error: 数据库错误
func (r *ResourceRepository) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	var resource model.Resource
	err := r.db.WithContext(ctx).First(&resource, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &resource, nil
}

// ListBySubjectClass 获取某科目某班级的资源列表
// 按上传时间倒序排列（最新的在前）
// 参数:
//   - ctx: 上下文
//   - subject: 科目
//   - classLevel: 班级
//
// 返回:
//   - []model.Resource: 资源列表
//   - error: 数据库错误
func (r *ResourceRepository) ListBySubjectClass(ctx context.Context, subject, classLevel string) ([]model.Resource, error) {
	var resources []model.Resource
	err := r.db.WithContext(ctx).
		Where("subject = ? AND class_level = ?", subject, classLevel).
		Order("created_at DESC").
		Find(&resources).Error
	return resources, err
}

// Delete 删除资源记录
// 参数:
//   - ctx: 上下文
//   - id: 资源ID
//
// 返回:
//   - error: 数据库错误
func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.Resource{}, "id = ?", id).Error
}
