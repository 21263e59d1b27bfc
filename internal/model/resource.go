// Package model 定义了与数据库表对应的数据结构
package model

import (
	"time"
)

// Resource 教学资源模型
// 对应数据库表 resources
// 教师上传的 PDF 文档，按 (科目, 班级) 归档
type Resource struct {
	// ID 资源唯一标识，UUID
	ID string `gorm:"primaryKey;size:36" json:"id"`

	// Name 原始文件名
	Name string `gorm:"size:255;not null" json:"name"`

	// Description 资源描述（教师上传时填写，可为空）
	Description string `gorm:"size:1000" json:"description"`

	// FilePath 对象存储中的路径
	// 格式: subject/class/timestamp_name.pdf
	FilePath string `gorm:"size:500;not null" json:"file_path"`

	// Subject 所属科目
	Subject string `gorm:"size:100;index:idx_res_query,priority:1;not null" json:"subject"`

	// ClassLevel 所属班级/年级
	ClassLevel string `gorm:"size:50;index:idx_res_query,priority:2;not null" json:"class_level"`

	// UploadedBy 上传者的用户ID
	UploadedBy string `gorm:"size:36;not null" json:"uploaded_by"`

	// ExtractedText 上传时提取的全文文本
	// 提取失败时为空，对话接地时会按需重新提取
	ExtractedText string `gorm:"type:longtext" json:"extracted_text,omitempty"`

	// CreatedAt 上传时间
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (Resource) TableName() string {
	return "resources"
}
