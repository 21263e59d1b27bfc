package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"edu-tutor-server/internal/model"
	"edu-tutor-server/internal/repository"
	"edu-tutor-server/internal/storage"
	"edu-tutor-server/pkg/pdftext"
	"edu-tutor-server/pkg/util"
)

// ==================== 资源库 ====================

// MaxResourceSize 资源文件的大小上限
const MaxResourceSize = 50 << 20 // 50MB

// PDFContentType 资源库只接受 PDF 文件
const PDFContentType = "application/pdf"

var (
	// ErrBadFileType 文件类型不是 PDF
	ErrBadFileType = errors.New("只接受 PDF 文件")
	// ErrFileTooLarge 文件超过大小上限
	ErrFileTooLarge = errors.New("文件大小不能超过 50MB")
	// ErrResourceNotFound 资源不存在
	ErrResourceNotFound = errors.New("资源不存在")
	// ErrNotOwner 只有上传者可以删除自己的资源
	ErrNotOwner = errors.New("无权删除该资源")
)

// ExtractedTextStore 删除资源时需要同时失效提取文本缓存
type ExtractedTextStore interface {
	ExtractedTextCache
	DeleteExtractedText(ctx context.Context, resourcePath string) error
}

// ResourceService 教学资源库服务
// 教师上传 PDF 教学材料，学生在对话时把资源作为背景材料引用
type ResourceService struct {
	resourceRepo *repository.ResourceRepository
	store        storage.ObjectStorage
	textCache    ExtractedTextStore
}

// NewResourceService 创建资源库服务
func NewResourceService(resourceRepo *repository.ResourceRepository, store storage.ObjectStorage, textCache ExtractedTextStore) *ResourceService {
	return &ResourceService{
		resourceRepo: resourceRepo,
		store:        store,
		textCache:    textCache,
	}
}

// UploadInput 资源上传参数
type UploadInput struct {
	Name        string // 展示名称
	Description string // 描述，可空
	Subject     string // 所属科目
	ClassLevel  string // 所属班级
	UploadedBy  string // 上传者 ID
	FileName    string // 原始文件名
	ContentType string // 文件 MIME 类型
	Data        []byte // 文件内容
}

// Upload 上传一份教学资源
// 只接受 50MB 以内的 PDF。上传时顺带提取文本并预热缓存，
// 提取失败不阻断上传（对话时会再走一次降级路径）。
//
// 参数:
//   - input: 上传参数
//
// 返回:
//   - *model.Resource: 落库后的资源
//   - error: 校验、存储或数据库错误
func (s *ResourceService) Upload(ctx context.Context, input UploadInput) (*model.Resource, error) {
	if input.ContentType != PDFContentType {
		return nil, ErrBadFileType
	}
	if len(input.Data) > MaxResourceSize {
		return nil, ErrFileTooLarge
	}

	path := util.GenerateResourcePath(input.FileName, input.Subject, input.ClassLevel)

	// 提取失败只记日志，资源照常入库
	extracted := ""
	if text, err := pdftext.Extract(input.Data); err != nil {
		log.Printf("[WARN] 资源文本提取失败: name=%s err=%v", input.FileName, err)
	} else {
		extracted = text
	}

	if err := s.store.Upload(ctx, path, input.Data, input.ContentType); err != nil {
		return nil, fmt.Errorf("上传资源文件失败: %w", err)
	}

	resource := &model.Resource{
		ID:            util.GenerateUUID(),
		Name:          input.Name,
		Description:   input.Description,
		FilePath:      path,
		Subject:       input.Subject,
		ClassLevel:    input.ClassLevel,
		UploadedBy:    input.UploadedBy,
		ExtractedText: extracted,
	}
	if err := s.resourceRepo.Create(ctx, resource); err != nil {
		// 数据库失败时回收已上传的文件
		if rmErr := s.store.Remove(ctx, []string{path}); rmErr != nil {
			log.Printf("[ERROR] 回收孤儿文件失败: path=%s err=%v", path, rmErr)
		}
		return nil, fmt.Errorf("保存资源记录失败: %w", err)
	}

	if extracted != "" && s.textCache != nil {
		if err := s.textCache.SetExtractedText(ctx, path, extracted); err != nil {
			log.Printf("[WARN] 预热提取文本缓存失败: %v", err)
		}
	}

	return resource, nil
}

// List 列出某科目某班级的资源，按上传时间倒序
func (s *ResourceService) List(ctx context.Context, subject, classLevel string) ([]model.Resource, error) {
	resources, err := s.resourceRepo.ListBySubjectClass(ctx, subject, classLevel)
	if err != nil {
		return nil, fmt.Errorf("查询资源列表失败: %w", err)
	}
	return resources, nil
}

// Get 按 ID 获取资源
func (s *ResourceService) Get(ctx context.Context, id string) (*model.Resource, error) {
	resource, err := s.resourceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("查询资源失败: %w", err)
	}
	if resource == nil {
		return nil, ErrResourceNotFound
	}
	return resource, nil
}

// Delete 删除资源
// 只允许上传者本人删除，文件、记录和提取文本缓存一并清理
func (s *ResourceService) Delete(ctx context.Context, id, operatorID string) error {
	resource, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if resource.UploadedBy != operatorID {
		return ErrNotOwner
	}

	if err := s.store.Remove(ctx, []string{resource.FilePath}); err != nil {
		return fmt.Errorf("删除资源文件失败: %w", err)
	}
	if err := s.resourceRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("删除资源记录失败: %w", err)
	}
	if s.textCache != nil {
		if err := s.textCache.DeleteExtractedText(ctx, resource.FilePath); err != nil {
			log.Printf("[WARN] 清理提取文本缓存失败: %v", err)
		}
	}
	return nil
}

// DownloadURL 签发资源的下载链接
func (s *ResourceService) DownloadURL(ctx context.Context, id string, ttl time.Duration) (string, error) {
	resource, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.store.CreateSignedURL(ctx, resource.FilePath, ttl)
}
