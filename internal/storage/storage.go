// Package storage 提供对象存储的抽象与实现
// 资源 PDF 文件保存在对象存储中，数据库只存路径
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"edu-tutor-server/internal/config"
)

// ObjectStorage 对象存储接口
// local 驱动存本地磁盘并自签访问 URL，s3 驱动使用 S3 兼容存储
type ObjectStorage interface {
	// Upload 上传对象
	Upload(ctx context.Context, path string, data []byte, contentType string) error

	// Remove 批量删除对象
	Remove(ctx context.Context, paths []string) error

	// GetPublicURL 获取对象的公开访问 URL
	GetPublicURL(path string) string

	// CreateSignedURL 签发短时效的访问 URL
	// 对话接地拉取 PDF 时使用，有效期通常是几十秒
	CreateSignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// New 根据配置创建对象存储实例
// 参数:
//   - ctx: 上下文（S3 驱动加载凭证时使用）
//   - cfg: 应用配置
//
// 返回:
//   - ObjectStorage: 存储实例
//   - error: 初始化错误
func New(ctx context.Context, cfg *config.Config) (ObjectStorage, error) {
	switch cfg.Storage.Driver {
	case "local", "":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}

// FetchSigned 通过签名 URL 拉取对象内容
// 对话编排用它获取接地 PDF：先签发短时效授权，再走 HTTP 下载，
// 取消信号通过 ctx 贯穿签发和下载两个阶段
// 参数:
//   - ctx: 上下文（携带编排的取消预算）
//   - store: 对象存储
//   - client: HTTP 客户端
//   - path: 存储路径
//   - ttl: 签名有效期
//
// 返回:
//   - []byte: 对象内容
//   - error: 签发或下载错误
func FetchSigned(ctx context.Context, store ObjectStorage, client *http.Client, path string, ttl time.Duration) ([]byte, error) {
	signedURL, err := store.CreateSignedURL(ctx, path, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to sign resource url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch resource: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resource fetch returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
