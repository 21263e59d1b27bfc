// Package storage 提供对象存储的抽象与实现
package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"edu-tutor-server/internal/config"
	"edu-tutor-server/pkg/urlsign"
)

// LocalStorage 本地磁盘存储
// 文件存放在 root 目录下，通过本服务的 /files 路由对外提供下载，
// 签名 URL 由 urlsign 生成，语义对齐 S3 预签名
type LocalStorage struct {
	root    string          // 存储根目录
	baseURL string          // 外部访问地址前缀，如 http://host:8080/files
	signer  *urlsign.Signer // 签名器
}

// NewLocalStorage 创建 LocalStorage 实例
// 会确保根目录存在
func NewLocalStorage(cfg *config.Config) (*LocalStorage, error) {
	root := cfg.Storage.LocalRoot
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	return &LocalStorage{
		root:    root,
		baseURL: strings.TrimRight(cfg.Storage.BaseURL, "/"),
		signer:  urlsign.NewSigner(cfg.Storage.URLSecret),
	}, nil
}

// resolve 将存储路径映射到磁盘路径
// 拒绝逃逸出根目录的路径
func (s *LocalStorage) resolve(path string) (string, error) {
	cleaned := filepath.Clean("/" + path)
	if cleaned == "/" {
		return "", fmt.Errorf("empty storage path")
	}
	return filepath.Join(s.root, cleaned), nil
}

// Upload 上传对象到本地磁盘
func (s *LocalStorage) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	target, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create storage dir: %w", err)
	}
	return os.WriteFile(target, data, 0o644)
}

// Remove 批量删除对象
// 单个文件不存在不算错误
func (s *LocalStorage) Remove(ctx context.Context, paths []string) error {
	for _, p := range paths {
		target, err := s.resolve(p)
		if err != nil {
			return err
		}
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

// GetPublicURL 获取对象的公开访问 URL
// 资源文件桶是公开的（与原部署一致），下载不需要令牌
func (s *LocalStorage) GetPublicURL(path string) string {
	return s.baseURL + "/" + escapePath(path)
}

// CreateSignedURL 签发短时效访问 URL
// URL 上附带 token 查询参数，由 /files 路由校验
func (s *LocalStorage) CreateSignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	token, err := s.signer.Sign(path, ttl)
	if err != nil {
		return "", err
	}
	return s.GetPublicURL(path) + "?token=" + url.QueryEscape(token), nil
}

// VerifyToken 校验签名令牌
// /files 路由在请求携带 token 时调用
func (s *LocalStorage) VerifyToken(token, path string) error {
	return s.signer.Verify(token, path)
}

// Open 读取对象内容对应的磁盘路径
// /files 路由用它定位文件
func (s *LocalStorage) Open(path string) (string, error) {
	return s.resolve(path)
}

// escapePath 对存储路径按段做 URL 转义，保留路径分隔符
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
