// Package storage 提供对象存储的抽象与实现
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"edu-tutor-server/internal/config"
)

// S3Storage S3 兼容对象存储
// 支持 AWS S3 以及 MinIO 等自定义端点
type S3Storage struct {
	bucket   string
	region   string
	endpoint string
	client   *s3.Client
	presign  *s3.PresignClient
}

// NewS3Storage 创建 S3Storage 实例
// 参数:
//   - ctx: 上下文
//   - cfg: 应用配置
//
// 返回:
//   - *S3Storage: 存储实例
//   - error: 凭证加载错误
func NewS3Storage(ctx context.Context, cfg *config.Config) (*S3Storage, error) {
	s3cfg := cfg.Storage.S3
	if s3cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is not configured")
	}

	// 自定义端点解析（MinIO 等 S3 兼容服务）
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if s3cfg.Endpoint != "" {
			return aws.Endpoint{
				URL:           s3cfg.Endpoint,
				PartitionID:   "aws",
				SigningRegion: s3cfg.Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s3cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s3cfg.AccessKey, s3cfg.SecretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = s3cfg.UsePathStyle
	})

	return &S3Storage{
		bucket:   s3cfg.Bucket,
		region:   s3cfg.Region,
		endpoint: strings.TrimRight(s3cfg.Endpoint, "/"),
		client:   client,
		presign:  s3.NewPresignClient(client),
	}, nil
}

// Upload 上传对象
func (s *S3Storage) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	return err
}

// Remove 批量删除对象
func (s *S3Storage) Remove(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	objects := make([]types.ObjectIdentifier, 0, len(paths))
	for _, p := range paths {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(p)})
	}

	_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: objects},
	})
	return err
}

// GetPublicURL 获取对象的公开访问 URL
// 自定义端点时使用 path-style，否则使用 virtual-hosted-style
func (s *S3Storage) GetPublicURL(path string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, path)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, path)
}

// CreateSignedURL 生成 S3 预签名 GET URL
func (s *S3Storage) CreateSignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	out, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign get: %w", err)
	}
	return out.URL, nil
}
