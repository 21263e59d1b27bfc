// Package cache 提供 Redis 缓存操作的封装
// 处理 PDF 提取文本的记忆化等需要快速访问的数据
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"edu-tutor-server/internal/config"
)

// RedisCache 封装 Redis 客户端，提供业务相关的缓存操作
type RedisCache struct {
	client *redis.Client // Redis 客户端实例
}

// NewRedisCache 创建 RedisCache 实例
// 参数:
//   - cfg: 应用配置（包含 Redis 连接信息）
//
// 返回:
//   - *RedisCache: 缓存实例
//   - error: 连接错误
func NewRedisCache(cfg *config.Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Username: cfg.Redis.Username, // 阿里云 Redis 需要用户名
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Close 关闭 Redis 连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// ==================== PDF 提取文本缓存 ====================
// 同一份资源可能被多次用于对话接地，提取结果按存储路径缓存，
// 避免每个回合都重新下载和解码 PDF

// 提取文本缓存的过期时间
// 资源被删除后缓存最多保留这么久，之后自动清理
const extractedTextTTL = 7 * 24 * time.Hour

// extractedTextKey 生成提取文本的缓存 Key
func extractedTextKey(resourcePath string) string {
	return fmt.Sprintf("resource:text:%s", resourcePath)
}

// SetExtractedText 缓存资源的提取文本
// 参数:
//   - ctx: 上下文
//   - resourcePath: 资源在对象存储中的路径
//   - text: 提取出的全文
//
// 返回:
//   - error: Redis 操作错误
func (c *RedisCache) SetExtractedText(ctx context.Context, resourcePath, text string) error {
	return c.client.Set(ctx, extractedTextKey(resourcePath), text, extractedTextTTL).Err()
}

// GetExtractedText 读取资源的提取文本缓存
// 参数:
//   - ctx: 上下文
//   - resourcePath: 资源在对象存储中的路径
//
// 返回:
//   - string: 缓存的文本，未命中返回空字符串
//   - bool: 是否命中
//   - error: Redis 操作错误
func (c *RedisCache) GetExtractedText(ctx context.Context, resourcePath string) (string, bool, error) {
	text, err := c.client.Get(ctx, extractedTextKey(resourcePath)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// DeleteExtractedText 删除资源的提取文本缓存
// 资源被删除时调用
// 参数:
//   - ctx: 上下文
//   - resourcePath: 资源在对象存储中的路径
//
// 返回:
//   - error: Redis 操作错误
func (c *RedisCache) DeleteExtractedText(ctx context.Context, resourcePath string) error {
	return c.client.Del(ctx, extractedTextKey(resourcePath)).Err()
}

// ==================== 通用方法 ====================

// Ping 检查 Redis 连接
// 参数:
//   - ctx: 上下文
//
// 返回:
//   - error: 如果连接失败返回错误
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
