// Package urlsign 提供对象存储访问令牌的签发与校验
// 本地存储驱动用它生成短时效的签名下载 URL，
// 作用等同于 S3 的预签名 GET
package urlsign

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 签名校验相关错误
var (
	ErrInvalidToken = errors.New("访问令牌无效或已过期")
	ErrPathMismatch = errors.New("访问令牌与请求路径不匹配")
)

// Signer 签名器
// 使用 HMAC-SHA256 对存储路径和过期时间签名
type Signer struct {
	secret []byte
}

// NewSigner 创建 Signer 实例
// 参数:
//   - secret: 签名密钥，至少 32 字符
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// pathClaims 签名令牌的 Claims
// path 绑定被授权访问的存储路径
type pathClaims struct {
	Path string `json:"path"`
	jwt.RegisteredClaims
}

// Sign 为指定存储路径签发访问令牌
// 参数:
//   - path: 存储路径
//   - ttl: 令牌有效期
//
// 返回:
//   - string: 令牌字符串
//   - error: 签名错误
func (s *Signer) Sign(path string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := pathClaims{
		Path: path,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify 校验访问令牌是否授权访问指定路径
// 参数:
//   - tokenString: 令牌字符串
//   - path: 请求访问的存储路径
//
// 返回:
//   - error: 令牌无效、过期或路径不匹配时返回错误
func (s *Signer) Verify(tokenString, path string) error {
	var claims pathClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		// 只接受 HMAC 签名方法，防止算法替换攻击
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	if claims.Path != path {
		return ErrPathMismatch
	}
	return nil
}
