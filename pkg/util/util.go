// Package util 提供通用工具函数
package util

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
// 使用 Google 的 uuid 库生成 UUID v4
// 返回:
//   - string: 标准格式的 UUID 字符串
func GenerateUUID() string {
	return uuid.New().String()
}

// unsafeChars 匹配文件路径中不允许出现的字符
var unsafeChars = regexp.MustCompile(`[^a-z0-9.]`)

// collapseUnderscores 合并连续的下划线
var collapseUnderscores = regexp.MustCompile(`_+`)

// sanitizePathSegment 将任意字符串清洗为安全的路径片段
// 全部转小写，非法字符替换为下划线并合并
func sanitizePathSegment(s string) string {
	s = strings.ToLower(s)
	s = unsafeChars.ReplaceAllString(s, "_")
	return collapseUnderscores.ReplaceAllString(s, "_")
}

// GenerateResourcePath 生成资源在对象存储中的路径
// 格式: subject/class/timestamp_filename
// 科目、班级和文件名都会被清洗，时间戳保证唯一性
// 参数:
//   - originalName: 原始文件名
//   - subject: 科目
//   - classLevel: 班级
//
// 返回:
//   - string: 存储路径
func GenerateResourcePath(originalName, subject, classLevel string) string {
	return fmt.Sprintf("%s/%s/%d_%s",
		sanitizePathSegment(subject),
		sanitizePathSegment(classLevel),
		time.Now().UnixMilli(),
		sanitizePathSegment(originalName),
	)
}

// GenerateTempResourcePath 生成聊天中临时上传的 PDF 路径
// 格式: temp/timestamp_filename
func GenerateTempResourcePath(originalName string) string {
	return fmt.Sprintf("temp/%d_%s", time.Now().UnixMilli(), sanitizePathSegment(originalName))
}

// TruncateString 截断字符串到指定长度
// 如果字符串超过指定长度，截断并添加 "..."
// 参数:
//   - s: 原字符串
//   - maxLen: 最大长度
//
// 返回:
//   - string: 截断后的字符串
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// StringPtr 返回字符串的指针
// 用于可选字段的赋值
// 参数:
//   - s: 字符串
//
// 返回:
//   - *string: 字符串指针
func StringPtr(s string) *string {
	return &s
}
