// Package service 提供业务逻辑层的实现
package service

import (
	"regexp"
	"strings"
)

// 主题提取的三个模式族
// 每个模式捕获指示词后面的短语，直到句子分隔符（句号、逗号、
// 连续两个空格）或文本结尾
//
// 提取是启发式的：宁可多匹配也不漏掉明确标注的短语，
// 这里刻意不做更严格的语法约束
var topicPatterns = []*regexp.Regexp{
	// 通用概念类指示词
	regexp.MustCompile(`(?i)(?:concept|notion|theme|chapter)\s+(?:of\s+)?([A-Za-zÀ-ÿ][A-Za-zÀ-ÿ\s]*?)(?:\.|,|\s{2}|$)`),

	// 数理类指示词
	regexp.MustCompile(`(?i)(?:theorem|equation|function|property)\s+(?:of\s+)?([A-Za-zÀ-ÿ][A-Za-zÀ-ÿ\s]*?)(?:\.|,|\s{2}|$)`),

	// 人文类指示词
	regexp.MustCompile(`(?i)(?:literary device|character|author|period)\s+(?:of\s+)?([A-Za-zÀ-ÿ][A-Za-zÀ-ÿ\s]*?)(?:\.|,|\s{2}|$)`),
}

// ExtractTopics 从消息正文提取主题短语
// 按模式族顺序做全局扫描，捕获的短语去除首尾空白后按首次
// 出现顺序加入结果，跨模式族的重复短语只保留一个（集合语义）
//
// 没有失败模式：无匹配时返回空切片
// 参数:
//   - content: 消息正文
//
// 返回:
//   - []string: 主题短语列表（保留原始大小写）
func ExtractTopics(content string) []string {
	topics := make([]string, 0, 4)
	seen := make(map[string]struct{})

	for _, pattern := range topicPatterns {
		for _, match := range pattern.FindAllStringSubmatch(content, -1) {
			phrase := strings.TrimSpace(match[1])
			if phrase == "" {
				continue
			}
			if _, ok := seen[phrase]; ok {
				continue
			}
			seen[phrase] = struct{}{}
			topics = append(topics, phrase)
		}
	}

	return topics
}
