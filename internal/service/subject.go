// Package service 提供业务逻辑层的实现
package service

import (
	"regexp"
	"strings"
)

// teacherQualifier 复合科目标签的教师角色前缀
// 例如 "Teacher Biology 5th-grade"
const teacherQualifier = "Teacher "

// classLevelSuffix 匹配科目标签尾部的班级/年级记号
// 固定后缀列表，例如 "5th-grade"、"senior"
var classLevelSuffix = regexp.MustCompile(`(?i)(\d+(?:st|nd|rd|th)-grade|kindergarten|freshman|sophomore|junior|senior)$`)

// ParseSubjectLabel 解析复合科目标签
// 标签可能带一个可选的角色前缀和一个尾部班级记号：
//
//	"Teacher Biology 5th-grade" -> ("Biology", "5th-grade")
//	"Biology 5th-grade"         -> ("Biology", "5th-grade")
//	"Biology"                   -> ("Biology", "")
//
// 解析顺序:
//  1. 去掉角色前缀
//  2. 尾部匹配班级记号，命中则剩余部分为基础科目
//  3. 未命中时退回"第二个空白分隔词是班级"的约定
//  4. 都不满足时班级留空（无空格且无后缀的标签属于产品未澄清
//     的边界，这里选择留空而不是猜测更严格的含义）
//
// 参数:
//   - label: 复合科目标签
//
// 返回:
//   - baseSubject: 基础科目名
//   - classLevel: 班级/年级，无法识别时为空字符串
func ParseSubjectLabel(label string) (baseSubject, classLevel string) {
	stripped := strings.TrimSpace(strings.Replace(label, teacherQualifier, "", 1))
	if stripped == "" {
		return "", ""
	}

	if match := classLevelSuffix.FindString(stripped); match != "" && match != stripped {
		base := strings.TrimSpace(strings.TrimSuffix(stripped, match))
		if base != "" {
			return base, match
		}
	}

	parts := strings.Fields(stripped)
	if len(parts) >= 2 {
		return parts[0], parts[1]
	}
	return parts[0], ""
}

// BaseSubject 只取复合标签中的基础科目名
func BaseSubject(label string) string {
	base, _ := ParseSubjectLabel(label)
	return base
}
