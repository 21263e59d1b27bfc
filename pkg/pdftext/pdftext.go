// Package pdftext 提供 PDF 文本提取功能
// 将 PDF 字节流解码为按页拼接的纯文本，用于对话接地和资源索引
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
)

// 提取错误类型常量
const (
	KindDecode = "decode" // 整个文档无法解码（结构损坏、非 PDF）
	KindEmpty  = "empty"  // 解码成功但没有任何文本（扫描件、纯图片）
)

// ExtractionError PDF 提取错误
// Kind 区分失败原因，Err 保留底层错误（可能为 nil）
type ExtractionError struct {
	Kind string
	Err  error
}

// Error 实现 error 接口
func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdf extraction failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("pdf extraction failed (%s)", e.Kind)
}

// Unwrap 返回底层错误
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsEmpty 判断是否为"无文本"错误
func IsEmpty(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee) && ee.Kind == KindEmpty
}

// IsDecode 判断是否为"解码失败"错误
func IsDecode(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee) && ee.Kind == KindDecode
}

// Extract 从 PDF 字节流提取全文文本
// 每页内的文本片段用单个空格连接，页与页之间用空行分隔，
// 最终结果去除首尾空白
//
// 失败语义:
//   - 文档整体无法解码: ExtractionError{Kind: decode}
//   - 单页损坏: 跳过该页继续，不中断整个文档
//   - 所有页都没有文本: ExtractionError{Kind: empty}
func Extract(data []byte) (string, error) {
	reader, err := openDocument(data)
	if err != nil {
		return "", &ExtractionError{Kind: KindDecode, Err: err}
	}

	var pages []string
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		text, err := extractPage(reader, i)
		if err != nil {
			// 单页失败只记录，继续处理后面的页
			log.Printf("[WARN] pdftext: skipping page %d: %v", i, err)
			continue
		}
		if text != "" {
			pages = append(pages, text)
		}
	}

	full := strings.TrimSpace(strings.Join(pages, "\n\n"))
	if full == "" {
		return "", &ExtractionError{Kind: KindEmpty}
	}
	return full, nil
}

// openDocument 打开 PDF 文档
// 底层库对损坏输入可能 panic，这里统一转换为 error
func openDocument(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("invalid pdf structure: %v", p)
		}
	}()

	reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return reader, nil
}

// extractPage 提取单页文本
// 按内容流顺序遍历字形，连续字形拼成文本片段，片段之间用单个空格连接
func extractPage(reader *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed page object: %v", p)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", fmt.Errorf("page is null")
	}

	var sb strings.Builder
	var prev pdf.Text
	for i, item := range page.Content().Text {
		if i > 0 && !sameTextRun(prev, item) && !strings.HasSuffix(sb.String(), " ") {
			sb.WriteByte(' ')
		}
		sb.WriteString(item.S)
		prev = item
	}
	return strings.TrimSpace(sb.String()), nil
}

// sameTextRun 判断当前字形是否与前一个字形属于同一连续片段
// 换行或横向间距超过字号四分之一视为片段边界
func sameTextRun(prev, cur pdf.Text) bool {
	if prev.Y != cur.Y {
		return false
	}
	gap := cur.X - (prev.X + prev.W)
	if gap < 0 {
		gap = -gap
	}
	return gap <= prev.FontSize/4
}
