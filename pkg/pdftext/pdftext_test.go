package pdftext

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF 构造一个最小的单页 PDF
// 交叉引用表的偏移量按实际写入位置计算
func buildPDF(contentStream string) []byte {
	var buf bytes.Buffer
	offsets := make([]int, 0, 5)

	object := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")
	object("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	object("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	object("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
		"/Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>\nendobj\n")
	object("4 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")
	object(fmt.Sprintf("5 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
		len(contentStream), contentStream))

	xrefStart := buf.Len()
	buf.WriteString("xref\n0 6\n")
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xrefStart)

	return buf.Bytes()
}

// buildPDFWithBrokenPage 构造两页 PDF，第二页的内容流指向不存在的对象
func buildPDFWithBrokenPage(contentStream string) []byte {
	var buf bytes.Buffer
	offsets := make([]int, 0, 6)

	object := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")
	object("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	object("2 0 obj\n<< /Type /Pages /Kids [3 0 R 6 0 R] /Count 2 >>\nendobj\n")
	object("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
		"/Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>\nendobj\n")
	object("4 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")
	object(fmt.Sprintf("5 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
		len(contentStream), contentStream))
	// 第二页引用不存在的 9 0 R 作为内容流
	object("6 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 9 0 R >>\nendobj\n")

	xrefStart := buf.Len()
	buf.WriteString("xref\n0 7\n")
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 7 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xrefStart)

	return buf.Bytes()
}

func TestExtractSimpleDocument(t *testing.T) {
	data := buildPDF("BT /F1 16 Tf 72 720 Td (Hello World) Tj ET")

	text, err := Extract(data)

	require.NoError(t, err)
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "World")
}

func TestExtractJoinsTextItemsWithSpace(t *testing.T) {
	// 同一行上两个独立的文本片段，中间没有显式空格字符
	data := buildPDF("BT /F1 16 Tf 72 720 Td (Hello) Tj 60 0 Td (World) Tj ET")

	text, err := Extract(data)

	require.NoError(t, err)
	assert.Equal(t, "Hello World", text)
}

func TestExtractSeparatesLines(t *testing.T) {
	data := buildPDF("BT /F1 16 Tf 72 720 Td (First line) Tj 0 -20 Td (Second line) Tj ET")

	text, err := Extract(data)

	require.NoError(t, err)
	assert.Equal(t, "First line Second line", text)
}

func TestExtractSkipsBrokenPage(t *testing.T) {
	data := buildPDFWithBrokenPage("BT /F1 16 Tf 72 720 Td (Valid page) Tj ET")

	text, err := Extract(data)

	// 坏页被跳过，文本只来自有效页
	require.NoError(t, err)
	assert.Contains(t, text, "Valid")
}

func TestExtractTextlessDocument(t *testing.T) {
	// 内容流里没有任何文本操作符（纯图形页）
	data := buildPDF("q 1 0 0 1 0 0 cm Q")

	_, err := Extract(data)

	require.Error(t, err)
	assert.True(t, IsEmpty(err))
	assert.False(t, IsDecode(err))
}

func TestExtractGarbageInput(t *testing.T) {
	_, err := Extract([]byte("definitely not a pdf document"))

	require.Error(t, err)
	assert.True(t, IsDecode(err))
	assert.False(t, IsEmpty(err))
}

func TestExtractTruncatedInput(t *testing.T) {
	// 有头无尾：缺少交叉引用表和 trailer
	_, err := Extract([]byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog"))

	require.Error(t, err)
	assert.True(t, IsDecode(err))
}

func TestExtractEmptyInput(t *testing.T) {
	_, err := Extract(nil)

	require.Error(t, err)
	assert.True(t, IsDecode(err))
}

func TestExtractionErrorMessage(t *testing.T) {
	err := &ExtractionError{Kind: KindDecode, Err: assert.AnError}

	assert.Contains(t, err.Error(), "decode")
	assert.ErrorIs(t, err, assert.AnError)
}
