package util

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUIDFormat(t *testing.T) {
	id := GenerateUUID()

	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, id)
	assert.NotEqual(t, id, GenerateUUID())
}

func TestGenerateResourcePathSanitizesSegments(t *testing.T) {
	path := GenerateResourcePath("Cours SVT (chapitre 2).pdf", "Biology", "5th-grade")

	// 格式: subject/class/timestamp_filename，片段内只保留小写字母、数字和点
	assert.Regexp(t, regexp.MustCompile(`^biology/5th_grade/\d+_cours_svt_chapitre_2_.pdf$`), path)
	assert.NotContains(t, path, " ")
	assert.NotContains(t, path, "(")
}

func TestGenerateTempResourcePath(t *testing.T) {
	path := GenerateTempResourcePath("Notes.pdf")

	assert.Regexp(t, `^temp/\d+_notes.pdf$`, path)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "hello", TruncateString("hello", 10))
	assert.Equal(t, "hello w...", TruncateString("hello world", 10))
	assert.Equal(t, "he", TruncateString("hello", 2))
}

func TestStringPtr(t *testing.T) {
	p := StringPtr("x")

	assert.NotNil(t, p)
	assert.Equal(t, "x", *p)
}
