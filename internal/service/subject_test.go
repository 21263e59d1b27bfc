package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSubjectLabelWithQualifierAndLevel(t *testing.T) {
	subject, level := ParseSubjectLabel("Teacher Biology 5th-grade")

	assert.Equal(t, "Biology", subject)
	assert.Equal(t, "5th-grade", level)
}

func TestParseSubjectLabelWithoutQualifier(t *testing.T) {
	subject, level := ParseSubjectLabel("Mathematics 3rd-grade")

	assert.Equal(t, "Mathematics", subject)
	assert.Equal(t, "3rd-grade", level)
}

func TestParseSubjectLabelNamedLevels(t *testing.T) {
	cases := map[string][2]string{
		"History kindergarten": {"History", "kindergarten"},
		"Physics senior":       {"Physics", "senior"},
		"Chemistry freshman":   {"Chemistry", "freshman"},
	}
	for label, want := range cases {
		subject, level := ParseSubjectLabel(label)
		assert.Equal(t, want[0], subject, label)
		assert.Equal(t, want[1], level, label)
	}
}

func TestParseSubjectLabelSecondTokenFallback(t *testing.T) {
	// 尾部不是已知班级记号时，退回"第二个词是班级"的约定
	subject, level := ParseSubjectLabel("Biology CM2")

	assert.Equal(t, "Biology", subject)
	assert.Equal(t, "CM2", level)
}

func TestParseSubjectLabelBareSubject(t *testing.T) {
	subject, level := ParseSubjectLabel("Biology")

	assert.Equal(t, "Biology", subject)
	assert.Equal(t, "", level)
}

func TestParseSubjectLabelEmpty(t *testing.T) {
	subject, level := ParseSubjectLabel("   ")

	assert.Equal(t, "", subject)
	assert.Equal(t, "", level)
}
