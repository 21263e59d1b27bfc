package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTopicsConceptFamily(t *testing.T) {
	topics := ExtractTopics("Today we studied the concept of photosynthesis. It was fun.")

	assert.Equal(t, []string{"photosynthesis"}, topics)
}

func TestExtractTopicsMathFamily(t *testing.T) {
	topics := ExtractTopics("Can you explain the theorem of Pythagoras, please?")

	assert.Equal(t, []string{"Pythagoras"}, topics)
}

func TestExtractTopicsLiteraryFamily(t *testing.T) {
	topics := ExtractTopics("We analyzed the author Victor Hugo, then moved on.")

	assert.Equal(t, []string{"Victor Hugo"}, topics)
}

func TestExtractTopicsCaseInsensitiveIndicator(t *testing.T) {
	topics := ExtractTopics("CHAPTER the French Revolution. End of lesson.")

	assert.Equal(t, []string{"the French Revolution"}, topics)
}

func TestExtractTopicsMultiplePhrases(t *testing.T) {
	content := "The concept of inertia. Later we wrote the equation of motion."
	topics := ExtractTopics(content)

	// 模式族按顺序扫描：概念类在前，数理类在后
	assert.Equal(t, []string{"inertia", "motion"}, topics)
}

func TestExtractTopicsDeduplicates(t *testing.T) {
	content := "The concept of symmetry. Also the notion of symmetry."
	topics := ExtractTopics(content)

	assert.Equal(t, []string{"symmetry"}, topics)
}

func TestExtractTopicsPhraseEndsAtTextEnd(t *testing.T) {
	topics := ExtractTopics("Let's talk about the notion of gravity")

	assert.Equal(t, []string{"gravity"}, topics)
}

func TestExtractTopicsNoMatch(t *testing.T) {
	topics := ExtractTopics("Hello, how are you today?")

	assert.NotNil(t, topics)
	assert.Empty(t, topics)
}
