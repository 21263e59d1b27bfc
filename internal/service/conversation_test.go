package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-tutor-server/internal/model"
)

// makeMessages 按给定时刻构造升序消息流
func makeMessages(t *testing.T, times ...string) []model.Message {
	t.Helper()

	messages := make([]model.Message, 0, len(times))
	for i, ts := range times {
		at, err := time.Parse("2006-01-02 15:04:05", ts)
		require.NoError(t, err)
		messages = append(messages, model.Message{
			ID:        string(rune('a' + i)),
			StudentID: "stu-1",
			Role:      model.MessageRoleUser,
			Content:   "question",
			CreatedAt: at,
		})
	}
	return messages
}

func TestGroupConversationsSplitsOnInactivityGap(t *testing.T) {
	messages := makeMessages(t,
		"2026-03-10 09:00:00",
		"2026-03-10 09:10:00",
		"2026-03-10 10:00:00", // 距上一条 50 分钟，开启新会话
		"2026-03-10 10:05:00",
	)

	conversations := GroupConversations(messages, 30*time.Minute)

	require.Len(t, conversations, 2)
	assert.Len(t, conversations[0].Messages, 2)
	assert.Len(t, conversations[1].Messages, 2)
	assert.Equal(t, messages[0].CreatedAt, conversations[0].StartTime)
	assert.Equal(t, messages[2].CreatedAt, conversations[1].StartTime)
}

func TestGroupConversationsGapIsStrict(t *testing.T) {
	// 间隔恰好等于阈值时不切分
	messages := makeMessages(t,
		"2026-03-10 09:00:00",
		"2026-03-10 09:30:00",
		"2026-03-10 09:30:00", // 同一时刻绝不切分
	)

	conversations := GroupConversations(messages, 30*time.Minute)

	require.Len(t, conversations, 1)
	assert.Len(t, conversations[0].Messages, 3)
}

func TestGroupConversationsPreservesEveryMessage(t *testing.T) {
	messages := makeMessages(t,
		"2026-03-10 08:00:00",
		"2026-03-10 08:40:00",
		"2026-03-10 09:30:00",
		"2026-03-10 09:31:00",
		"2026-03-10 12:00:00",
	)

	conversations := GroupConversations(messages, 30*time.Minute)

	// 拼回所有会话应恢复原始消息流，顺序不变
	var rebuilt []model.Message
	for _, conv := range conversations {
		assert.Equal(t, len(conv.Messages), conv.MessageCount)
		rebuilt = append(rebuilt, conv.Messages...)
	}
	require.Len(t, rebuilt, len(messages))
	for i := range messages {
		assert.Equal(t, messages[i].ID, rebuilt[i].ID)
	}
}

func TestGroupConversationsSingleMessage(t *testing.T) {
	messages := makeMessages(t, "2026-03-10 09:00:00")

	conversations := GroupConversations(messages, 30*time.Minute)

	require.Len(t, conversations, 1)
	assert.Equal(t, 1, conversations[0].MessageCount)
	assert.Equal(t, "stu-1", conversations[0].StudentID)
}

func TestGroupConversationsEmptyInput(t *testing.T) {
	conversations := GroupConversations(nil, 30*time.Minute)

	require.NotNil(t, conversations)
	assert.Empty(t, conversations)
}

func TestGroupConversationsDefaultGap(t *testing.T) {
	messages := makeMessages(t,
		"2026-03-10 09:00:00",
		"2026-03-10 09:31:00", // 超过默认 30 分钟
	)

	conversations := GroupConversations(messages, 0)

	require.Len(t, conversations, 2)
}
