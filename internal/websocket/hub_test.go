package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-tutor-server/internal/model"
	"edu-tutor-server/internal/service"
)

// stubOrchestrator 可控制落库时序的对话服务替身
type stubOrchestrator struct {
	answer       string
	assistantIn  chan struct{} // 助手消息开始落库时发信号
	release      chan struct{} // 收到信号后落库才继续
	assistantErr chan error    // 落库时刻的上下文状态
}

func (s *stubOrchestrator) SaveMessage(ctx context.Context, authorID, subjectLabel, content, role string, resourcePath *string) (*model.Message, error) {
	if role == model.MessageRoleAssistant {
		s.assistantIn <- struct{}{}
		<-s.release
		s.assistantErr <- ctx.Err()
	}
	return &model.Message{ID: "msg", StudentID: authorID, Content: content}, nil
}

func (s *stubOrchestrator) Answer(ctx context.Context, subject, userMessage string, resourcePath *string) (string, error) {
	return s.answer, nil
}

func TestAssistantMessagePersistedDespiteLateCancel(t *testing.T) {
	stub := &stubOrchestrator{
		answer:       "ok",
		assistantIn:  make(chan struct{}),
		release:      make(chan struct{}),
		assistantErr: make(chan error, 1),
	}
	hub := NewHub(stub, service.NewTypewriter(time.Millisecond, 1))
	client := NewClient(hub, nil, "stu-1")

	hub.handleUserMessage(client, &UserMessagePayload{Subject: "Biology", Content: "hi"}, "m-1")

	// 等整段回答播放完、落库开始
	select {
	case <-stub.assistantIn:
	case <-time.After(2 * time.Second):
		t.Fatal("assistant save was never reached")
	}

	// Done 事件之后才到达的打断不应丢掉已完整送达的回答
	client.cancelPendingTurn()
	close(stub.release)

	select {
	case err := <-stub.assistantErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("assistant save did not finish")
	}

	// 完整回放应该以 Done 事件收尾
	sawDone := false
	for {
		select {
		case data := <-client.send:
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.Type == TypeAssistantDone {
				sawDone = true
			}
			continue
		default:
		}
		break
	}
	assert.True(t, sawDone)
}
