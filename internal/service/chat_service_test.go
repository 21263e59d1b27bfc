package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-tutor-server/internal/config"
)

// ==================== 测试替身 ====================

// stubStorage 不可用的对象存储，用于触发接地降级
type stubStorage struct{}

func (stubStorage) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	return nil
}

func (stubStorage) Remove(ctx context.Context, paths []string) error {
	return nil
}

func (stubStorage) GetPublicURL(path string) string {
	return "http://unreachable.invalid/" + path
}

func (stubStorage) CreateSignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return "http://unreachable.invalid/" + path, nil
}

// stubTextCache 固定命中的提取文本缓存
type stubTextCache struct {
	text string
}

func (c *stubTextCache) GetExtractedText(ctx context.Context, resourcePath string) (string, bool, error) {
	return c.text, true, nil
}

func (c *stubTextCache) SetExtractedText(ctx context.Context, resourcePath, text string) error {
	return nil
}

func testConfig(baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.AI.APIKey = "test-key"
	cfg.AI.BaseURL = baseURL
	cfg.AI.Model = "deepseek-chat"
	cfg.AI.Timeout = 5 * time.Second
	cfg.AI.Temperature = 1.2
	cfg.AI.MaxTokens = 3000
	cfg.AI.TopP = 0.9
	cfg.Storage.SignedURLTTL = time.Minute
	return cfg
}

func completionJSON(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` + mustJSON(content) + `}}]}`
}

func mustJSON(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

// ==================== Answer ====================

func TestAnswerSuccess(t *testing.T) {
	var gotBody completionRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		io.WriteString(w, completionJSON("Bonjour! Let's review fractions."))
	}))
	defer srv.Close()

	svc := NewChatService(testConfig(srv.URL), nil, stubStorage{}, nil)
	answer, err := svc.Answer(context.Background(), "Mathematics", "What is a fraction?", nil)

	require.NoError(t, err)
	assert.Equal(t, "Bonjour! Let's review fractions.", answer)
	assert.Equal(t, "Bearer test-key", gotAuth)

	// 采样参数与配置一致，非流式
	assert.Equal(t, "deepseek-chat", gotBody.Model)
	assert.InDelta(t, 1.2, gotBody.Temperature, 1e-9)
	assert.Equal(t, 3000, gotBody.MaxTokens)
	assert.False(t, gotBody.Stream)

	// 第一条是角色提示词，第二条是原样的学生提问
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Contains(t, gotBody.Messages[0].Content, "Mathematics teacher")
	assert.Equal(t, "What is a fraction?", gotBody.Messages[1].Content)
}

func TestAnswerEnglishSubjectNeverTranslates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "never translate")
		io.WriteString(w, completionJSON("ok"))
	}))
	defer srv.Close()

	svc := NewChatService(testConfig(srv.URL), nil, stubStorage{}, nil)
	_, err := svc.Answer(context.Background(), "English", "How do I say hello?", nil)

	require.NoError(t, err)
}

func TestAnswerGroundedWithCachedText(t *testing.T) {
	var gotUserContent string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req completionRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		gotUserContent = req.Messages[1].Content
		io.WriteString(w, completionJSON("see page 3"))
	}))
	defer srv.Close()

	cache := &stubTextCache{text: "Chapter 1: cells are the unit of life."}
	svc := NewChatService(testConfig(srv.URL), nil, stubStorage{}, cache)

	path := "biology/5th-grade/doc.pdf"
	_, err := svc.Answer(context.Background(), "Biology", "What is a cell?", &path)

	require.NoError(t, err)
	assert.Contains(t, gotUserContent, "Content of the PDF document:")
	assert.Contains(t, gotUserContent, "cells are the unit of life")
	assert.Contains(t, gotUserContent, "What is a cell?")
}

func TestAnswerDegradesWhenGroundingUnavailable(t *testing.T) {
	var gotUserContent string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req completionRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		gotUserContent = req.Messages[1].Content
		io.WriteString(w, completionJSON("sorry, working without the document"))
	}))
	defer srv.Close()

	// 存储签名成功但下载地址不可达，接地获取必然失败
	svc := NewChatService(testConfig(srv.URL), nil, stubStorage{}, nil)

	path := "biology/5th-grade/doc.pdf"
	answer, err := svc.Answer(context.Background(), "Biology", "What is a cell?", &path)

	// 降级继续而不是中断
	require.NoError(t, err)
	assert.Equal(t, "sorry, working without the document", answer)
	assert.Contains(t, gotUserContent, "could not access the full content of the PDF document")
	assert.NotContains(t, gotUserContent, "Content of the PDF document:")
}

func TestAnswerUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"rate limited"}}`)
	}))
	defer srv.Close()

	svc := NewChatService(testConfig(srv.URL), nil, stubStorage{}, nil)
	_, err := svc.Answer(context.Background(), "Biology", "hi", nil)

	require.Error(t, err)
	assert.True(t, IsUpstream(err))
	assert.Contains(t, err.Error(), "rate limited")
}

func TestAnswerMalformedResponse(t *testing.T) {
	cases := map[string]string{
		"invalid json":  "not json at all",
		"empty choices": `{"choices":[]}`,
		"empty content": `{"choices":[{"message":{"content":""}}]}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			}))
			defer srv.Close()

			svc := NewChatService(testConfig(srv.URL), nil, stubStorage{}, nil)
			_, err := svc.Answer(context.Background(), "Biology", "hi", nil)

			require.Error(t, err)
			assert.True(t, IsMalformedResponse(err))
		})
	}
}

func TestAnswerTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		io.WriteString(w, completionJSON("too late"))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.AI.Timeout = 30 * time.Millisecond

	svc := NewChatService(cfg, nil, stubStorage{}, nil)
	_, err := svc.Answer(context.Background(), "Biology", "hi", nil)

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestAnswerCanceledIsNotTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, completionJSON("unused"))
	}))
	defer srv.Close()

	svc := NewChatService(testConfig(srv.URL), nil, stubStorage{}, nil)

	// 新一轮提问顶替旧轮次时上下文被取消，取消不应被归类为超时
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := "biology/5th_grade/1_doc.pdf"
	_, err := svc.Answer(ctx, "Biology", "hi", &path)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTimeout(err))
	assert.False(t, IsUpstream(err))
}

func TestOrchestratorErrorUserMessage(t *testing.T) {
	assert.Contains(t, (&OrchestratorError{Kind: KindTimeout}).UserMessage(), "再试一次")
	assert.Contains(t, (&OrchestratorError{Kind: KindUpstream}).UserMessage(), "稍后再试")
	assert.Contains(t, (&OrchestratorError{Kind: KindMalformedResponse}).UserMessage(), "再问一次")
}
