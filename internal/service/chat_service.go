package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"edu-tutor-server/internal/config"
	"edu-tutor-server/internal/model"
	"edu-tutor-server/internal/repository"
	"edu-tutor-server/internal/storage"
	"edu-tutor-server/pkg/pdftext"
	"edu-tutor-server/pkg/util"
)

// ==================== 编排错误 ====================

// OrchestratorErrorKind 单轮编排的失败类别
type OrchestratorErrorKind string

const (
	// KindTimeout 整轮编排超出取消预算
	KindTimeout OrchestratorErrorKind = "timeout"
	// KindUpstream 补全服务返回非成功状态或网络失败
	KindUpstream OrchestratorErrorKind = "upstream"
	// KindMalformedResponse 补全服务返回了无法解析的响应体
	KindMalformedResponse OrchestratorErrorKind = "malformed_response"
)

// OrchestratorError 补全编排的领域错误
// 携带分类和可展示给调用方的细节
type OrchestratorError struct {
	Kind   OrchestratorErrorKind // 失败类别
	Detail string                // 人类可读的细节（日志用，英文）
	Err    error                 // 底层错误
}

func (e *OrchestratorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("orchestrator %s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("orchestrator %s: %s", e.Kind, e.Detail)
}

func (e *OrchestratorError) Unwrap() error {
	return e.Err
}

// UserMessage 返回适合直接展示给学生的中文提示
func (e *OrchestratorError) UserMessage() string {
	switch e.Kind {
	case KindTimeout:
		return "抱歉，这次回答用时太久了，请再试一次。"
	case KindMalformedResponse:
		return "抱歉，我这边出了点小问题，请再问一次。"
	default:
		return "抱歉，服务暂时不可用，请稍后再试。"
	}
}

// IsTimeout 判断错误是否为编排超时
func IsTimeout(err error) bool {
	var oe *OrchestratorError
	return errors.As(err, &oe) && oe.Kind == KindTimeout
}

// IsUpstream 判断错误是否为补全服务失败
func IsUpstream(err error) bool {
	var oe *OrchestratorError
	return errors.As(err, &oe) && oe.Kind == KindUpstream
}

// IsMalformedResponse 判断错误是否为响应体不可解析
func IsMalformedResponse(err error) bool {
	var oe *OrchestratorError
	return errors.As(err, &oe) && oe.Kind == KindMalformedResponse
}

// ==================== 编排服务 ====================

// ExtractedTextCache PDF 提取文本缓存的抽象
// 由 cache.RedisCache 实现
type ExtractedTextCache interface {
	GetExtractedText(ctx context.Context, resourcePath string) (string, bool, error)
	SetExtractedText(ctx context.Context, resourcePath, text string) error
}

// ChatService 单轮补全编排服务
// 负责组装角色提示词、拉取 PDF 背景材料、调用补全接口并落库
type ChatService struct {
	cfg         *config.Config
	messageRepo *repository.MessageRepository
	store       storage.ObjectStorage
	textCache   ExtractedTextCache
	client      *http.Client
}

// NewChatService 创建补全编排服务
// HTTP 客户端不设超时，单轮预算由 ctx 统一控制
func NewChatService(cfg *config.Config, messageRepo *repository.MessageRepository, store storage.ObjectStorage, textCache ExtractedTextCache) *ChatService {
	return &ChatService{
		cfg:         cfg,
		messageRepo: messageRepo,
		store:       store,
		textCache:   textCache,
		client:      &http.Client{},
	}
}

// ==================== 提示词组装 ====================

// DocumentSummaryRequest 只附带文档不带提问时使用的默认问题
// 对应"上传文档即请求摘要"的交互
const DocumentSummaryRequest = "Can you give me a summary of this document?"

// degradedGroundingNotice 背景材料拉取失败时注入的降级提示
// 措辞必须让模型承认局限，而不是假装读过文档
const degradedGroundingNotice = "Note: I could not access the full content of the PDF document due to a technical error. Please answer the question as best you can, and be transparent that you were unable to read the attached document."

// subjectPrompt 组装学科老师角色提示词
// 提示词用英文书写，补全服务对英文指令的遵循度更高
func subjectPrompt(subject string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an experienced and kind %s teacher. You help students learn and understand %s.\n\n", subject, subject)
	sb.WriteString("Follow these instructions:\n")
	sb.WriteString("1. Always be patient, encouraging and positive with the student.\n")
	sb.WriteString("2. Explain concepts step by step, using simple words adapted to the student's level.\n")
	sb.WriteString("3. Use concrete examples from everyday life to illustrate abstract ideas.\n")
	sb.WriteString("4. Ask guiding questions instead of giving the full answer immediately.\n")
	sb.WriteString("5. When the student makes a mistake, correct it gently and explain why.\n")
	sb.WriteString("6. Stay strictly within the subject; politely redirect off-topic questions.\n")
	sb.WriteString("7. When a document is provided, base your answers on its content first.\n")
	sb.WriteString("8. Congratulate the student on progress and effort.\n")
	sb.WriteString("9. Keep answers focused; avoid unnecessarily long responses.\n")
	sb.WriteString("10. Always answer in the language the student writes in.\n")
	if strings.Contains(subject, "English") {
		sb.WriteString("\nAdditional rule: you are a language teacher, so never translate for the student; help them express themselves in English instead.")
	}
	return sb.String()
}

// composeUserMessage 组装带背景材料的用户消息
// groundingText 为空表示无附件或拉取失败后降级
func composeUserMessage(userMessage, groundingText string, degraded bool) string {
	if groundingText != "" {
		return fmt.Sprintf("Content of the PDF document:\n\n%s\n\nUser question:\n%s", groundingText, userMessage)
	}
	if degraded {
		return fmt.Sprintf("%s\n\nUser question:\n%s", degradedGroundingNotice, userMessage)
	}
	return userMessage
}

// groundingText 获取资源的提取文本
// 优先走 Redis 缓存，未命中时通过签名 URL 拉取并解码 PDF
// 任何一步失败都返回错误，由调用方决定是否降级
func (s *ChatService) groundingText(ctx context.Context, resourcePath string) (string, error) {
	if s.textCache != nil {
		if text, ok, err := s.textCache.GetExtractedText(ctx, resourcePath); err != nil {
			log.Printf("[WARN] 读取提取文本缓存失败: %v", err)
		} else if ok {
			return text, nil
		}
	}

	data, err := storage.FetchSigned(ctx, s.store, s.client, resourcePath, s.cfg.Storage.SignedURLTTL)
	if err != nil {
		return "", fmt.Errorf("fetch resource: %w", err)
	}

	text, err := pdftext.Extract(data)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	// 回写缓存失败不影响本轮回答
	if s.textCache != nil {
		if err := s.textCache.SetExtractedText(ctx, resourcePath, text); err != nil {
			log.Printf("[WARN] 回写提取文本缓存失败: %v", err)
		}
	}
	return text, nil
}

// ==================== 补全调用 ====================

// completionRequest OpenAI Chat Completions 协议的请求体
type completionRequest struct {
	Model            string              `json:"model"`
	Messages         []completionMessage `json:"messages"`
	Temperature      float64             `json:"temperature"`
	MaxTokens        int                 `json:"max_tokens"`
	TopP             float64             `json:"top_p"`
	PresencePenalty  float64             `json:"presence_penalty"`
	FrequencyPenalty float64             `json:"frequency_penalty"`
	Stream           bool                `json:"stream"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// completionErrorBody 补全服务的错误响应体
type completionErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Answer 执行一轮补全编排
// 整轮（含背景材料拉取）共享同一个取消预算，超出预算返回 timeout 类错误。
// resourcePath 非空时注入 PDF 文本；拉取或解码失败则降级继续，不中断本轮。
//
// 参数:
//   - ctx: 调用方上下文，内部叠加 AI.Timeout 预算
//   - subject: 基础科目名（已去掉班级记号）
//   - userMessage: 学生的原始问题
//   - resourcePath: 关联的资源路径，无附件时为 nil
//
// 返回:
//   - string: 补全文本
//   - error: 失败时为 *OrchestratorError
func (s *ChatService) Answer(ctx context.Context, subject, userMessage string, resourcePath *string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AI.Timeout)
	defer cancel()

	grounding := ""
	degraded := false
	if resourcePath != nil && *resourcePath != "" {
		text, err := s.groundingText(ctx, *resourcePath)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", &OrchestratorError{Kind: KindTimeout, Detail: "budget exhausted while fetching grounding document", Err: ctx.Err()}
			}
			// 取消（如被新一轮提问顶替）原样上抛，不按超时归类
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.Printf("[WARN] 背景材料不可用，降级继续: path=%s err=%v", *resourcePath, err)
			degraded = true
		} else {
			grounding = text
		}
	}

	reqBody := completionRequest{
		Model: s.cfg.AI.Model,
		Messages: []completionMessage{
			{Role: "system", Content: subjectPrompt(subject)},
			{Role: "user", Content: composeUserMessage(userMessage, grounding, degraded)},
		},
		Temperature:      s.cfg.AI.Temperature,
		MaxTokens:        s.cfg.AI.MaxTokens,
		TopP:             s.cfg.AI.TopP,
		PresencePenalty:  s.cfg.AI.PresencePenalty,
		FrequencyPenalty: s.cfg.AI.FrequencyPenalty,
		Stream:           false,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &OrchestratorError{Kind: KindMalformedResponse, Detail: "encode request body", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.AI.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", &OrchestratorError{Kind: KindUpstream, Detail: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.AI.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &OrchestratorError{Kind: KindTimeout, Detail: "completion call exceeded budget", Err: err}
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", ctx.Err()
		}
		return "", &OrchestratorError{Kind: KindUpstream, Detail: "completion call failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", &OrchestratorError{Kind: KindTimeout, Detail: "reading response exceeded budget", Err: err}
		}
		return "", &OrchestratorError{Kind: KindUpstream, Detail: "read response body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := fmt.Sprintf("status %d", resp.StatusCode)
		var errBody completionErrorBody
		if json.Unmarshal(body, &errBody) == nil && errBody.Error.Message != "" {
			detail = fmt.Sprintf("status %d: %s", resp.StatusCode, errBody.Error.Message)
		}
		return "", &OrchestratorError{Kind: KindUpstream, Detail: detail}
	}

	var result completionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &OrchestratorError{Kind: KindMalformedResponse, Detail: "decode response body", Err: err}
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", &OrchestratorError{Kind: KindMalformedResponse, Detail: "response has no completion content"}
	}

	return result.Choices[0].Message.Content, nil
}

// SaveMessage 将一条消息落库
// 复合科目标签在这里拆分为基础科目和班级，同时抽取主题标签
//
// 参数:
//   - authorID: 消息作者（学生）ID
//   - subjectLabel: 复合科目标签
//   - content: 消息正文
//   - role: user / assistant
//   - resourcePath: 关联资源路径，可为 nil
//
// 返回:
//   - *model.Message: 落库后的消息
//   - error: 数据库错误
func (s *ChatService) SaveMessage(ctx context.Context, authorID, subjectLabel, content, role string, resourcePath *string) (*model.Message, error) {
	subject, classLevel := ParseSubjectLabel(subjectLabel)

	message := &model.Message{
		ID:           util.GenerateUUID(),
		StudentID:    authorID,
		Role:         role,
		Content:      content,
		Subject:      subject,
		ClassLevel:   classLevel,
		Topics:       ExtractTopics(content),
		ResourcePath: resourcePath,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("保存消息失败: %w", err)
	}
	return message, nil
}
