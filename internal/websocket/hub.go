package websocket

import (
	"context"
	"errors"
	"log"
	"sync"

	"edu-tutor-server/internal/model"
	"edu-tutor-server/internal/service"
	"edu-tutor-server/pkg/util"
)

// chatOrchestrator Hub 依赖的对话编排能力
type chatOrchestrator interface {
	SaveMessage(ctx context.Context, authorID, subjectLabel, content, role string, resourcePath *string) (*model.Message, error)
	Answer(ctx context.Context, subject, userMessage string, resourcePath *string) (string, error)
}

var _ chatOrchestrator = (*service.ChatService)(nil)

// Hub 是 WebSocket 连接的中心管理器
// 负责：
// 1. 管理所有学生端连接
// 2. 编排每一轮提问/回答
// 3. 按打字机节奏推送回答增量
type Hub struct {
	// 学生端客户端集合
	// 一个学生可能有多个连接（多设备登录），每个连接独立对话
	clients map[*Client]struct{}

	// 注册通道
	register chan *Client

	// 注销通道
	unregister chan *Client

	// 互斥锁，保护并发访问
	mu sync.RWMutex

	// 依赖的服务
	chatService chatOrchestrator
	typewriter  *service.Typewriter
}

// NewHub 创建 Hub 实例
func NewHub(chatService chatOrchestrator, typewriter *service.Typewriter) *Hub {
	return &Hub{
		clients:     make(map[*Client]struct{}),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		chatService: chatService,
		typewriter:  typewriter,
	}
}

// Run 启动 Hub 的主循环
// 应该在单独的 goroutine 中运行
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// Register 注册客户端
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// registerClient 注册客户端
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = struct{}{}
	log.Printf("Chat client registered: userID=%s", client.userID)
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[client]; exists {
		delete(h.clients, client)
		client.cancelPendingTurn()
		client.Close()
		log.Printf("Chat client unregistered: userID=%s", client.userID)
	}
}

// handleUserMessage 处理一条学生提问
// 新提问会取消同一连接上还在输出的上一轮回答
func (h *Hub) handleUserMessage(client *Client, payload *UserMessagePayload, messageID string) {
	if payload.Subject == "" {
		client.SendMessage(NewMessage(TypeError, ErrorPayload{Code: 400, Message: "科目不能为空"}))
		return
	}

	var resourcePath *string
	if payload.ResourcePath != "" {
		resourcePath = util.StringPtr(payload.ResourcePath)
	}

	// 只附文档不写问题时，默认请求文档摘要
	if payload.Content == "" {
		if resourcePath == nil {
			client.SendMessage(NewMessage(TypeError, ErrorPayload{Code: 400, Message: "提问内容不能为空"}))
			return
		}
		payload.Content = service.DocumentSummaryRequest
	}

	ctx := client.newTurnContext()

	// 每轮回答在独立的 goroutine 中编排，不阻塞读循环
	go func() {
		subject := service.BaseSubject(payload.Subject)

		// 先落库学生消息
		if _, err := h.chatService.SaveMessage(ctx, client.userID, payload.Subject, payload.Content, model.MessageRoleUser, resourcePath); err != nil {
			log.Printf("Failed to save user message: %v", err)
		}

		answer, err := h.chatService.Answer(ctx, subject, payload.Content, resourcePath)
		if err != nil {
			if ctx.Err() != nil {
				// 被新提问或主动打断取消，静默结束
				return
			}
			log.Printf("Completion failed: userID=%s err=%v", client.userID, err)
			client.SendMessage(NewMessageWithID(TypeError, ErrorPayload{
				Code:    502,
				Message: completionErrorMessage(err),
			}, messageID))
			return
		}

		// 按打字机节奏推送增量，取消后不再有任何事件
		done := false
		for event := range h.typewriter.Play(ctx, answer) {
			if event.Done {
				done = true
				client.SendMessage(NewMessageWithID(TypeAssistantDone, AssistantDonePayload{
					Content: event.Content,
				}, messageID))
				continue
			}
			client.SendMessage(NewMessageWithID(TypeAssistantDelta, AssistantDeltaPayload{
				Delta:   event.Delta,
				Content: event.Content,
			}, messageID))
		}

		// 只有完整播放结束的回答才落库
		// 回答已经完整送达，落库不再受本轮取消影响
		if !done {
			return
		}
		saveCtx := context.WithoutCancel(ctx)
		if _, err := h.chatService.SaveMessage(saveCtx, client.userID, payload.Subject, answer, model.MessageRoleAssistant, resourcePath); err != nil {
			log.Printf("Failed to save assistant message: %v", err)
		}
	}()
}

// completionErrorMessage 把编排错误转成可展示的中文提示
func completionErrorMessage(err error) string {
	var oe *service.OrchestratorError
	if errors.As(err, &oe) {
		return oe.UserMessage()
	}
	return "抱歉，服务暂时不可用，请稍后再试。"
}

// OnlineCount 返回当前在线的客户端数量
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
