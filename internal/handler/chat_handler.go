// Package handler 提供 HTTP 请求处理器
package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"edu-tutor-server/internal/model"
	"edu-tutor-server/internal/service"
	"edu-tutor-server/internal/storage"
	"edu-tutor-server/pkg/response"
	"edu-tutor-server/pkg/util"
)

// ChatHandler 同步对话请求处理器
// WebSocket 通道之外的一次性问答接口，供脚本和测试使用
type ChatHandler struct {
	chatService *service.ChatService
	store       storage.ObjectStorage
}

// NewChatHandler 创建 ChatHandler 实例
func NewChatHandler(chatService *service.ChatService, store storage.ObjectStorage) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		store:       store,
	}
}

// ChatRequest 同步对话请求体
// Content 为空时必须附带 ResourcePath，此时视为请求文档摘要
type ChatRequest struct {
	Subject      string `json:"subject" binding:"required"` // 复合科目标签
	Content      string `json:"content"`                    // 提问内容
	ResourcePath string `json:"resource_path"`              // 引用的资源路径（可选）
}

// Chat 执行一轮同步问答
// @Summary 同步问答
// @Description 提交一个问题并等待完整回答，整轮共享取消预算
// @Tags 对话
// @Accept json
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param request body ChatRequest true "提问"
// @Success 200 {object} response.Response
// @Router /api/v1/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.Unauthorized(c, "缺少用户标识")
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}

	var resourcePath *string
	if req.ResourcePath != "" {
		resourcePath = util.StringPtr(req.ResourcePath)
	}

	// 只附文档不写问题时，默认请求文档摘要
	if req.Content == "" {
		if resourcePath == nil {
			response.BadRequest(c, "提问内容不能为空")
			return
		}
		req.Content = service.DocumentSummaryRequest
	}

	ctx := c.Request.Context()
	subject := service.BaseSubject(req.Subject)

	userMsg, err := h.chatService.SaveMessage(ctx, userID, req.Subject, req.Content, model.MessageRoleUser, resourcePath)
	if err != nil {
		response.InternalError(c, "保存消息失败")
		return
	}

	answer, err := h.chatService.Answer(ctx, subject, req.Content, resourcePath)
	if err != nil {
		h.writeOrchestratorError(c, err)
		return
	}

	assistantMsg, err := h.chatService.SaveMessage(ctx, userID, req.Subject, answer, model.MessageRoleAssistant, resourcePath)
	if err != nil {
		response.InternalError(c, "保存消息失败")
		return
	}

	response.Success(c, gin.H{
		"user_message":      userMsg,
		"assistant_message": assistantMsg,
	})
}

// writeOrchestratorError 把编排错误映射为业务状态码
func (h *ChatHandler) writeOrchestratorError(c *gin.Context, err error) {
	switch {
	case service.IsTimeout(err):
		response.ErrorWithCode(c, http.StatusGatewayTimeout, response.CodeUpstreamTimeout, "抱歉，这次回答用时太久了，请再试一次。")
	case service.IsMalformedResponse(err):
		response.ErrorWithCode(c, http.StatusBadGateway, response.CodeMalformedResponse, "抱歉，我这边出了点小问题，请再问一次。")
	default:
		response.ErrorWithCode(c, http.StatusBadGateway, response.CodeUpstreamError, "抱歉，服务暂时不可用，请稍后再试。")
	}
}

// UploadAttachment 上传对话附件
// @Summary 上传对话附件
// @Description 学生在提问时临时附带的 PDF，存入 temp/ 前缀，返回可在消息中引用的路径
// @Tags 对话
// @Accept multipart/form-data
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param file formData file true "PDF 文件"
// @Success 201 {object} response.Response
// @Router /api/v1/chat/attachments [post]
func (h *ChatHandler) UploadAttachment(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.Unauthorized(c, "缺少用户标识")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "缺少文件")
		return
	}
	if fileHeader.Header.Get("Content-Type") != service.PDFContentType {
		response.BadFileType(c)
		return
	}
	if fileHeader.Size > service.MaxResourceSize {
		response.FileTooLarge(c)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, "读取文件失败")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.InternalError(c, "读取文件失败")
		return
	}

	path := util.GenerateTempResourcePath(fileHeader.Filename)
	if err := h.store.Upload(c.Request.Context(), path, data, service.PDFContentType); err != nil {
		log.Printf("Failed to upload attachment: %v", err)
		response.InternalError(c, "上传附件失败")
		return
	}

	response.Created(c, gin.H{
		"resource_path": path,
	})
}

// RegisterRoutes 注册对话路由
func (h *ChatHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/chat", h.Chat)
	r.POST("/chat/attachments", h.UploadAttachment)
}
