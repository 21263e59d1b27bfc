package handler

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"edu-tutor-server/internal/service"
	"edu-tutor-server/pkg/response"
)

// HistoryHandler 历史会话查询处理器
type HistoryHandler struct {
	historyService *service.HistoryService
}

// NewHistoryHandler 创建 HistoryHandler 实例
func NewHistoryHandler(historyService *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
	}
}

// ListConversations 查询历史会话
// @Summary 查询历史会话
// @Description 按科目/班级/日期/关键词查询，结果按天分桶并按不活跃间隔切分成会话
// @Tags 历史
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param subject query string true "复合科目标签"
// @Param class_level query string false "班级"
// @Param role query string true "查询角色: student / teacher"
// @Param start_date query string false "起始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Param search query string false "关键词（大小写不敏感）"
// @Success 200 {object} response.Response
// @Router /api/v1/history [get]
func (h *HistoryHandler) ListConversations(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.Unauthorized(c, "缺少用户标识")
		return
	}

	query := service.HistoryQuery{
		SubjectLabel: c.Query("subject"),
		ClassLevel:   c.Query("class_level"),
		ViewerRole:   c.Query("role"),
		ViewerID:     userID,
		StartDate:    c.Query("start_date"),
		EndDate:      c.Query("end_date"),
		SearchTerm:   c.Query("search"),
	}
	if query.SubjectLabel == "" {
		response.BadRequest(c, "科目不能为空")
		return
	}

	// 客户端发起新查询时会中断上一个请求，
	// 取消信号通过请求上下文传到数据库层
	days, err := h.historyService.LoadConversations(c.Request.Context(), query)
	if err != nil {
		var qe *service.QueryError
		if errors.As(err, &qe) {
			response.BadRequest(c, qe.Message)
			return
		}
		log.Printf("[ERROR] 查询历史会话失败: %v", err)
		response.InternalError(c, "查询历史会话失败")
		return
	}

	response.Success(c, gin.H{
		"days": days,
	})
}

// MessageStats 查询消息总量
// @Summary 消息总量统计
// @Description 统计某科目某班级的历史消息数量，教师端活跃度展示用
// @Tags 历史
// @Produce json
// @Param subject query string true "复合科目标签"
// @Param class_level query string false "班级"
// @Success 200 {object} response.Response
// @Router /api/v1/history/stats [get]
func (h *HistoryHandler) MessageStats(c *gin.Context) {
	subject := c.Query("subject")
	if subject == "" {
		response.BadRequest(c, "科目不能为空")
		return
	}

	count, err := h.historyService.CountMessages(c.Request.Context(), subject, c.Query("class_level"))
	if err != nil {
		var qe *service.QueryError
		if errors.As(err, &qe) {
			response.BadRequest(c, qe.Message)
			return
		}
		log.Printf("[ERROR] 统计消息数量失败: %v", err)
		response.InternalError(c, "统计消息数量失败")
		return
	}

	response.Success(c, gin.H{
		"message_count": count,
	})
}

// RegisterRoutes 注册历史查询路由
func (h *HistoryHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/history", h.ListConversations)
	r.GET("/history/stats", h.MessageStats)
}
