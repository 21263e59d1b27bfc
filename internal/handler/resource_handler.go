package handler

import (
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"edu-tutor-server/internal/service"
	"edu-tutor-server/internal/storage"
	"edu-tutor-server/pkg/response"
)

// ResourceHandler 教学资源库处理器
type ResourceHandler struct {
	resourceService *service.ResourceService
	store           storage.ObjectStorage
	signedTTL       time.Duration
}

// NewResourceHandler 创建 ResourceHandler 实例
func NewResourceHandler(resourceService *service.ResourceService, store storage.ObjectStorage, signedTTL time.Duration) *ResourceHandler {
	return &ResourceHandler{
		resourceService: resourceService,
		store:           store,
		signedTTL:       signedTTL,
	}
}

// Upload 上传教学资源
// @Summary 上传资源
// @Description 教师上传 PDF 教学材料，50MB 以内
// @Tags 资源
// @Accept multipart/form-data
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param file formData file true "PDF 文件"
// @Param name formData string true "资源名称"
// @Param description formData string false "资源描述"
// @Param subject formData string true "所属科目"
// @Param class_level formData string true "所属班级"
// @Success 201 {object} response.Response
// @Router /api/v1/resources [post]
func (h *ResourceHandler) Upload(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.Unauthorized(c, "缺少用户标识")
		return
	}

	name := c.PostForm("name")
	subject := c.PostForm("subject")
	classLevel := c.PostForm("class_level")
	if name == "" || subject == "" || classLevel == "" {
		response.BadRequest(c, "名称、科目和班级不能为空")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "缺少文件")
		return
	}
	// 先按声明大小拦截，避免白读一个超限文件
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

	resource, err := h.resourceService.Upload(c.Request.Context(), service.UploadInput{
		Name:        name,
		Description: c.PostForm("description"),
		Subject:     subject,
		ClassLevel:  classLevel,
		UploadedBy:  userID,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBadFileType):
			response.BadFileType(c)
		case errors.Is(err, service.ErrFileTooLarge):
			response.FileTooLarge(c)
		default:
			log.Printf("Failed to upload resource: %v", err)
			response.InternalError(c, "上传资源失败")
		}
		return
	}

	response.Created(c, resource)
}

// List 查询资源列表
// @Summary 资源列表
// @Description 列出某科目某班级的资源，按上传时间倒序
// @Tags 资源
// @Produce json
// @Param subject query string true "科目"
// @Param class_level query string true "班级"
// @Success 200 {object} response.Response
// @Router /api/v1/resources [get]
func (h *ResourceHandler) List(c *gin.Context) {
	subject := c.Query("subject")
	classLevel := c.Query("class_level")
	if subject == "" || classLevel == "" {
		response.BadRequest(c, "科目和班级不能为空")
		return
	}

	resources, err := h.resourceService.List(c.Request.Context(), subject, classLevel)
	if err != nil {
		response.InternalError(c, "查询资源列表失败")
		return
	}

	// 附带公开访问 URL，前端直接展示
	items := make([]gin.H, 0, len(resources))
	for _, res := range resources {
		items = append(items, gin.H{
			"resource": res,
			"url":      h.store.GetPublicURL(res.FilePath),
		})
	}

	response.Success(c, gin.H{
		"resources": items,
	})
}

// Delete 删除资源
// @Summary 删除资源
// @Description 只有上传者本人可以删除
// @Tags 资源
// @Param X-User-ID header string true "用户ID"
// @Param id path string true "资源ID"
// @Success 204
// @Router /api/v1/resources/{id} [delete]
func (h *ResourceHandler) Delete(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.Unauthorized(c, "缺少用户标识")
		return
	}

	err := h.resourceService.Delete(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResourceNotFound):
			response.NotFound(c, "资源不存在")
		case errors.Is(err, service.ErrNotOwner):
			response.Forbidden(c, "无权删除该资源")
		default:
			log.Printf("Failed to delete resource: %v", err)
			response.InternalError(c, "删除资源失败")
		}
		return
	}

	response.NoContent(c)
}

// Download 签发资源的限时下载链接
// @Summary 资源下载链接
// @Description 返回短时效的签名下载 URL
// @Tags 资源
// @Produce json
// @Param id path string true "资源ID"
// @Success 200 {object} response.Response
// @Router /api/v1/resources/{id}/download [get]
func (h *ResourceHandler) Download(c *gin.Context) {
	signedURL, err := h.resourceService.DownloadURL(c.Request.Context(), c.Param("id"), h.signedTTL)
	if err != nil {
		if errors.Is(err, service.ErrResourceNotFound) {
			response.NotFound(c, "资源不存在")
			return
		}
		log.Printf("Failed to sign download url: %v", err)
		response.InternalError(c, "生成下载链接失败")
		return
	}

	response.Success(c, gin.H{
		"url": signedURL,
	})
}

// ServeLocalFile 本地存储驱动的文件访问路由
// 路由: GET /files/*path
// 带 token 参数时校验签名 URL，否则按公开访问处理
func (h *ResourceHandler) ServeLocalFile(c *gin.Context) {
	local, ok := h.store.(*storage.LocalStorage)
	if !ok {
		response.NotFound(c, "文件不存在")
		return
	}

	path := strings.TrimPrefix(c.Param("path"), "/")
	if token := c.Query("token"); token != "" {
		if err := local.VerifyToken(token, path); err != nil {
			response.Forbidden(c, "链接已失效")
			return
		}
	}

	fullPath, err := local.Open(path)
	if err != nil {
		response.NotFound(c, "文件不存在")
		return
	}
	c.File(fullPath)
}

// RegisterRoutes 注册资源库路由
func (h *ResourceHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/resources", h.Upload)
	r.GET("/resources", h.List)
	r.GET("/resources/:id/download", h.Download)
	r.DELETE("/resources/:id", h.Delete)
}
