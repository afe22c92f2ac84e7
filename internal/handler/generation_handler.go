package handler

import (
	"net/http"
	"strconv"

	"docforge-go/internal/config"
	"docforge-go/internal/service"
	"docforge-go/pkg/es"
	"docforge-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// GenerationHandler 负责处理生成历史相关的 API 请求。
type GenerationHandler struct {
	generationService service.GenerationService
}

// NewGenerationHandler 创建一个新的 GenerationHandler 实例。
func NewGenerationHandler(generationService service.GenerationService) *GenerationHandler {
	return &GenerationHandler{generationService: generationService}
}

// ListByUser 返回用户最近的生成记录，按创建时间倒序。
func (h *GenerationHandler) ListByUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的用户 ID", "data": nil})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	generations, err := h.generationService.ListByUser(userID, limit)
	if err != nil {
		log.Errorf("ListByUser: 查询用户 %d 生成历史失败: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "查询生成历史失败", "data": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": generations})
}

// StatsByUser 返回指定用户的生成统计。
func (h *GenerationHandler) StatsByUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的用户 ID", "data": nil})
		return
	}

	stats, err := h.generationService.StatsByUser(userID)
	if err != nil {
		log.Errorf("StatsByUser: 查询用户 %d 生成统计失败: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "查询生成统计失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": stats})
}

// Stats 返回全局的生成统计。
func (h *GenerationHandler) Stats(c *gin.Context) {
	stats, err := h.generationService.Stats()
	if err != nil {
		log.Error("Stats: 查询生成统计失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "查询生成统计失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": stats})
}

// Search 在用户的生成历史中按主题做全文检索。
func (h *GenerationHandler) Search(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的用户 ID", "data": nil})
		return
	}
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "缺少查询参数 q", "data": nil})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	hits, err := es.SearchGenerations(c.Request.Context(), config.Conf.Elasticsearch.IndexName, userID, query, size)
	if err != nil {
		log.Errorf("Search: 检索用户 %d 生成历史失败: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "检索失败", "data": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": hits})
}
