// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strconv"

	"docforge-go/internal/service"
	"docforge-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// UserHandler 负责处理用户额度与推荐信息相关的 API 请求。
type UserHandler struct {
	quotaService    service.QuotaService
	referralService *service.ReferralService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(quotaService service.QuotaService, referralService *service.ReferralService) *UserHandler {
	return &UserHandler{
		quotaService:    quotaService,
		referralService: referralService,
	}
}

// GetQuota 返回用户当日剩余额度与上限。
func (h *UserHandler) GetQuota(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的用户 ID", "data": nil})
		return
	}

	remaining, total, err := h.quotaService.Remaining(userID)
	if err != nil {
		log.Errorf("GetQuota: 查询用户 %d 额度失败: %v", userID, err)
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "用户不存在", "data": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": gin.H{
		"userId":     userID,
		"remaining":  remaining,
		"dailyLimit": total,
	}})
}

// GetReferral 返回用户的推荐统计与专属链接。
func (h *UserHandler) GetReferral(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的用户 ID", "data": nil})
		return
	}

	count, err := h.referralService.ReferralCount(userID)
	if err != nil {
		log.Errorf("GetReferral: 查询用户 %d 推荐数失败: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "查询推荐信息失败", "data": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": gin.H{
		"userId":        userID,
		"referralCount": count,
		"referralLink":  h.referralService.ReferralLink(userID),
	}})
}
