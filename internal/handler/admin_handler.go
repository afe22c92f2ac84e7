package handler

import (
	"net/http"
	"strconv"

	"docforge-go/internal/config"
	"docforge-go/internal/model"
	"docforge-go/internal/repository"
	"docforge-go/pkg/log"
	"docforge-go/pkg/token"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AdminHandler 负责处理所有与管理员相关的 API 请求。
type AdminHandler struct {
	userRepo   repository.UserRepository
	jwtManager *token.JWTManager
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(userRepo repository.UserRepository, jwtManager *token.JWTManager) *AdminHandler {
	return &AdminHandler{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

// LoginRequest 定义了管理端登录 API 的请求体结构。
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 处理管理员登录请求，校验通过后签发 JWT。
func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Login: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载", "data": nil})
		return
	}

	adminCfg := config.Conf.Admin
	if req.Username != adminCfg.Username ||
		bcrypt.CompareHashAndPassword([]byte(adminCfg.PasswordHash), []byte(req.Password)) != nil {
		log.Warnf("Login: 管理员登录失败, username=%s", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "用户名或密码错误", "data": nil})
		return
	}

	tokenString, err := h.jwtManager.GenerateToken(req.Username, "ADMIN")
	if err != nil {
		log.Error("Login: 签发 token 失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "签发 token 失败", "data": nil})
		return
	}

	log.Infof("管理员 '%s' 登录成功", req.Username)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": gin.H{
		"accessToken": tokenString,
	}})
}

// AdminUserView 是用户列表接口返回的单个用户视图。
type AdminUserView struct {
	UserID           uint64          `json:"userId"`
	Username         string          `json:"username"`
	FirstName        string          `json:"firstName"`
	Language         string          `json:"language"`
	DailyLimit       int             `json:"dailyLimit"`
	UsedToday        int             `json:"usedToday"`
	TotalGenerations int64           `json:"totalGenerations"`
	CreatedAt        model.LocalTime `json:"createdAt"`
}

// UserListResponse 是分页用户列表的响应结构。
type UserListResponse struct {
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
	Users []AdminUserView `json:"users"`
}

// ListUsers 处理分页获取用户列表的请求。
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}

	users, total, err := h.userRepo.FindWithPagination(page, size)
	if err != nil {
		log.Error("ListUsers: Failed to list users", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取用户列表失败", "data": nil})
		return
	}

	views := make([]AdminUserView, 0, len(users))
	for _, u := range users {
		views = append(views, AdminUserView{
			UserID:           u.ID,
			Username:         u.Username,
			FirstName:        u.FirstName,
			Language:         u.Language,
			DailyLimit:       u.DailyLimit,
			UsedToday:        u.UsedToday,
			TotalGenerations: u.TotalGenerations,
			CreatedAt:        model.LocalTime(u.CreatedAt),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": UserListResponse{
			Total: total,
			Page:  page,
			Size:  size,
			Users: views,
		},
	})
}
