// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docforge-go/internal/config"
	"docforge-go/internal/handler"
	"docforge-go/internal/middleware"
	"docforge-go/internal/model"
	"docforge-go/internal/pipeline"
	"docforge-go/internal/repository"
	"docforge-go/internal/service"
	"docforge-go/pkg/clock"
	"docforge-go/pkg/database"
	"docforge-go/pkg/es"
	"docforge-go/pkg/gate"
	"docforge-go/pkg/kafka"
	"docforge-go/pkg/llm"
	"docforge-go/pkg/log"
	"docforge-go/pkg/render"
	"docforge-go/pkg/storage"
	"docforge-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和外部依赖
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 自动建表
	if err := database.DB.AutoMigrate(&model.User{}, &model.Generation{}, &model.Referral{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	clk, err := clock.New(cfg.Bot.Timezone)
	if err != nil {
		log.Fatalf("时区 '%s' 不可用: %v", cfg.Bot.Timezone, err)
	}

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	generationRepo := repository.NewGenerationRepository(database.DB)
	sessionRepo := repository.NewSessionRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours)
	llmClient := llm.NewClient(cfg.LLM)
	renderClient := render.NewClient(cfg.Render)
	gateClient := gate.NewClient(cfg.Gate)

	quotaService := service.NewQuotaService(userRepo, clk)
	referralService := service.NewReferralService(database.DB, cfg.Bot.ReferralLinkBase, cfg.Bot.ReferralBonus)
	generationService := service.NewGenerationService(generationRepo, clk)

	// 对话处理器与对话服务互为对方的出站/入站通道，分两步装配
	dialogHandler := handler.NewDialogHandler()
	dialogService := service.NewDialogService(
		sessionRepo,
		userRepo,
		quotaService,
		referralService,
		generationService,
		gateClient,
		kafka.NewProducer(),
		dialogHandler,
		clk,
		cfg.Bot.BaselineDailyLimit,
	)
	dialogHandler.SetDialogService(dialogService)

	// 6. 初始化文档生成流水线 (Processor)
	processor := pipeline.NewProcessor(
		llmClient,
		renderClient,
		generationService,
		quotaService,
		dialogService,
		clk,
		cfg.MinIO.BucketName,
		cfg.Elasticsearch.IndexName,
		time.Duration(cfg.Bot.GenerationTimeoutSeconds)*time.Second,
		time.Duration(cfg.Bot.PresignExpireMinutes)*time.Minute,
	)

	// 7. 启动后台 Kafka 消费者
	go kafka.StartConsumer(cfg.Kafka, processor, cfg.Bot.MaxConcurrentGenerations)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	userHandler := handler.NewUserHandler(quotaService, referralService)
	generationHandler := handler.NewGenerationHandler(generationService)
	adminHandler := handler.NewAdminHandler(userRepo, jwtManager)

	// 对话接口 (WebSocket)，仅消息网关可访问
	r.GET("/dialog/ws", middleware.GatewayAuthMiddleware(cfg.Server.GatewayToken), dialogHandler.Handle)

	apiV1 := r.Group("/api/v1")
	{
		// 用户侧 REST 同样只对消息网关开放
		users := apiV1.Group("/users")
		users.Use(middleware.GatewayAuthMiddleware(cfg.Server.GatewayToken))
		{
			users.GET("/:id/quota", userHandler.GetQuota)
			users.GET("/:id/referral", userHandler.GetReferral)
			users.GET("/:id/generations", generationHandler.ListByUser)
			users.GET("/:id/generations/stats", generationHandler.StatsByUser)
			users.GET("/:id/generations/search", generationHandler.Search)
		}

		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", adminHandler.Login)

			authed := admin.Group("/")
			authed.Use(middleware.AdminAuthMiddleware(jwtManager))
			{
				authed.GET("/users", adminHandler.ListUsers)
				authed.GET("/generations/stats", generationHandler.Stats)
			}
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
