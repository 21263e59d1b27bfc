// Package main 是辅导服务端的入口点
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"edu-tutor-server/internal/cache"
	"edu-tutor-server/internal/config"
	"edu-tutor-server/internal/handler"
	"edu-tutor-server/internal/middleware"
	"edu-tutor-server/internal/model"
	"edu-tutor-server/internal/repository"
	"edu-tutor-server/internal/service"
	"edu-tutor-server/internal/storage"
	"edu-tutor-server/internal/websocket"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// 加载配置
	cfg, err := config.Load("./configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}

	// 自动迁移数据库表
	if err := autoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// 初始化 Redis
	redisCache, err := cache.NewRedisCache(cfg)
	if err != nil {
		log.Fatalf("Failed to init redis: %v", err)
	}

	// 初始化对象存储
	store, err := storage.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}

	// 初始化 Repository 层
	messageRepo := repository.NewMessageRepository(db)
	resourceRepo := repository.NewResourceRepository(db)

	// 初始化 Service 层
	chatService := service.NewChatService(cfg, messageRepo, store, redisCache)
	historyService := service.NewHistoryService(messageRepo, cfg.Chat.ConversationGap)
	resourceService := service.NewResourceService(resourceRepo, store, redisCache)
	typewriter := service.NewTypewriter(cfg.Chat.TypingInterval, cfg.Chat.TypingChunk)

	// 初始化 WebSocket Hub
	wsHub := websocket.NewHub(chatService, typewriter)
	go wsHub.Run() // 在单独的 goroutine 中运行

	// 初始化 Handler 层
	chatHandler := handler.NewChatHandler(chatService, store)
	historyHandler := handler.NewHistoryHandler(historyService)
	resourceHandler := handler.NewResourceHandler(resourceService, store, cfg.Storage.SignedURLTTL)
	wsHandler := websocket.NewHandler(wsHub)

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建 Gin 引擎
	router := gin.New()

	// 全局中间件
	router.Use(gin.Recovery())                                              // 恢复 panic
	router.Use(middleware.LoggerMiddleware())                               // 请求日志
	router.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig(cfg.Server.CORS))) // CORS

	// 注册路由
	registerRoutes(router, cfg, chatHandler, historyHandler, resourceHandler, wsHandler)

	// 创建 HTTP 服务器
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// 同步问答接口会等待完整补全，写超时要覆盖编排预算
		WriteTimeout: cfg.AI.Timeout + 10*time.Second,
	}

	// 在 goroutine 中启动服务器
	go func() {
		log.Printf("Server starting on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// 创建关闭上下文，设置超时
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// 关闭 Redis 连接
	if err := redisCache.Close(); err != nil {
		log.Printf("Failed to close redis: %v", err)
	}

	log.Println("Server exited")
}

// initDatabase 初始化数据库连接
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	// 构建 DSN (Data Source Name)
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.MySQL.Username,
		cfg.MySQL.Password,
		cfg.MySQL.Host,
		cfg.MySQL.Port,
		cfg.MySQL.Database,
		cfg.MySQL.Charset,
	)

	// 配置 GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.Mode == "release" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	// 连接数据库
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 获取底层 sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 配置连接池
	sqlDB.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MySQL.MaxLifetime) * time.Second)

	log.Println("Database connected successfully")
	return db, nil
}

// autoMigrate 自动迁移数据库表
func autoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	if err := db.AutoMigrate(
		&model.Message{},
		&model.Resource{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	log.Println("Database migrations completed")
	return nil
}

// registerRoutes 注册所有路由
func registerRoutes(
	router *gin.Engine,
	cfg *config.Config,
	chatHandler *handler.ChatHandler,
	historyHandler *handler.HistoryHandler,
	resourceHandler *handler.ResourceHandler,
	wsHandler *websocket.Handler,
) {
	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		chatHandler.RegisterRoutes(v1)
		historyHandler.RegisterRoutes(v1)
		resourceHandler.RegisterRoutes(v1)
	}

	// 本地存储驱动的文件访问路由
	if cfg.Storage.Driver == "local" || cfg.Storage.Driver == "" {
		router.GET("/files/*path", resourceHandler.ServeLocalFile)
	}

	// WebSocket 路由
	wsHandler.RegisterRoutes(router)
}
