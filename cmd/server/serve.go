package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatdesk-go/internal/config"
	"chatdesk-go/internal/model"
	"chatdesk-go/internal/repository"
	"chatdesk-go/internal/router"
	"chatdesk-go/internal/service"
	"chatdesk-go/pkg/database"
	"chatdesk-go/pkg/kafka"
	"chatdesk-go/pkg/llm"
	"chatdesk-go/pkg/log"
	"chatdesk-go/pkg/storage"
	"chatdesk-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const profileCacheTTL = 10 * time.Minute

// app 持有服务运行所需的全部依赖。
type app struct {
	cfg       *config.Config
	db        *gorm.DB
	rdb       *redis.Client
	jwt       *token.JWTManager
	publisher *kafka.Publisher

	users     service.UserService
	sessions  service.SessionService
	chat      service.ChatService
	documents service.DocumentService
	admin     service.AdminService
	tokens    repository.TokenRepository
}

// loadConfig 加载配置并初始化日志。配置缺失或无效时直接返回错误。
func loadConfig() (*config.Config, error) {
	if err := config.Init(configPath); err != nil {
		return nil, err
	}
	cfg := &config.Conf
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	return cfg, nil
}

// openDB 连接数据库并同步表结构。
func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := model.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}

// newApp 按 配置 -> 数据库/Redis -> Repository -> Service 的顺序组装依赖。
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: db}
	rdb, err := database.NewRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err != nil {
		a.close()
		return nil, err
	}
	a.rdb = rdb
	jwtManager, err := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours)
	if err != nil {
		a.close()
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	tokenRepo := repository.NewTokenRepository(rdb)
	profileCache := repository.NewProfileCache(rdb, profileCacheTTL)

	a.jwt = jwtManager
	a.tokens = tokenRepo

	// 对象存储与事件发布都是可选的，未配置时传入 nil 接口
	var store service.ObjectStore
	if cfg.MinIO.Enabled {
		minioStore, err := storage.NewMinIOStore(ctx, cfg.MinIO)
		if err != nil {
			a.close()
			return nil, err
		}
		store = minioStore
	}
	var publisher service.EventPublisher
	if cfg.Kafka.Brokers != "" {
		a.publisher = kafka.NewPublisher(cfg.Kafka)
		publisher = a.publisher
	}

	var responder service.Responder = service.NewStaticResponder()
	if cfg.LLM.APIKey != "" {
		client := llm.NewClient(cfg.LLM, nil)
		responder = service.NewLLMResponder(client, cfg.LLM.SystemPrompt, cfg.LLM.HistoryLimit, llm.GenerationFromConfig(cfg.LLM.Generation))
		log.Infof("LLM responder enabled, model=%s", cfg.LLM.Model)
	}

	a.users = service.NewUserService(userRepo, tokenRepo, profileCache, jwtManager)
	a.sessions = service.NewSessionService(sessionRepo)
	a.chat = service.NewChatService(a.sessions, responder, nil)
	a.documents = service.NewDocumentService(documentRepo, store, publisher)
	a.admin = service.NewAdminService(userRepo)
	return a, nil
}

// close 依次关闭外部连接，失败只记录日志。
func (a *app) close() {
	if a.publisher != nil {
		closeWithLog("kafka publisher", a.publisher)
	}
	if a.rdb != nil {
		closeWithLog("redis client", a.rdb)
	}
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			log.Warnf("failed to get sql.DB for shutdown: %v", err)
			return
		}
		closeWithLog("database", sqlDB)
	}
}

func closeWithLog(name string, c io.Closer) error {
	err := c.Close()
	if err != nil {
		log.Warnf("failed to close %s: %v", name, err)
	}
	return err
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize application", err)
		return err
	}
	defer a.close()

	if err := a.users.SeedAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Error("failed to seed admin user", err)
		return err
	}

	gin.SetMode(cfg.Server.Mode)
	r := router.New(router.Deps{
		JWT:             a.jwt,
		Revocations:     a.tokens,
		IdentityPaths:   cfg.Identity.Paths,
		CookieSecure:    cfg.Server.CookieSecure,
		UserService:     a.users,
		SessionService:  a.sessions,
		ChatService:     a.chat,
		DocumentService: a.documents,
		AdminService:    a.admin,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP 服务监听失败: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP 服务器关闭失败: %w", err)
	}
	log.Info("服务已优雅关闭")
	return nil
}

func runMigrate() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer (&app{db: db}).close()
	log.Info("数据库表结构已同步")
	return nil
}
