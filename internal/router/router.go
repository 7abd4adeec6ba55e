// Package router 组装 Gin 引擎与全部路由。
package router

import (
	"net/http"

	"chatdesk-go/internal/handler"
	"chatdesk-go/internal/middleware"
	"chatdesk-go/internal/service"
	"chatdesk-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps 是构建路由所需的依赖。
type Deps struct {
	JWT           *token.JWTManager
	Revocations   middleware.RevocationChecker
	IdentityPaths []string
	CookieSecure  bool

	UserService     service.UserService
	SessionService  service.SessionService
	ChatService     service.ChatService
	DocumentService service.DocumentService
	AdminService    service.AdminService
}

// New 创建路由引擎。身份中间件挂在全局，先于所有处理函数执行。
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestLogger(),
		gin.Recovery(),
		middleware.Identity(d.JWT, middleware.IdentityOptions{
			Paths:        d.IdentityPaths,
			CookieSecure: d.CookieSecure,
			Revocations:  d.Revocations,
		}),
	)

	userHandler := handler.NewUserHandler(d.UserService)
	authHandler := handler.NewAuthHandler(d.UserService, d.CookieSecure)
	chatHandler := handler.NewChatHandler(d.ChatService)
	sessionHandler := handler.NewSessionHandler(d.SessionService)
	documentHandler := handler.NewDocumentHandler(d.DocumentService)
	adminHandler := handler.NewAdminHandler(d.AdminService)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/identity", userHandler.GetIdentity)

	auth := r.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/signin", authHandler.Signin)
		auth.POST("/signout", authHandler.Signout)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	r.POST("/chat", chatHandler.SendMessage)
	r.GET("/chat", chatHandler.GetMessages)

	sessions := r.Group("/chat/sessions")
	{
		sessions.GET("", sessionHandler.ListSessions)
		sessions.POST("", sessionHandler.CreateSession)
		// 静态路径 clear 优先于 :id 匹配
		sessions.DELETE("/clear", sessionHandler.ClearSessions)
		sessions.POST("/clear", sessionHandler.ClearSessions)
		sessions.DELETE("/:id", sessionHandler.DeleteSession)
	}

	documents := r.Group("/documents")
	{
		documents.POST("", documentHandler.Upload)
		documents.GET("", documentHandler.List)
		documents.DELETE("/:id", documentHandler.Delete)
	}

	admin := r.Group("/admin")
	admin.Use(middleware.AdminAuthMiddleware(d.UserService))
	{
		admin.GET("/users", adminHandler.ListUsers)
	}

	return r
}
