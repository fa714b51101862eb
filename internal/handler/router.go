package handler

import (
	"news-rag-go/internal/middleware"
	"news-rag-go/internal/service"
	"news-rag-go/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// RouterDeps 汇总路由所需的服务。
type RouterDeps struct {
	Mode         string
	Sessions     SessionStore
	Chat         service.ChatService
	Search       service.SearchService
	Documents    DocumentLister
	Ingester     DocumentIngester
	RequireRedis bool
	IsProduction bool
}

// NewRouter 创建路由引擎并注册所有路由。
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Mode != "" {
		gin.SetMode(deps.Mode)
	}
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.CORS())

	sessionHandler := NewSessionHandler(deps.Sessions, deps.RequireRedis)
	chatHandler := NewChatHandler(deps.Chat, deps.IsProduction)

	api := r.Group("/api")
	{
		api.GET("/health", sessionHandler.Health)

		sessions := api.Group("/sessions")
		{
			sessions.POST("", sessionHandler.Create)
			sessions.GET("/:sessionId/history", sessionHandler.History)
			sessions.DELETE("/:sessionId", sessionHandler.Clear)
		}

		api.POST("/chat", chatHandler.Chat)
		// Chat 路由 (WebSocket)
		api.GET("/chat/ws/:sessionId", chatHandler.Handle)

		if deps.Search != nil {
			api.GET("/search", NewSearchHandler(deps.Search).Search)
		}
		if deps.Documents != nil && deps.Ingester != nil {
			documentHandler := NewDocumentHandler(deps.Documents, deps.Ingester)
			api.GET("/documents", documentHandler.List)
			api.POST("/documents", documentHandler.Ingest)
		}
	}
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	return r
}
