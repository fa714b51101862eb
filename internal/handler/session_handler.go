package handler

import (
	"context"
	"net/http"
	"news-rag-go/internal/model"
	"news-rag-go/pkg/log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionStore 是会话相关接口所需的缓存能力，由 service.SessionCache 实现。
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (model.SessionHistory, error)
	Clear(ctx context.Context, sessionID string) error
	Status(ctx context.Context) string
}

// SessionHandler 处理会话与健康检查相关的 API 请求。
type SessionHandler struct {
	sessions     SessionStore
	requireRedis bool
}

// NewSessionHandler 创建一个新的 SessionHandler。
func NewSessionHandler(sessions SessionStore, requireRedis bool) *SessionHandler {
	return &SessionHandler{sessions: sessions, requireRedis: requireRedis}
}

// Health 返回服务状态以及持久层连通性。
func (h *SessionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "OK",
		"timestamp":    time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		"redis":        h.sessions.Status(c.Request.Context()),
		"requireRedis": h.requireRedis,
	})
}

// Create 生成一个新的会话 ID，会话在第一次保存时才真正写入存储。
func (h *SessionHandler) Create(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessionId": uuid.NewString()})
}

// History 返回会话历史，不存在的会话返回空列表。
func (h *SessionHandler) History(c *gin.Context) {
	sessionID := c.Param("sessionId")
	history, err := h.sessions.Load(c.Request.Context(), sessionID)
	if err != nil {
		log.Errorw("获取会话历史失败", "sessionId", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch session history"})
		return
	}
	if history == nil {
		history = model.SessionHistory{}
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// Clear 删除会话历史。
func (h *SessionHandler) Clear(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if err := h.sessions.Clear(c.Request.Context(), sessionID); err != nil {
		log.Errorw("清除会话失败", "sessionId", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session cleared successfully"})
}
