// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"news-rag-go/internal/service"
	"news-rag-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	errMissingFields  = "Session ID and message are required"
	errProcessMessage = "Failed to process message"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // 允许所有来源
		},
	}
)

// ChatRequest 是 POST /api/chat 的请求体。
type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// wsChatRequest 是 WebSocket 上的单条请求，会话 ID 来自路径。
type wsChatRequest struct {
	Message string `json:"message"`
}

// ChatHandler 负责处理问答请求（HTTP 与 WebSocket）。
type ChatHandler struct {
	chatService  service.ChatService
	isProduction bool
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, isProduction bool) *ChatHandler {
	return &ChatHandler{
		chatService:  chatService,
		isProduction: isProduction,
	}
}

// Chat 处理一次问答。参数校验在访问缓存和向量库之前完成。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errMissingFields})
		return
	}

	reply, err := h.chatService.Chat(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, h.errorPayload(err))
		return
	}
	c.JSON(http.StatusOK, reply)
}

// Handle 处理一个 WebSocket 连接，每条文本消息是一轮问答。
func (h *ChatHandler) Handle(c *gin.Context) {
	sessionID := c.Param("sessionId")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，会话: %s", sessionID)
	ctx := c.Request.Context()
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
			}
			return
		}
		if err := conn.WriteJSON(h.handleFrame(ctx, sessionID, message)); err != nil {
			log.Warnf("写入 WebSocket 响应失败: %v", err)
			return
		}
	}
}

func (h *ChatHandler) handleFrame(ctx context.Context, sessionID string, message []byte) interface{} {
	var req wsChatRequest
	if err := json.Unmarshal(message, &req); err != nil || sessionID == "" || req.Message == "" {
		return gin.H{"error": errMissingFields}
	}
	reply, err := h.chatService.Chat(ctx, sessionID, req.Message)
	if err != nil {
		return h.errorPayload(err)
	}
	return reply
}

// errorPayload 构造通用失败响应，非生产环境附带错误细节。
func (h *ChatHandler) errorPayload(err error) gin.H {
	payload := gin.H{"error": errProcessMessage}
	if !h.isProduction {
		payload["details"] = err.Error()
	}
	return payload
}
