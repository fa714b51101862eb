// Package middleware 存放 Gin 框架的中间件。
package middleware

import (
	"bytes"
	"io"
	"news-rag-go/pkg/log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// maxLoggedBody 限制日志中记录的请求/响应体长度。
const maxLoggedBody = 2048

// bodyLogWriter 用于捕获响应体
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 实现了 io.Writer 接口，将响应写入 gin.ResponseWriter 和一个内部的 buffer
func (w bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// RequestLogger 是一个 Gin 中间件，用于记录请求和响应日志。
// WebSocket 升级和 /metrics 只记录元信息，不捕获响应体。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 记录请求开始时间
		startTime := time.Now()

		captureBody := !isWebsocket(c) && c.Request.URL.Path != "/metrics"
		var requestBody []byte
		var blw *bodyLogWriter
		if captureBody {
			// 读取并重新缓存请求体
			if c.Request.Body != nil {
				requestBody, _ = io.ReadAll(c.Request.Body)
			}
			// 将读取的请求体重新设置回 c.Request.Body，以便后续处理函数可以正常读取
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))

			// 使用自定义的 ResponseWriter 捕获响应
			blw = &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
			c.Writer = blw
		}

		// 处理请求
		c.Next()

		fields := []interface{}{
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		}
		if captureBody {
			fields = append(fields,
				"requestBody", truncate(string(requestBody)),
				"responseBody", truncate(blw.body.String()),
			)
		}
		log.Infow("HTTP Request Log", fields...)
	}
}

func isWebsocket(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

func truncate(s string) string {
	if len(s) <= maxLoggedBody {
		return s
	}
	return s[:maxLoggedBody] + "..."
}
