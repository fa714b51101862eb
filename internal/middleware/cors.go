package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS 允许任意来源访问 API，预检请求返回 204。
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPut,
			http.MethodPatch, http.MethodPost, http.MethodDelete,
		},
		AllowHeaders:              []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusNoContent,
	})
}
