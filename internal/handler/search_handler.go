package handler

import (
	"net/http"
	"news-rag-go/internal/service"
	"news-rag-go/internal/vectorstore"
	"news-rag-go/pkg/log"
	"strconv"

	"github.com/gin-gonic/gin"
)

// SearchHandler 结构体定义了检索相关的处理器，只做检索不调用模型。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// Search 是处理检索请求的 Gin 处理函数。
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	topK, err := strconv.Atoi(c.DefaultQuery("topK", strconv.Itoa(vectorstore.DefaultTopK)))
	if err != nil || topK <= 0 {
		topK = vectorstore.DefaultTopK
	}

	passages, err := h.searchService.Retrieve(c.Request.Context(), query, topK)
	if err != nil {
		log.Errorf("[SearchHandler] 检索失败, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve passages"})
		return
	}
	log.Infof("[SearchHandler] 检索成功, query: '%s', 返回 %d 条结果", query, len(passages))
	c.JSON(http.StatusOK, gin.H{"passages": passages})
}
