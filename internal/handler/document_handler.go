package handler

import (
	"context"
	"net/http"
	"news-rag-go/internal/model"
	"news-rag-go/internal/pipeline"
	"news-rag-go/pkg/log"
	"news-rag-go/pkg/tasks"
	"time"

	"github.com/gin-gonic/gin"
)

// 通过 HTTP 接口入库的来源标签
const sourceAPI = "api"

// DocumentLister 列出已入库的文档。
type DocumentLister interface {
	Documents() []model.Document
}

// DocumentIngester 把文档写入向量库，由 pipeline.Processor 实现。
type DocumentIngester interface {
	Ingest(ctx context.Context, docs []model.Document, source string) (int, error)
}

// DocumentHandler 负责处理语料相关的 API 请求。
type DocumentHandler struct {
	lister   DocumentLister
	ingester DocumentIngester
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(lister DocumentLister, ingester DocumentIngester) *DocumentHandler {
	return &DocumentHandler{lister: lister, ingester: ingester}
}

// List 返回所有已入库的文档。
func (h *DocumentHandler) List(c *gin.Context) {
	docs := h.lister.Documents()
	c.JSON(http.StatusOK, gin.H{"documents": docs, "count": len(docs)})
}

// Ingest 接收 JSON 数组形式的文章并同步入库。任一条目无效时整体拒绝。
func (h *DocumentHandler) Ingest(c *gin.Context) {
	var articles []tasks.ArticleTask
	if err := c.ShouldBindJSON(&articles); err != nil || len(articles) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A non-empty array of articles is required"})
		return
	}
	now := time.Now()
	docs := make([]model.Document, 0, len(articles))
	for i, a := range articles {
		if err := a.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "index": i})
			return
		}
		docs = append(docs, pipeline.DocumentFromTask(a, now))
	}

	n, err := h.ingester.Ingest(c.Request.Context(), docs, sourceAPI)
	if err != nil {
		log.Error("[DocumentHandler] 入库失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest articles"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingested": n})
}
