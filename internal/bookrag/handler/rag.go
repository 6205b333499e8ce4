// Package handler provides HTTP handlers for the bookrag service.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/bookrag/internal/bookrag/biz"
	"github.com/kart-io/bookrag/internal/bookrag/metrics"
	"github.com/kart-io/bookrag/pkg/llm"
)

// queryTimeout 单次查询的最长处理时间。
const queryTimeout = 60 * time.Second

// RAGHandler handles bookrag HTTP requests.
type RAGHandler struct {
	service biz.Service
}

// NewRAGHandler creates a new RAGHandler.
func NewRAGHandler(service biz.Service) *RAGHandler {
	return &RAGHandler{service: service}
}

// SuccessResponse is a standard success response.
type SuccessResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// IngestRequest represents an ingestion request. Either Path or
// Content+Source must be provided.
type IngestRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Ingest indexes a markdown document into the knowledge base.
func (h *RAGHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	if req.Path == "" && (req.Content == "" || req.Source == "") {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    400,
			Message: "either path or content+source must be provided",
		})
		return
	}

	var err error
	var result interface{}
	if req.Path != "" {
		result, err = h.service.IngestFile(c.Request.Context(), req.Path)
	} else {
		result, err = h.service.IngestDocument(c.Request.Context(), req.Content, req.Source)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: result})
}

// HistoryMessage 对话历史中的一条消息。
type HistoryMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// QueryRequest represents a query request.
type QueryRequest struct {
	Question      string           `json:"question" binding:"required"`
	Collection    string           `json:"collection"`
	TopK          int              `json:"top_k"`
	ChapterFilter string           `json:"chapter_filter"`
	History       []HistoryMessage `json:"history"`
}

// Query performs a RAG query.
func (h *RAGHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	history := make([]llm.Message, len(req.History))
	for i, m := range req.History {
		history[i] = llm.Message{Role: llm.Role(m.Role), Content: m.Content}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	result, err := h.service.Query(ctx, &biz.QueryRequest{
		Query:         req.Question,
		Collection:    req.Collection,
		TopK:          req.TopK,
		ChapterFilter: req.ChapterFilter,
		History:       history,
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			c.JSON(http.StatusRequestTimeout, ErrorResponse{
				Code:    408,
				Message: "Query timeout: the request took too long to process. Please try again or simplify your question.",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: result})
}

// Stats returns knowledge base statistics.
func (h *RAGHandler) Stats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: stats})
}

// Metrics exposes service metrics in Prometheus text format.
func (h *RAGHandler) Metrics(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8",
		[]byte(metrics.GetRAGMetrics().Export("bookrag", "rag")))
}

// Healthz reports service liveness.
func (h *RAGHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
