// Package router provides bookrag service routing.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/bookrag/internal/bookrag/handler"
)

// Register registers the bookrag service routes.
func Register(engine *gin.Engine, ragHandler *handler.RAGHandler) {
	logger.Info("Registering routes...")

	engine.GET("/healthz", ragHandler.Healthz)
	engine.GET("/metrics", ragHandler.Metrics)

	v1 := engine.Group("/v1")
	{
		rag := v1.Group("/rag")
		{
			rag.POST("/ingest", ragHandler.Ingest)
			rag.POST("/query", ragHandler.Query)
			rag.GET("/stats", ragHandler.Stats)
		}
	}

	logger.Info("HTTP routes registered")
}
