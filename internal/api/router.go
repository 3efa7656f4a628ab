package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/liliang-cn/wikirag/internal/api/chat"
	"github.com/liliang-cn/wikirag/internal/api/ingest"
	"github.com/liliang-cn/wikirag/internal/api/knowledge"
	"github.com/liliang-cn/wikirag/internal/api/middleware"
	"github.com/liliang-cn/wikirag/internal/service"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(
	chatService *service.ChatService,
	ingestService *service.IngestService,
	knowledgeService *service.KnowledgeService,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	chatHandler := chat.NewHandler(chatService)
	chatGroup := r.Group("/api/chat")
	chatHandler.RegisterRoutes(chatGroup)

	ingestHandler := ingest.NewHandler(ingestService)
	ingestGroup := r.Group("/api/ingest")
	ingestHandler.RegisterRoutes(ingestGroup)

	knowledgeHandler := knowledge.NewHandler(knowledgeService)
	knowledgeGroup := r.Group("/api/knowledge")
	knowledgeHandler.RegisterRoutes(knowledgeGroup)

	return r
}
