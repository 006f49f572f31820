package webhook

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/AldoPgm/Agente-Inmobiliario/platform/httpkit"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/logger"
)

// NewRouter builds the HTTP surface: health plus the inbound message webhook.
func NewRouter(handler *Handler, log *logger.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(log))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.Default())

	engine.GET("/healthz", handler.HandleHealth)

	limiter := httpkit.NewIPRateLimiter(rate.Limit(5), 10, log)

	v1 := engine.Group("/api/v1")
	webhooks := v1.Group("/webhook", limiter.RateLimit())
	webhooks.POST("/messages", handler.HandleInbound)

	return engine
}
