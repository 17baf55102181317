package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Skufu/medidose/internal/metrics"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	// RateLimit is requests per second per client on /api. Zero disables it.
	RateLimit    float64
	MaxBodyBytes int64
	Metrics      *metrics.Metrics
}

// NewRouter wires the handlers. db may be nil when the database is disabled.
func NewRouter(h *Handler, db HealthChecker, cfg RouterConfig, log *zap.Logger) *gin.Engine {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	router := gin.New()
	router.Use(
		requestID(),
		recovery(log),
		requestLogger(log, cfg.Metrics),
		limitBodySize(cfg.MaxBodyBytes),
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			MaxAge:       12 * time.Hour,
		}),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"db":     fmt.Sprintf("unhealthy: %v", err),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok"})
	})

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := router.Group("/api")
	if cfg.RateLimit > 0 {
		api.Use(rateLimit(rate.Limit(cfg.RateLimit), max(int(cfg.RateLimit), 1)))
	}
	{
		api.GET("/catalog", h.Catalog)

		api.POST("/predictions", h.CreatePrediction)
		api.GET("/predictions", h.ListPredictions)
		api.GET("/predictions/stats", h.PredictionStats)
		api.GET("/predictions/:id", h.GetPrediction)

		api.POST("/diagnoses", h.Diagnose)
		api.POST("/diagnoses/diet", h.PlanDiet)

		api.GET("/verify/:hash", h.Verify)
	}

	return router
}
