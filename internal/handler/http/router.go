package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shenikar/incident_triage/internal/config"
	v1 "github.com/shenikar/incident_triage/internal/handler/http/v1"
	"github.com/shenikar/incident_triage/internal/handler/http/middleware"
	"github.com/shenikar/incident_triage/internal/metrics"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter собирает gin-роутер: middleware, API v1, метрики и swagger
func NewRouter(cfg *config.Config, handler *v1.Handler, collector *metrics.Collector, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(collector.GinMiddleware())

	corsCfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.APIGatewayURL == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = []string{cfg.APIGatewayURL}
	}
	r.Use(cors.New(corsCfg))

	api := r.Group("/api/v1")
	handler.RegisterRoutes(api)

	if collector != nil {
		r.GET("/metrics", gin.WrapH(collector.Handler()))
	}

	// Добавление маршрута для Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
