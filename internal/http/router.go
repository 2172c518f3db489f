package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/bms-ged/backend/internal/config"
	"github.com/bms-ged/backend/internal/db"
	"github.com/bms-ged/backend/internal/http/handlers"
	"github.com/bms-ged/backend/internal/http/middleware"
	"github.com/bms-ged/backend/internal/knowledge"
	"github.com/bms-ged/backend/internal/service"

	_ "github.com/bms-ged/backend/docs"
)

func Router(cfg config.Config, store *db.Store, pipeline *service.Pipeline, kb *knowledge.Store, assigner *service.AssignmentResolver, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     store,
		Pipeline:  pipeline,
		Knowledge: kb,
		Assigner:  assigner,
		Validator: validator.New(),
		Logger:    logger,
		AdminKey:  cfg.AdminKey,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/complaints/resolved", h.SubmitResolved)
		api.POST("/complaints/pending", h.SubmitPending)
		api.GET("/complaints", h.ComplaintsList)
		api.GET("/complaints/:id", h.ComplaintDetails)
		api.GET("/responders", h.RespondersList)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/knowledge/ingest", h.KnowledgeIngest)
		admin.GET("/knowledge/stats", h.KnowledgeStats)
		admin.POST("/knowledge/clear", h.KnowledgeClear)
		admin.GET("/knowledge/similar", h.KnowledgeSimilar)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
