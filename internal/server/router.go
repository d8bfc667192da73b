package server

import (
	"github.com/aidosk/fileharbor/internal/auth"
	"github.com/aidosk/fileharbor/internal/config"
	"github.com/aidosk/fileharbor/internal/file"
	"github.com/aidosk/fileharbor/internal/logger"
	"github.com/aidosk/fileharbor/internal/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config      config.Config
	Logger      *zap.Logger
	DB          *pgxpool.Pool
	ObjectStore *minio.Client
	AuthService *auth.Service
	FileService *file.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(logger.RequestLogger(deps.Logger))
	router.Use(metrics.Middleware())
	router.Use(cors.New(corsConfig()))

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/api")
	if deps.AuthService != nil {
		auth.RegisterRoutes(api, deps.AuthService)

		protected := api.Group("/")
		protected.Use(auth.Middleware(deps.AuthService))

		if deps.FileService != nil {
			file.RegisterRoutes(protected, deps.FileService)
		}
	}

	return router
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}
	cfg.AllowHeaders = []string{
		"Content-Type",
		"Authorization",
		"X-Requested-With",
		logger.Header,
		"Accept",
		"Origin",
	}
	cfg.ExposeHeaders = []string{logger.Header, "Content-Disposition"}
	return cfg
}
