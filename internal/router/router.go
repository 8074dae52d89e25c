package router

import (
	"log/slog"
	"net/http"

	"github.com/dipesh37/quiz1/internal/config"
	"github.com/dipesh37/quiz1/internal/database"
	"github.com/dipesh37/quiz1/internal/handlers"
	"github.com/dipesh37/quiz1/internal/middleware"
	"github.com/dipesh37/quiz1/internal/services"
	"github.com/dipesh37/quiz1/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Deps struct {
	Config      *config.Config
	Log         *slog.Logger
	Store       *database.Store
	Submissions *services.SubmissionService
	Hub         *ws.Hub
}

func New(d Deps) *gin.Engine {
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.Recovery())
	r.Use(cors.New(corsConfig(d.Config.AllowedOrigins)))

	healthHandler := handlers.NewHealthHandler(d.Store, d.Config.Environment)
	submissionHandler := handlers.NewSubmissionHandler(d.Submissions, d.Hub)
	adminHandler := handlers.NewAdminHandler(d.Submissions, d.Hub)
	staticHandler := handlers.NewStaticHandler(d.Config.StaticDir)

	r.GET("/", healthHandler.Root)
	r.GET("/api/health", healthHandler.Health)
	r.POST("/submit", submissionHandler.Submit)

	// No access control on admin routes.
	admin := r.Group("/admin")
	{
		admin.GET("/submissions", adminHandler.ListSubmissions)
		admin.DELETE("/submissions/:email", adminHandler.DeleteSubmission)
		admin.GET("/ws", adminHandler.Feed)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.NoRoute(staticHandler.Fallback)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
