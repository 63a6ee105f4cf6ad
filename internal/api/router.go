package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Gabrielpanashe/Face-Access-System/internal/access"
	"github.com/Gabrielpanashe/Face-Access-System/internal/api/handlers"
	"github.com/Gabrielpanashe/Face-Access-System/internal/api/ws"
	"github.com/Gabrielpanashe/Face-Access-System/internal/auth"
	"github.com/Gabrielpanashe/Face-Access-System/internal/queue"
	"github.com/Gabrielpanashe/Face-Access-System/internal/storage"
)

type RouterConfig struct {
	APIKey   string
	Service  *access.Service
	DB       *storage.PostgresStore
	Images   *storage.MinIOStore
	Producer *queue.Producer
	Hub      *ws.Hub
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.Images, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Kiosk-facing operations (public; the camera terminal has no key)
	accessH := handlers.NewAccessHandler(cfg.Service)
	api := r.Group("/api")
	api.GET("/health", systemH.Healthz)
	api.POST("/verify", accessH.Verify)
	api.POST("/enroll", accessH.Enroll)

	// Admin dashboard (API key)
	adminH := handlers.NewAdminHandler(cfg.DB, cfg.Images)
	logsH := handlers.NewLogsHandler(cfg.DB)
	admin := api.Group("/admin")
	admin.Use(auth.APIKeyMiddleware(cfg.APIKey))
	admin.GET("/users", adminH.ListIdentities)
	admin.GET("/users/:name/image", adminH.GetIdentityImage)
	admin.DELETE("/users/:name", adminH.DeleteIdentity)
	admin.GET("/logs", logsH.List)
	admin.GET("/ws", cfg.Hub.HandleWS)

	return r
}
