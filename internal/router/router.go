package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/aramartialarts/portal-backend/internal/config"
	"github.com/aramartialarts/portal-backend/internal/handler"
	"github.com/aramartialarts/portal-backend/internal/middleware"
	"github.com/aramartialarts/portal-backend/internal/response"
	"github.com/aramartialarts/portal-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Portal *handler.PortalHandler
	Admin  *handler.AdminHandler
	Chat   *handler.ChatHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	cfg *config.Config,
	tokens *service.TokenService,
	limiter *middleware.RateLimiter,
	handlers *Handlers,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Admin-Key", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())

	// Liveness banner kept for compatibility with the old worker clients.
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Ara Martial Arts portal backend is running"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public chat relay, rate limited per IP.
	router.POST("/chat", limiter.Middleware(), handlers.Chat.Chat)

	portal := router.Group("/portal")
	{
		// Login is public (it mints the token) but rate limited.
		portal.POST("/login-event", limiter.Middleware(), handlers.Portal.RecordLoginEvent)

		// Authenticated student surface.
		authed := portal.Group("")
		authed.Use(middleware.RequirePortalJWT(tokens))
		{
			authed.GET("/progress/:studentId", handlers.Portal.GetProgress)
			authed.GET("/profile", handlers.Portal.GetProfile)
			authed.POST("/progress", handlers.Portal.SaveProgress)
		}

		// Reporting, gated by the static shared key.
		admin := portal.Group("/admin")
		admin.Use(middleware.RequireAdminKey(cfg))
		{
			admin.GET("/activity", handlers.Admin.GetActivity)
		}
	}

	return router
}
