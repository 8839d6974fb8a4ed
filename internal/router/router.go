package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/horizon-rp/department-backend/internal/config"
	"github.com/horizon-rp/department-backend/internal/handler"
	"github.com/horizon-rp/department-backend/internal/middleware"
	"github.com/horizon-rp/department-backend/internal/response"
	"github.com/horizon-rp/department-backend/internal/service"
)

// Handlers bundles all HTTP and WebSocket handlers for route registration.
type Handlers struct {
	Auth    *handler.AuthHandler
	Portal  *handler.PortalHandler
	Archive *handler.ArchiveHandler
	WS      *handler.WSHandler
}

// New builds the Gin engine with middleware and all route groups.
func New(cfg *config.Config, authService *service.AuthService, h Handlers) *gin.Engine {
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(response.RequestIDMiddleware())
	r.Use(middleware.Brotli())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", middleware.RequireJWT(authService), h.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), h.Auth.Me)
	}

	portal := api.Group("/portal")
	portal.Use(middleware.RequireJWT(authService), middleware.CheckSingleDeviceSession(authService))
	{
		portal.GET("/exam-types", h.Portal.ListExamTypes)
		portal.POST("/sessions", h.Portal.StartSession)
		portal.POST("/sessions/authorize", h.Portal.Authorize)
		portal.GET("/sessions/current", h.Portal.CurrentSession)
		portal.POST("/sessions/answer", h.Portal.Answer)
		portal.POST("/sessions/next", h.Portal.Next)
		portal.POST("/sessions/violation", h.Portal.ReportViolation)
		portal.POST("/sessions/submit-retry", h.Portal.RetrySubmit)
		portal.GET("/results/latest", h.Portal.LatestResult)
	}

	examiner := api.Group("/examiner")
	examiner.Use(middleware.RequireJWT(authService), middleware.CheckSingleDeviceSession(authService), middleware.RequirePrivileged())
	{
		examiner.GET("/results", h.Archive.ListResults)
		examiner.PATCH("/results/:id/archive", h.Archive.SetArchived)
	}

	wsGroup := r.Group("/ws/v1")
	wsGroup.Use(middleware.RequireWSAuth(authService))
	{
		wsGroup.GET("/portal/stream", h.WS.Stream)
	}

	return r
}
