package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/fluentprep/fluentprep-backend/internal/config"
	"github.com/fluentprep/fluentprep-backend/internal/handler"
	"github.com/fluentprep/fluentprep-backend/internal/middleware"
	"github.com/fluentprep/fluentprep-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam    *handler.ExamHandler
	Session *handler.SessionHandler
	Attempt *handler.AttemptHandler
	Writing *handler.WritingHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// CORS: restrict to the configured origin list when set, otherwise
	// allow all so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID middleware runs globally so every response carries metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// The oracle quota is the scarce resource behind writing evaluation.
	writingLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── Candidate API (JWT) ───────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireCandidateJWT(cfg))
	{
		exams := api.Group("/exams")
		{
			exams.GET("", handlers.Exam.List)
		}

		sessions := api.Group("/sessions")
		{
			sessions.POST("", handlers.Session.Start)
			sessions.GET("/:session_id", handlers.Session.GetState)
			sessions.POST("/:session_id/answers", handlers.Session.SaveAnswer)
			sessions.POST("/:session_id/start-now", handlers.Session.StartNow)
			sessions.POST("/:session_id/audio/started", handlers.Session.AudioStarted)
			sessions.POST("/:session_id/audio/blocked", handlers.Session.AudioBlocked)
			sessions.POST("/:session_id/audio/progress", handlers.Session.AudioProgress)
			sessions.POST("/:session_id/audio/ended", handlers.Session.AudioEnded)
			sessions.POST("/:session_id/submit", handlers.Session.Submit)
			sessions.DELETE("/:session_id", handlers.Session.Cancel)
		}

		attempts := api.Group("/attempts")
		{
			attempts.POST("", handlers.Attempt.Create)
			attempts.GET("/:attempt_id", handlers.Attempt.Get)
			attempts.POST("/:attempt_id/skills/:skill/start", handlers.Attempt.StartSkill)
			attempts.POST("/:attempt_id/finalize", handlers.Attempt.Finalize)
		}

		writing := api.Group("/writing")
		writing.Use(writingLimiter.Middleware())
		{
			writing.POST("/evaluate", handlers.Writing.Evaluate)
		}
	}

	// ─── WebSocket (query-token auth) ──────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireCandidateWSAuth(cfg))
	{
		ws.GET("/sessions/:session_id/stream", handlers.WS.SessionStream)
	}

	return router
}
