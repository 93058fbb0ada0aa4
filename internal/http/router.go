package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/medsim-backend/internal/http/handlers"
	httpMW "github.com/yungbote/medsim-backend/internal/http/middleware"
	"github.com/yungbote/medsim-backend/internal/observability"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler    *httpH.HealthHandler
	AuthHandler      *httpH.AuthHandler
	UserHandler      *httpH.UserHandler
	ThreadHandler    *httpH.ThreadHandler
	MessageHandler   *httpH.MessageHandler
	SpeechHandler    *httpH.SpeechHandler
	DictationHandler *httpH.DictationHandler
	AnalyticsHandler *httpH.AnalyticsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/google-login", cfg.AuthHandler.GoogleLogin)
			api.POST("/auth/dev-login", cfg.AuthHandler.DevLogin)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
		}

		// Threads
		if cfg.ThreadHandler != nil {
			protected.GET("/threads", cfg.ThreadHandler.ListThreads)
			protected.POST("/threads", cfg.ThreadHandler.CreateThread)
			protected.GET("/threads/:id", cfg.ThreadHandler.GetThread)
			protected.PATCH("/threads/:id", cfg.ThreadHandler.RenameThread)
			protected.DELETE("/threads/:id", cfg.ThreadHandler.DeleteThread)
			protected.POST("/threads/:id/end", cfg.ThreadHandler.EndThread)
			protected.GET("/threads/:id/feedback", cfg.ThreadHandler.GetFeedback)
			protected.GET("/threads/:id/transcript", cfg.ThreadHandler.GetTranscript)
		}

		// Messages
		if cfg.MessageHandler != nil {
			protected.GET("/threads/:id/messages", cfg.MessageHandler.ListMessages)
			protected.POST("/threads/:id/messages", cfg.MessageHandler.PostMessage)
		}

		// Speech
		if cfg.SpeechHandler != nil {
			protected.GET("/messages/:id/speech", cfg.SpeechHandler.GetMessageSpeech)
		}
		if cfg.DictationHandler != nil {
			protected.POST("/threads/:id/transcribe", cfg.DictationHandler.Transcribe)
		}

		// Analytics
		if cfg.AnalyticsHandler != nil {
			protected.GET("/analytics", cfg.AnalyticsHandler.GetAnalytics)
		}
	}

	return r
}
