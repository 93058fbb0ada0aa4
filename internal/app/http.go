package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/medsim-backend/internal/http"
	httpH "github.com/yungbote/medsim-backend/internal/http/handlers"
	httpMW "github.com/yungbote/medsim-backend/internal/http/middleware"
	"github.com/yungbote/medsim-backend/internal/observability"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Auth      *httpH.AuthHandler
	User      *httpH.UserHandler
	Thread    *httpH.ThreadHandler
	Message   *httpH.MessageHandler
	Speech    *httpH.SpeechHandler
	Dictation *httpH.DictationHandler
	Analytics *httpH.AnalyticsHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(db),
		Auth:      httpH.NewAuthHandler(services.Auth),
		User:      httpH.NewUserHandler(services.User),
		Thread:    httpH.NewThreadHandler(services.Thread),
		Message:   httpH.NewMessageHandler(services.Thread),
		Speech:    httpH.NewSpeechHandler(services.Speech),
		Dictation: httpH.NewDictationHandler(services.Dictation),
		Analytics: httpH.NewAnalyticsHandler(services.Analytics),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	var origins []string
	if cfg.FrontendOrigin != "" {
		origins = append(origins, cfg.FrontendOrigin)
	}
	return http.NewServer(cfg.Addr(), http.RouterConfig{
		Log:              log,
		Metrics:          metrics,
		ServiceName:      cfg.ServiceName,
		AllowedOrigins:   origins,
		AuthMiddleware:   middleware.Auth,
		HealthHandler:    handlers.Health,
		AuthHandler:      handlers.Auth,
		UserHandler:      handlers.User,
		ThreadHandler:    handlers.Thread,
		MessageHandler:   handlers.Message,
		SpeechHandler:    handlers.Speech,
		DictationHandler: handlers.Dictation,
		AnalyticsHandler: handlers.Analytics,
	})
}
