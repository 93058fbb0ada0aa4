package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/medsim-backend/internal/platform/logger"
	"github.com/yungbote/medsim-backend/internal/services"
)

type Services struct {
	Auth      services.AuthService
	User      services.UserService
	Thread    services.ThreadService
	Analytics services.AnalyticsService
	Speech    services.SpeechService
	Dictation services.DictationService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) Services {
	log.Info("Wiring services...")
	patient := services.NewPatientSimulator(log, c.LLM)
	feedback := services.NewFeedbackAggregator(log, c.LLM)
	return Services{
		Auth: services.NewAuthService(db, log, r.User, c.Identity, services.AuthConfig{
			JWTSecretKey:    cfg.JWTSecretKey,
			AccessTTL:       cfg.AccessTokenTTL,
			DevLoginEnabled: cfg.DevLoginEnabled,
		}),
		User:      services.NewUserService(db, log, r.User),
		Thread:    services.NewThreadService(db, log, r.Thread, r.Message, r.Feedback, patient, feedback),
		Analytics: services.NewAnalyticsService(db, log, r.Thread, r.Feedback),
		Speech:    services.NewSpeechService(db, log, r.Message, r.Thread, c.TTS, c.AudioCache),
		Dictation: services.NewDictationService(log, r.Thread, c.STT),
	}
}
