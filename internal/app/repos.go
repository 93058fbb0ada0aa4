package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/medsim-backend/internal/data/repos"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

type Repos struct {
	User     repos.UserRepo
	Thread   repos.ThreadRepo
	Message  repos.MessageRepo
	Feedback repos.FeedbackRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:     repos.NewUserRepo(db, log),
		Thread:   repos.NewThreadRepo(db, log),
		Message:  repos.NewMessageRepo(db, log),
		Feedback: repos.NewFeedbackRepo(db, log),
	}
}
