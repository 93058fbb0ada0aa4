package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/medsim-backend/internal/data/repos/chat"
	"github.com/yungbote/medsim-backend/internal/data/repos/user"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type ThreadRepo = chat.ThreadRepo
type MessageRepo = chat.MessageRepo
type FeedbackRepo = chat.FeedbackRepo

var ErrThreadNotOpen = chat.ErrThreadNotOpen

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }

func NewThreadRepo(db *gorm.DB, log *logger.Logger) ThreadRepo { return chat.NewThreadRepo(db, log) }

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return chat.NewMessageRepo(db, log)
}

func NewFeedbackRepo(db *gorm.DB, log *logger.Logger) FeedbackRepo {
	return chat.NewFeedbackRepo(db, log)
}
