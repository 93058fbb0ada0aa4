package chat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/medsim-backend/internal/domain"
	"github.com/yungbote/medsim-backend/internal/platform/dbctx"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

type FeedbackRepo interface {
	Create(dbc dbctx.Context, row *types.Feedback) (*types.Feedback, error)
	GetByThreadID(dbc dbctx.Context, threadID uuid.UUID) (*types.Feedback, error)
	ListByThreadIDs(dbc dbctx.Context, threadIDs []uuid.UUID) ([]*types.Feedback, error)
	DeleteByThreadIDs(dbc dbctx.Context, threadIDs []uuid.UUID) error
}

type feedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedbackRepo(db *gorm.DB, log *logger.Logger) FeedbackRepo {
	return &feedbackRepo{db: db, log: log.With("repo", "FeedbackRepo")}
}

func (r *feedbackRepo) Create(dbc dbctx.Context, row *types.Feedback) (*types.Feedback, error) {
	if row == nil || row.ThreadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Conn(r.db)
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := txx.Create(row).Error; err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	return row, nil
}

// GetByThreadID returns (nil, nil) when the thread has no feedback yet.
func (r *feedbackRepo) GetByThreadID(dbc dbctx.Context, threadID uuid.UUID) (*types.Feedback, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Conn(r.db)
	var out types.Feedback
	err := txx.Where("thread_id = ?", threadID).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *feedbackRepo) ListByThreadIDs(dbc dbctx.Context, threadIDs []uuid.UUID) ([]*types.Feedback, error) {
	if len(threadIDs) == 0 {
		return []*types.Feedback{}, nil
	}
	txx := dbc.Conn(r.db)
	var out []*types.Feedback
	if err := txx.
		Model(&types.Feedback{}).
		Where("thread_id IN ?", threadIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *feedbackRepo) DeleteByThreadIDs(dbc dbctx.Context, threadIDs []uuid.UUID) error {
	if len(threadIDs) == 0 {
		return nil
	}
	txx := dbc.Conn(r.db)
	return txx.
		Where("thread_id IN ?", threadIDs).
		Delete(&types.Feedback{}).Error
}
