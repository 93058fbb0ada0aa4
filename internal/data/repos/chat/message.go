package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/medsim-backend/internal/domain"
	"github.com/yungbote/medsim-backend/internal/platform/dbctx"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

type MessageRepo interface {
	Create(dbc dbctx.Context, rows []*types.Message) ([]*types.Message, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Message, error)
	ListByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*types.Message, error)
	DeleteByThreadIDs(dbc dbctx.Context, threadIDs []uuid.UUID) error
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

// Create inserts messages as given. Seq must already be reserved on the thread.
func (r *messageRepo) Create(dbc dbctx.Context, rows []*types.Message) ([]*types.Message, error) {
	if len(rows) == 0 {
		return []*types.Message{}, nil
	}
	txx := dbc.Conn(r.db)
	now := time.Now().UTC()
	for _, m := range rows {
		if m.ThreadID == uuid.Nil {
			return nil, fmt.Errorf("missing thread_id")
		}
		if !m.Role.Valid() {
			return nil, fmt.Errorf("invalid role %q", m.Role)
		}
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
	}
	if err := txx.Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return rows, nil
}

func (r *messageRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Message, error) {
	if len(ids) == 0 {
		return []*types.Message{}, nil
	}
	txx := dbc.Conn(r.db)
	var out []*types.Message
	if err := txx.
		Model(&types.Message{}).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) ListByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*types.Message, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Conn(r.db)
	var out []*types.Message
	if err := txx.
		Model(&types.Message{}).
		Where("thread_id = ?", threadID).
		Order("seq ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) DeleteByThreadIDs(dbc dbctx.Context, threadIDs []uuid.UUID) error {
	if len(threadIDs) == 0 {
		return nil
	}
	txx := dbc.Conn(r.db)
	return txx.
		Where("thread_id IN ?", threadIDs).
		Delete(&types.Message{}).Error
}
