package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/medsim-backend/internal/domain"
	"github.com/yungbote/medsim-backend/internal/platform/dbctx"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

// ErrThreadNotOpen is returned by ReserveSeq when the thread is missing, not owned, or closed.
var ErrThreadNotOpen = errors.New("thread not open")

type ThreadRepo interface {
	Create(dbc dbctx.Context, rows []*types.Thread) ([]*types.Thread, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Thread, error)
	GetOwned(dbc dbctx.Context, id uuid.UUID, userID uuid.UUID) (*types.Thread, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, status types.ThreadStatus) ([]*types.Thread, error)
	ListClosedByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Thread, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	ReserveSeq(dbc dbctx.Context, id uuid.UUID, userID uuid.UUID, n int64) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Close(dbc dbctx.Context, id uuid.UUID, endedAt time.Time) (bool, error)
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type threadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThreadRepo(db *gorm.DB, log *logger.Logger) ThreadRepo {
	return &threadRepo{db: db, log: log.With("repo", "ThreadRepo")}
}

func (r *threadRepo) Create(dbc dbctx.Context, rows []*types.Thread) ([]*types.Thread, error) {
	if len(rows) == 0 {
		return []*types.Thread{}, nil
	}
	txx := dbc.Conn(r.db)
	now := time.Now().UTC()
	for _, t := range rows {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		if t.Status == "" {
			t.Status = types.ThreadOpen
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = t.CreatedAt
		}
	}
	if err := txx.Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return rows, nil
}

func (r *threadRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Thread, error) {
	if len(ids) == 0 {
		return []*types.Thread{}, nil
	}
	txx := dbc.Conn(r.db)
	var out []*types.Thread
	if err := txx.
		Model(&types.Thread{}).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetOwned returns gorm.ErrRecordNotFound when the thread does not exist or belongs to someone else.
func (r *threadRepo) GetOwned(dbc dbctx.Context, id uuid.UUID, userID uuid.UUID) (*types.Thread, error) {
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	txx := dbc.Conn(r.db)
	var out types.Thread
	if err := txx.
		Where("id = ? AND user_id = ?", id, userID).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByUser lists a user's threads, most recently touched first. An empty status lists all.
func (r *threadRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, status types.ThreadStatus) ([]*types.Thread, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	txx := dbc.Conn(r.db)
	q := txx.Model(&types.Thread{}).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []*types.Thread
	if err := q.Order("updated_at DESC").Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *threadRepo) ListClosedByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Thread, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	txx := dbc.Conn(r.db)
	var out []*types.Thread
	if err := txx.
		Model(&types.Thread{}).
		Where("user_id = ? AND status = ?", userID, types.ThreadClosed).
		Order("ended_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *threadRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	txx := dbc.Conn(r.db)
	var n int64
	if err := txx.
		Model(&types.Thread{}).
		Where("user_id = ?", userID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// ReserveSeq advances the thread's sequence counter by n and returns the last reserved
// value, so the caller owns seqs (last-n, last]. The update only matches an open thread
// owned by userID, which makes it the open-check as well. Call inside a transaction.
func (r *threadRepo) ReserveSeq(dbc dbctx.Context, id uuid.UUID, userID uuid.UUID, n int64) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid seq reservation %d", n)
	}
	txx := dbc.Conn(r.db)
	res := txx.
		Model(&types.Thread{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, types.ThreadOpen).
		Updates(map[string]interface{}{
			"next_seq":   gorm.Expr("next_seq + ?", n),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("reserve seq: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrThreadNotOpen
	}
	var last int64
	if err := txx.
		Model(&types.Thread{}).
		Where("id = ?", id).
		Select("next_seq").
		Scan(&last).Error; err != nil {
		return 0, fmt.Errorf("read seq: %w", err)
	}
	return last, nil
}

func (r *threadRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	txx := dbc.Conn(r.db)
	return txx.
		Model(&types.Thread{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Close flips an open thread to closed. It reports false when the thread was already closed.
func (r *threadRepo) Close(dbc dbctx.Context, id uuid.UUID, endedAt time.Time) (bool, error) {
	if id == uuid.Nil {
		return false, fmt.Errorf("missing id")
	}
	txx := dbc.Conn(r.db)
	endedAt = endedAt.UTC()
	res := txx.
		Model(&types.Thread{}).
		Where("id = ? AND status = ?", id, types.ThreadOpen).
		Updates(map[string]interface{}{
			"status":     types.ThreadClosed,
			"ended_at":   endedAt,
			"updated_at": endedAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("close thread: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *threadRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	txx := dbc.Conn(r.db)
	return txx.
		Where("id IN ?", ids).
		Delete(&types.Thread{}).Error
}
