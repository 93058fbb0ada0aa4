package chat

import (
	"time"

	"github.com/google/uuid"
)

type ThreadStatus string

const (
	ThreadOpen   ThreadStatus = "open"
	ThreadClosed ThreadStatus = "closed"
)

func (s ThreadStatus) Valid() bool {
	return s == ThreadOpen || s == ThreadClosed
}

// Thread is one training session. It moves open -> closed exactly once.
type Thread struct {
	ID     uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	Title  string       `gorm:"column:title;not null" json:"title"`
	Status ThreadStatus `gorm:"column:status;not null;index" json:"status"`

	// NextSeq is the last sequence number handed out to a message in this thread.
	NextSeq int64 `gorm:"column:next_seq;not null;default:0" json:"-"`

	CreatedAt time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;index" json:"updated_at"`
	EndedAt   *time.Time `gorm:"column:ended_at;index" json:"ended_at"`
}

func (Thread) TableName() string { return "thread" }

func (t *Thread) IsOpen() bool { return t.Status == ThreadOpen }

type ThreadView struct {
	ID        uuid.UUID    `json:"id"`
	Title     string       `json:"title"`
	Status    ThreadStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	EndedAt   *time.Time   `json:"ended_at"`
}

func (t *Thread) View() ThreadView {
	return ThreadView{
		ID:        t.ID,
		Title:     t.Title,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		EndedAt:   t.EndedAt,
	}
}

func ThreadViews(rows []*Thread) []ThreadView {
	out := make([]ThreadView, 0, len(rows))
	for _, t := range rows {
		out = append(out, t.View())
	}
	return out
}
