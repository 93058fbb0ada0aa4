package chat

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) Valid() bool {
	return r == RoleDoctor || r == RolePatient
}

// Message is immutable once written. Seq orders messages within a thread.
type Message struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ThreadID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_message_thread_seq,priority:1" json:"thread_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Seq      int64     `gorm:"column:seq;not null;uniqueIndex:idx_message_thread_seq,priority:2" json:"seq"`
	Role     Role      `gorm:"column:role;not null" json:"role"`
	Content  string    `gorm:"column:content;type:text;not null" json:"content"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Message) TableName() string { return "message" }

type MessageView struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *Message) View() MessageView {
	return MessageView{ID: m.ID, Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt}
}

func MessageViews(rows []*Message) []MessageView {
	out := make([]MessageView, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.View())
	}
	return out
}

// CountRole counts messages authored by role.
func CountRole(rows []*Message, role Role) int {
	n := 0
	for _, m := range rows {
		if m.Role == role {
			n++
		}
	}
	return n
}
