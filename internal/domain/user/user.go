package user

import (
	"time"

	"github.com/google/uuid"
)

// User is a clinician account. Rows are created on first login and updated on every
// subsequent one; they are never hard-deleted.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	Picture   string    `gorm:"column:picture" json:"picture"`
	Hospital  string    `gorm:"not null;column:hospital" json:"hospital"`
	GoogleSub string    `gorm:"column:google_sub;index" json:"-"`

	LastLoginAt *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

type UserView struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Picture  string    `json:"picture"`
	Hospital string    `json:"hospital"`
}

func (u *User) View() UserView {
	return UserView{ID: u.ID, Email: u.Email, Name: u.Name, Picture: u.Picture, Hospital: u.Hospital}
}
