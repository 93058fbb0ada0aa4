package domain

import (
	"github.com/yungbote/medsim-backend/internal/domain/chat"
	"github.com/yungbote/medsim-backend/internal/domain/user"
)

type User = user.User
type UserView = user.UserView

type Thread = chat.Thread
type ThreadStatus = chat.ThreadStatus
type ThreadView = chat.ThreadView
type Message = chat.Message
type MessageView = chat.MessageView
type Role = chat.Role
type Feedback = chat.Feedback
type FeedbackView = chat.FeedbackView
type FeedbackSource = chat.FeedbackSource
type Rubric = chat.Rubric
type Section = chat.Section
type Category = chat.Category

const (
	ThreadOpen   = chat.ThreadOpen
	ThreadClosed = chat.ThreadClosed

	RoleDoctor  = chat.RoleDoctor
	RolePatient = chat.RolePatient

	FeedbackFromModel    = chat.FeedbackFromModel
	FeedbackFromLocal    = chat.FeedbackFromLocal
	FeedbackFromFallback = chat.FeedbackFromFallback
)

var (
	NewFeedback    = chat.NewFeedback
	FallbackRubric = chat.FallbackRubric
	CountRole      = chat.CountRole
	ThreadViews    = chat.ThreadViews
	MessageViews   = chat.MessageViews
)

// Models lists every persisted type, in migration order.
func Models() []any {
	return []any{&User{}, &Thread{}, &Message{}, &Feedback{}}
}
