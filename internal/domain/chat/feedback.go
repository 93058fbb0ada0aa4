package chat

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type FeedbackSource string

const (
	FeedbackFromModel    FeedbackSource = "model"
	FeedbackFromLocal    FeedbackSource = "local"
	FeedbackFromFallback FeedbackSource = "fallback"
)

// Feedback is the single evaluation stored for a closed thread.
type Feedback struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ThreadID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"thread_id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	OverallScore int            `gorm:"column:overall_score;not null" json:"overall_score"`
	Rubric       datatypes.JSON `gorm:"column:rubric;not null" json:"rubric"`
	Source       FeedbackSource `gorm:"column:source;not null" json:"source"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Feedback) TableName() string { return "feedback" }

func NewFeedback(threadID, userID uuid.UUID, r Rubric, source FeedbackSource) (*Feedback, error) {
	r.Clamp()
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode rubric: %w", err)
	}
	return &Feedback{
		ID:           uuid.New(),
		ThreadID:     threadID,
		UserID:       userID,
		OverallScore: r.OverallScore,
		Rubric:       datatypes.JSON(raw),
		Source:       source,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// DecodeRubric parses the stored rubric. Scores are clamped on the way out as well, and
// sections stored without a title take the category's.
func (f *Feedback) DecodeRubric() (Rubric, error) {
	var r Rubric
	if len(f.Rubric) == 0 {
		return r, fmt.Errorf("feedback %s has no rubric", f.ID)
	}
	if err := json.Unmarshal(f.Rubric, &r); err != nil {
		return r, fmt.Errorf("decode rubric: %w", err)
	}
	r.Clamp()
	for id, sec := range r.Sections {
		if sec.Title != "" {
			continue
		}
		if c, ok := CategoryByID(id); ok {
			sec.Title = c.Title
			r.Sections[id] = sec
		}
	}
	return r, nil
}

type FeedbackView struct {
	OverallScore int       `json:"overall_score"`
	Rubric       Rubric    `json:"rubric"`
	CreatedAt    time.Time `json:"created_at"`
}

func (f *Feedback) View() (FeedbackView, error) {
	r, err := f.DecodeRubric()
	if err != nil {
		return FeedbackView{}, err
	}
	return FeedbackView{OverallScore: ClampOverall(f.OverallScore), Rubric: r, CreatedAt: f.CreatedAt}, nil
}
