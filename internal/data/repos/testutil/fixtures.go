package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/medsim-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	now := time.Now().UTC()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Name:      "Dr Test",
		Hospital:  "General",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedThread(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, title string) *types.Thread {
	tb.Helper()
	now := time.Now().UTC()
	t := &types.Thread{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Status:    types.ThreadOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed thread: %v", err)
	}
	return t
}

// SeedClosedThread creates a closed thread with feedback at the given overall score and
// section scores (keyed by category id).
func SeedClosedThread(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, title string, endedAt time.Time, overall int, sections map[string]int) (*types.Thread, *types.Feedback) {
	tb.Helper()
	t := &types.Thread{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Status:    types.ThreadClosed,
		CreatedAt: endedAt.Add(-10 * time.Minute),
		UpdatedAt: endedAt,
		EndedAt:   PtrTime(endedAt),
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed closed thread: %v", err)
	}
	r := types.Rubric{
		FeedbackText: "seeded",
		OverallScore: overall,
		Sections:     map[string]types.Section{},
	}
	for id, score := range sections {
		r.Sections[id] = types.Section{Title: id, Score: score, Feedback: "ok"}
	}
	fb, err := types.NewFeedback(t.ID, userID, r, types.FeedbackFromModel)
	if err != nil {
		tb.Fatalf("build feedback: %v", err)
	}
	if err := tx.WithContext(ctx).Create(fb).Error; err != nil {
		tb.Fatalf("seed feedback: %v", err)
	}
	return t, fb
}

func SeedMessage(tb testing.TB, ctx context.Context, tx *gorm.DB, thread *types.Thread, role types.Role, content string) *types.Message {
	tb.Helper()
	thread.NextSeq++
	m := &types.Message{
		ID:        uuid.New(),
		ThreadID:  thread.ID,
		UserID:    thread.UserID,
		Seq:       thread.NextSeq,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed message: %v", err)
	}
	if err := tx.WithContext(ctx).Model(&types.Thread{}).Where("id = ?", thread.ID).Update("next_seq", thread.NextSeq).Error; err != nil {
		tb.Fatalf("seed message seq: %v", err)
	}
	return m
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
