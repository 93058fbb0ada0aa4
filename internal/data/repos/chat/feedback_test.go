package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/medsim-backend/internal/data/repos/testutil"
	types "github.com/yungbote/medsim-backend/internal/domain"
	"github.com/yungbote/medsim-backend/internal/platform/dbctx"
)

func TestFeedbackRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "fb@example.com")
	th := testutil.SeedThread(t, ctx, tx, u.ID, "Patient 1")
	repo := NewFeedbackRepo(db, testutil.Logger(t))

	missing, err := repo.GetByThreadID(dbc, th.ID)
	if err != nil || missing != nil {
		t.Fatalf("GetByThreadID (missing): got=%+v err=%v", missing, err)
	}

	row, err := types.NewFeedback(th.ID, u.ID, types.FallbackRubric(), types.FeedbackFromFallback)
	if err != nil {
		t.Fatalf("NewFeedback: %v", err)
	}
	if _, err := repo.Create(dbc, row); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByThreadID(dbc, th.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByThreadID: got=%+v err=%v", got, err)
	}
	rubric, err := got.DecodeRubric()
	if err != nil {
		t.Fatalf("DecodeRubric: %v", err)
	}
	if rubric.OverallScore != 0 || len(rubric.Sections) != 6 {
		t.Fatalf("DecodeRubric: unexpected rubric: %+v", rubric)
	}

	dup, _ := types.NewFeedback(th.ID, u.ID, types.FallbackRubric(), types.FeedbackFromFallback)
	if _, err := repo.Create(dbc, dup); err == nil {
		t.Fatalf("Create: expected unique violation for second feedback on a thread")
	}

	other, _ := testutil.SeedClosedThread(t, ctx, tx, u.ID, "closed", time.Now().UTC(), 80, nil)
	list, err := repo.ListByThreadIDs(dbc, []uuid.UUID{th.ID, other.ID})
	if err != nil || len(list) != 2 {
		t.Fatalf("ListByThreadIDs: got=%d err=%v want=2", len(list), err)
	}

	if err := repo.DeleteByThreadIDs(dbc, []uuid.UUID{th.ID}); err != nil {
		t.Fatalf("DeleteByThreadIDs: %v", err)
	}
	got, _ = repo.GetByThreadID(dbc, th.ID)
	if got != nil {
		t.Fatalf("GetByThreadID after delete: expected nil")
	}
}
