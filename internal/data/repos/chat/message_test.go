package chat

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/medsim-backend/internal/data/repos/testutil"
	types "github.com/yungbote/medsim-backend/internal/domain"
	"github.com/yungbote/medsim-backend/internal/platform/dbctx"
)

func TestMessageRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "msg@example.com")
	th := testutil.SeedThread(t, ctx, tx, u.ID, "Patient 1")
	repo := NewMessageRepo(db, testutil.Logger(t))

	// Inserted out of order on purpose; listing follows seq.
	_, err := repo.Create(dbc, []*types.Message{
		{ThreadID: th.ID, UserID: u.ID, Seq: 2, Role: types.RolePatient, Content: "It hurts."},
		{ThreadID: th.ID, UserID: u.ID, Seq: 1, Role: types.RoleDoctor, Content: "Where is the pain?"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.Create(dbc, []*types.Message{{ThreadID: th.ID, UserID: u.ID, Seq: 3, Role: "nurse", Content: "x"}}); err == nil {
		t.Fatalf("Create: expected error for invalid role")
	}

	rows, err := repo.ListByThread(dbc, th.ID)
	if err != nil {
		t.Fatalf("ListByThread: %v", err)
	}
	if len(rows) != 2 || rows[0].Role != types.RoleDoctor || rows[1].Role != types.RolePatient {
		t.Fatalf("ListByThread: unexpected order: %+v", rows)
	}

	got, err := repo.GetByIDs(dbc, []uuid.UUID{rows[1].ID})
	if err != nil || len(got) != 1 || got[0].Content != "It hurts." {
		t.Fatalf("GetByIDs: got=%+v err=%v", got, err)
	}

	if err := repo.DeleteByThreadIDs(dbc, []uuid.UUID{th.ID}); err != nil {
		t.Fatalf("DeleteByThreadIDs: %v", err)
	}
	rows, _ = repo.ListByThread(dbc, th.ID)
	if len(rows) != 0 {
		t.Fatalf("ListByThread after delete: got=%d want=0", len(rows))
	}
}

func TestMessageRepoSeqUnique(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "seq@example.com")
	th := testutil.SeedThread(t, ctx, tx, u.ID, "Patient 1")
	repo := NewMessageRepo(db, testutil.Logger(t))

	if _, err := repo.Create(dbc, []*types.Message{{ThreadID: th.ID, UserID: u.ID, Seq: 1, Role: types.RoleDoctor, Content: "a"}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Create(dbc, []*types.Message{{ThreadID: th.ID, UserID: u.ID, Seq: 1, Role: types.RoleDoctor, Content: "b"}}); err == nil {
		t.Fatalf("Create: expected unique violation on duplicate seq")
	}
}
