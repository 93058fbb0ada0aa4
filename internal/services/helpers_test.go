package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/medsim-backend/internal/data/repos"
	"github.com/yungbote/medsim-backend/internal/data/repos/testutil"
	types "github.com/yungbote/medsim-backend/internal/domain"
	"github.com/yungbote/medsim-backend/internal/platform/apierr"
	"github.com/yungbote/medsim-backend/internal/platform/ctxutil"
	"github.com/yungbote/medsim-backend/internal/platform/dbctx"
	"github.com/yungbote/medsim-backend/internal/platform/llm"
)

type fakeLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []llm.Request
}

func (f *fakeLLM) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeLLM) Provider() string { return "fake" }

func (f *fakeLLM) last() llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type fakeTTS struct {
	calls int32
	audio []byte
	err   error
	gate  chan struct{}
}

func (f *fakeTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.gate != nil {
		<-f.gate
	}
	return f.audio, f.err
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Put(ctx context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.data[key] = data
	return nil
}

type testEnv struct {
	db           *gorm.DB
	threadRepo   repos.ThreadRepo
	messageRepo  repos.MessageRepo
	feedbackRepo repos.FeedbackRepo
	userRepo     repos.UserRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return &testEnv{
		db:           db,
		threadRepo:   repos.NewThreadRepo(db, log),
		messageRepo:  repos.NewMessageRepo(db, log),
		feedbackRepo: repos.NewFeedbackRepo(db, log),
		userRepo:     repos.NewUserRepo(db, log),
	}
}

func (e *testEnv) threadService(t *testing.T, model llm.Client) ThreadService {
	t.Helper()
	log := testutil.Logger(t)
	return NewThreadService(e.db, log, e.threadRepo, e.messageRepo, e.feedbackRepo,
		NewPatientSimulator(log, model), NewFeedbackAggregator(log, model))
}

// asUser seeds a user and returns a request context authenticated as them.
func (e *testEnv) asUser(t *testing.T, email string) (dbctx.Context, *types.User) {
	t.Helper()
	u := testutil.SeedUser(t, context.Background(), e.db, email)
	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: u.ID})
	return dbctx.Context{Ctx: ctx}, u
}

func (e *testEnv) count(t *testing.T, model interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apierr.Error with status %d, got %v", status, err)
	}
	if ae.Status != status {
		t.Fatalf("status: got=%d want=%d (err=%v)", ae.Status, status, err)
	}
}
