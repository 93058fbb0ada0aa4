package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/medsim-backend/internal/data/repos"
	types "github.com/yungbote/medsim-backend/internal/domain"
	"github.com/yungbote/medsim-backend/internal/platform/apierr"
	"github.com/yungbote/medsim-backend/internal/platform/ctxutil"
	"github.com/yungbote/medsim-backend/internal/platform/dbctx"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

// minDoctorMessages is the shortest session that gets scored; shorter ones are discarded on end.
const minDoctorMessages = 2

type EndResult struct {
	Deleted  bool
	Thread   *types.Thread
	Feedback *types.Feedback
}

type ThreadService interface {
	Create(dbc dbctx.Context, title string) (*types.Thread, error)
	List(dbc dbctx.Context, status string) ([]*types.Thread, error)
	Get(dbc dbctx.Context, threadID uuid.UUID) (*types.Thread, error)
	Rename(dbc dbctx.Context, threadID uuid.UUID, title string) (*types.Thread, error)
	Delete(dbc dbctx.Context, threadID uuid.UUID) error
	ListMessages(dbc dbctx.Context, threadID uuid.UUID) ([]*types.Message, error)
	PostMessage(dbc dbctx.Context, threadID uuid.UUID, role string, content string) ([]*types.Message, error)
	End(dbc dbctx.Context, threadID uuid.UUID) (*EndResult, error)
	GetFeedback(dbc dbctx.Context, threadID uuid.UUID) (*types.Feedback, error)
	Transcript(dbc dbctx.Context, threadID uuid.UUID) (string, error)
}

type threadService struct {
	db           *gorm.DB
	log          *logger.Logger
	threadRepo   repos.ThreadRepo
	messageRepo  repos.MessageRepo
	feedbackRepo repos.FeedbackRepo
	patient      PatientSimulator
	feedback     FeedbackAggregator
}

func NewThreadService(
	db *gorm.DB,
	log *logger.Logger,
	threadRepo repos.ThreadRepo,
	messageRepo repos.MessageRepo,
	feedbackRepo repos.FeedbackRepo,
	patient PatientSimulator,
	feedback FeedbackAggregator,
) ThreadService {
	return &threadService{
		db:           db,
		log:          log.With("service", "ThreadService"),
		threadRepo:   threadRepo,
		messageRepo:  messageRepo,
		feedbackRepo: feedbackRepo,
		patient:      patient,
		feedback:     feedback,
	}
}

// Create opens a thread. Without a title it is named "Patient {n+1}" from the user's
// thread count; concurrent creates may pick the same number.
func (ts *threadService) Create(dbc dbctx.Context, title string) (*types.Thread, error) {
	userID, err := requestUserID(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		n, err := ts.threadRepo.CountByUser(dbc, userID)
		if err != nil {
			return nil, fmt.Errorf("count threads: %w", err)
		}
		title = fmt.Sprintf("Patient %d", n+1)
	}
	created, err := ts.threadRepo.Create(dbc, []*types.Thread{{
		UserID: userID,
		Title:  title,
		Status: types.ThreadOpen,
	}})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (ts *threadService) List(dbc dbctx.Context, status string) ([]*types.Thread, error) {
	userID, err := requestUserID(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	filter := types.ThreadStatus(strings.TrimSpace(status))
	if !filter.Valid() {
		filter = ""
	}
	return ts.threadRepo.ListByUser(dbc, userID, filter)
}

func (ts *threadService) Get(dbc dbctx.Context, threadID uuid.UUID) (*types.Thread, error) {
	userID, err := requestUserID(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return ts.owned(dbc, threadID, userID)
}

func (ts *threadService) owned(dbc dbctx.Context, threadID, userID uuid.UUID) (*types.Thread, error) {
	t, err := ts.threadRepo.GetOwned(dbc, threadID, userID)
	if isNotFound(err) {
		return nil, apierr.NotFound("Not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}
	return t, nil
}

func (ts *threadService) Rename(dbc dbctx.Context, threadID uuid.UUID, title string) (*types.Thread, error) {
	userID, err := requestUserID(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	t, err := ts.owned(dbc, threadID, userID)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apierr.Validation("title is required")
	}
	now := time.Now().UTC()
	if err := ts.threadRepo.UpdateFields(dbc, t.ID, map[string]interface{}{
		"title":      title,
		"updated_at": now,
	}); err != nil {
		return nil, fmt.Errorf("rename thread: %w", err)
	}
	t.Title = title
	t.UpdatedAt = now
	return t, nil
}

func (ts *threadService) Delete(dbc dbctx.Context, threadID uuid.UUID) error {
	userID, err := requestUserID(dbc.Ctx)
	if err != nil {
		return err
	}
	t, err := ts.owned(dbc, threadID, userID)
	if err != nil {
		return err
	}
	return ts.purge(dbc, t.ID)
}

// purge removes a thread with its messages and feedback in one transaction.
func (ts *threadService) purge(dbc dbctx.Context, threadID uuid.UUID) error {
	return ts.inTx(dbc, func(inner dbctx.Context) error {
		ids := []uuid.UUID{threadID}
		if err := ts.feedbackRepo.DeleteByThreadIDs(inner, ids); err != nil {
			return fmt.Errorf("delete feedback: %w", err)
		}
		if err := ts.messageRepo.DeleteByThreadIDs(inner, ids); err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if err := ts.threadRepo.DeleteByIDs(inner, ids); err != nil {
			return fmt.Errorf("delete thread: %w", err)
		}
		return nil
	})
}

func (ts *threadService) inTx(dbc dbctx.Context, fn func(inner dbctx.Context) error) error {
	if dbc.Tx != nil {
		return fn(dbc)
	}
	return ts.db.WithContext(dbc.Context()).Transaction(func(tx *gorm.DB) error {
		return fn(dbc.WithTx(tx))
	})
}

func (ts *threadService) ListMessages(dbc dbctx.Context, threadID uuid.UUID) ([]*types.Message, error) {
	userID, err := requestUserID(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	t, err := ts.owned(dbc, threadID, userID)
	if err != nil {
		return nil, err
	}
	return ts.messageRepo.ListByThread(dbc, t.ID)
}

// PostMessage appends a message. A doctor message reserves two consecutive seqs so the
// simulated patient reply always lands directly after it, even if another post
// interleaves while the model is running. The doctor message is committed before the
// model call; the reply is written once it returns.
func (ts *threadService) PostMessage(dbc dbctx.Context, threadID uuid.UUID, role string, content string) ([]*types.Message, error) {
	userID, err := requestUserID(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	r := types.Role(strings.TrimSpace(role))
	content = strings.TrimSpace(content)

	t, err := ts.owned(dbc, threadID, userID)
	if err != nil {
		return nil, err
	}
	if !t.IsOpen() {
		return nil, apierr.Conflict("Thread is closed")
	}
	if !r.Valid() || content == "" {
		return nil, apierr.Validation("Invalid payload")
	}

	reserve := int64(1)
	if r == types.RoleDoctor {
		reserve = 2
	}

	var (
		posted  *types.Message
		history []*types.Message
		last    int64
	)
	err = ts.inTx(dbc, func(inner dbctx.Context) error {
		var err error
		last, err = ts.threadRepo.ReserveSeq(inner, t.ID, userID, reserve)
		if errors.Is(err, repos.ErrThreadNotOpen) {
			if _, gerr := ts.threadRepo.GetOwned(inner, t.ID, userID); isNotFound(gerr) {
				return apierr.NotFound("Not found")
			}
			return apierr.Conflict("Thread is closed")
		}
		if err != nil {
			return err
		}
		if r == types.RoleDoctor {
			if history, err = ts.messageRepo.ListByThread(inner, t.ID); err != nil {
				return fmt.Errorf("load history: %w", err)
			}
		}
		created, err := ts.messageRepo.Create(inner, []*types.Message{{
			ThreadID: t.ID,
			UserID:   userID,
			Seq:      last - reserve + 1,
			Role:     r,
			Content:  content,
		}})
		if err != nil {
			return err
		}
		posted = created[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	if r == types.RoleDoctor {
		reply, err := ts.patient.Reply(dbc.Ctx, posted.Content, history)
		if err != nil {
			ts.log.Warn("Patient simulation failed, using fallback reply",
				append(ctxutil.LogFields(dbc.Ctx), "thread_id", t.ID, "error", err)...)
			reply = ReplyTrouble
		}
		if _, err := ts.messageRepo.Create(dbc, []*types.Message{{
			ThreadID: t.ID,
			UserID:   userID,
			Seq:      last,
			Role:     types.RolePatient,
			Content:  reply,
		}}); err != nil {
			return nil, fmt.Errorf("store patient reply: %w", err)
		}
	}

	return ts.messageRepo.ListByThread(dbc, t.ID)
}

// End closes a thread and scores it. Sessions with fewer than two doctor messages are
// deleted instead. Ending a closed thread returns the stored feedback unchanged.
func (ts *threadService) End(dbc dbctx.Context, threadID uuid.UUID) (*EndResult, error) {
	userID, err := requestUserID(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	t, err := ts.owned(dbc, threadID, userID)
	if err != nil {
		return nil, err
	}

	if !t.IsOpen() {
		fb, err := ts.feedbackRepo.GetByThreadID(dbc, t.ID)
		if err != nil {
			return nil, fmt.Errorf("load feedback: %w", err)
		}
		if fb != nil {
			return &EndResult{Thread: t, Feedback: fb}, nil
		}
	}

	msgs, err := ts.messageRepo.ListByThread(dbc, t.ID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	if t.IsOpen() && types.CountRole(msgs, types.RoleDoctor) < minDoctorMessages {
		if err := ts.purge(dbc, t.ID); err != nil {
			return nil, err
		}
		ts.log.Info("Discarded short session", append(ctxutil.LogFields(dbc.Ctx), "thread_id", t.ID)...)
		return &EndResult{Deleted: true}, nil
	}

	rubric, source := ts.feedback.Aggregate(dbc.Ctx, msgs)
	row, err := types.NewFeedback(t.ID, userID, rubric, source)
	if err != nil {
		return nil, err
	}

	var out EndResult
	err = ts.inTx(dbc, func(inner dbctx.Context) error {
		if _, err := ts.threadRepo.Close(inner, t.ID, time.Now().UTC()); err != nil {
			return err
		}
		// A concurrent end may have stored feedback first; keep that one.
		existing, err := ts.feedbackRepo.GetByThreadID(inner, t.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			if existing, err = ts.feedbackRepo.Create(inner, row); err != nil {
				return err
			}
		}
		closed, err := ts.threadRepo.GetOwned(inner, t.ID, userID)
		if isNotFound(err) {
			return apierr.NotFound("Not found")
		}
		if err != nil {
			return err
		}
		out = EndResult{Thread: closed, Feedback: existing}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (ts *threadService) GetFeedback(dbc dbctx.Context, threadID uuid.UUID) (*types.Feedback, error) {
	userID, err := requestUserID(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	t, err := ts.owned(dbc, threadID, userID)
	if err != nil {
		return nil, err
	}
	if t.IsOpen() {
		return nil, apierr.NotFound("Feedback not available")
	}
	fb, err := ts.feedbackRepo.GetByThreadID(dbc, t.ID)
	if err != nil {
		return nil, fmt.Errorf("load feedback: %w", err)
	}
	if fb == nil {
		return nil, apierr.NotFound("Feedback not available")
	}
	return fb, nil
}

// Transcript renders the thread as "Doctor: ..." / "Patient: ..." paragraphs.
func (ts *threadService) Transcript(dbc dbctx.Context, threadID uuid.UUID) (string, error) {
	msgs, err := ts.ListMessages(dbc, threadID)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, roleLabel(m.Role)+": "+m.Content)
	}
	return strings.Join(lines, "\n\n"), nil
}
