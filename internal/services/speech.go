package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yungbote/medsim-backend/internal/data/repos"
	types "github.com/yungbote/medsim-backend/internal/domain"
	"github.com/yungbote/medsim-backend/internal/observability"
	"github.com/yungbote/medsim-backend/internal/platform/apierr"
	"github.com/yungbote/medsim-backend/internal/platform/dbctx"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

type TextToSpeech interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// AudioCache stores synthesized audio by message id. Messages are immutable, so entries never go stale.
type AudioCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte) error
}

type SpeechService interface {
	MessageAudio(dbc dbctx.Context, messageID uuid.UUID) ([]byte, error)
}

type speechService struct {
	db          *gorm.DB
	log         *logger.Logger
	messageRepo repos.MessageRepo
	threadRepo  repos.ThreadRepo
	tts         TextToSpeech
	cache       AudioCache
	group       singleflight.Group
}

// NewSpeechService wires text-to-speech for patient messages. tts and cache may be nil.
func NewSpeechService(db *gorm.DB, log *logger.Logger, messageRepo repos.MessageRepo, threadRepo repos.ThreadRepo, tts TextToSpeech, cache AudioCache) SpeechService {
	return &speechService{
		db:          db,
		log:         log.With("service", "SpeechService"),
		messageRepo: messageRepo,
		threadRepo:  threadRepo,
		tts:         tts,
		cache:       cache,
	}
}

func (ss *speechService) MessageAudio(dbc dbctx.Context, messageID uuid.UUID) ([]byte, error) {
	userID, err := requestUserID(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := ss.messageRepo.GetByIDs(dbc, []uuid.UUID{messageID})
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, apierr.NotFound("Message not found")
	}
	msg := msgs[0]
	threads, err := ss.threadRepo.GetByIDs(dbc, []uuid.UUID{msg.ThreadID})
	if err != nil {
		return nil, err
	}
	if len(threads) == 0 || threads[0].UserID != userID {
		return nil, apierr.Forbidden("Unauthorized")
	}
	if msg.Role != types.RolePatient {
		return nil, apierr.Validation("Only patient messages have speech")
	}
	if ss.tts == nil {
		return nil, apierr.New(http.StatusInternalServerError, "not_configured", errors.New("text-to-speech not configured"))
	}

	key := msg.ID.String()
	if audio, ok := ss.cached(dbc.Ctx, key); ok {
		return audio, nil
	}

	// Shared by every waiter on key, so one caller going away must not cancel it.
	shared := context.WithoutCancel(dbc.Ctx)
	v, err, _ := ss.group.Do(key, func() (interface{}, error) {
		audio, err := ss.tts.Synthesize(shared, msg.Content)
		if err != nil {
			return nil, err
		}
		ss.store(shared, key, audio)
		return audio, nil
	})
	if err != nil {
		ss.log.Warn("Speech generation failed", "message_id", msg.ID, "error", err)
		return nil, apierr.Upstream("Speech generation failed", err)
	}
	return v.([]byte), nil
}

func (ss *speechService) cached(ctx context.Context, key string) ([]byte, bool) {
	if ss.cache == nil {
		return nil, false
	}
	audio, ok, err := ss.cache.Get(ctx, key)
	if err != nil {
		ss.log.Warn("Audio cache read failed", "key", key, "error", err)
		observability.Current().IncAudioCache("error")
		return nil, false
	}
	if !ok || len(audio) == 0 {
		observability.Current().IncAudioCache("miss")
		return nil, false
	}
	observability.Current().IncAudioCache("hit")
	return audio, true
}

func (ss *speechService) store(ctx context.Context, key string, audio []byte) {
	if ss.cache == nil || len(audio) == 0 {
		return
	}
	if err := ss.cache.Put(ctx, key, audio); err != nil {
		ss.log.Warn("Audio cache write failed", "key", key, "error", err)
		observability.Current().IncAudioCache("error")
	}
}
