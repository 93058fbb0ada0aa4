package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/yungbote/medsim-backend/internal/data/repos"
	"github.com/yungbote/medsim-backend/internal/platform/apierr"
	"github.com/yungbote/medsim-backend/internal/platform/dbctx"
	"github.com/yungbote/medsim-backend/internal/platform/gcp"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// DictationService turns a recorded doctor utterance into text. It does not post a message.
type DictationService interface {
	Transcribe(dbc dbctx.Context, threadID uuid.UUID, audio []byte, mimeType string) (string, error)
}

type dictationService struct {
	log        *logger.Logger
	threadRepo repos.ThreadRepo
	stt        SpeechToText
}

func NewDictationService(log *logger.Logger, threadRepo repos.ThreadRepo, stt SpeechToText) DictationService {
	return &dictationService{log: log.With("service", "DictationService"), threadRepo: threadRepo, stt: stt}
}

func (ds *dictationService) Transcribe(dbc dbctx.Context, threadID uuid.UUID, audio []byte, mimeType string) (string, error) {
	userID, err := requestUserID(dbc.Ctx)
	if err != nil {
		return "", err
	}
	if ds.stt == nil {
		return "", apierr.NotConfigured("speech-to-text not configured")
	}
	t, err := ds.threadRepo.GetOwned(dbc, threadID, userID)
	if isNotFound(err) {
		return "", apierr.NotFound("Not found")
	}
	if err != nil {
		return "", err
	}
	if !t.IsOpen() {
		return "", apierr.Conflict("Thread is closed")
	}
	if len(audio) == 0 {
		return "", apierr.Validation("audio is required")
	}
	text, err := ds.stt.Transcribe(dbc.Ctx, audio, mimeType)
	if errors.Is(err, gcp.ErrInvalidAudio) {
		return "", apierr.Validation(err.Error())
	}
	if err != nil {
		ds.log.Warn("Transcription failed", "thread_id", t.ID, "error", err)
		return "", apierr.Upstream("speech-to-text", err)
	}
	return text, nil
}
