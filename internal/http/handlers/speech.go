package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/medsim-backend/internal/http/response"
	"github.com/yungbote/medsim-backend/internal/platform/apierr"
	"github.com/yungbote/medsim-backend/internal/services"
)

type SpeechHandler struct {
	speech services.SpeechService
}

func NewSpeechHandler(speech services.SpeechService) *SpeechHandler {
	return &SpeechHandler{speech: speech}
}

// GET /api/messages/:id/speech
func (h *SpeechHandler) GetMessageSpeech(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, apierr.NotFound("Message not found"))
		return
	}
	audio, err := h.speech.MessageAudio(requestDBC(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", "patient_"+id.String()+".mp3"))
	c.Header("Cache-Control", "private, max-age=86400")
	c.Data(http.StatusOK, "audio/mpeg", audio)
}
