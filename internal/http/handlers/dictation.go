package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/medsim-backend/internal/http/response"
	"github.com/yungbote/medsim-backend/internal/platform/apierr"
	"github.com/yungbote/medsim-backend/internal/services"
)

const maxDictationBytes = 10 << 20

type DictationHandler struct {
	dictation services.DictationService
}

func NewDictationHandler(dictation services.DictationService) *DictationHandler {
	return &DictationHandler{dictation: dictation}
}

// POST /api/threads/:id/transcribe
// body: multipart form with an "audio" file, or the raw audio bytes.
func (h *DictationHandler) Transcribe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxDictationBytes)
	audio, mimeType, err := readAudio(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "too_large", errors.New("audio too large"))
			return
		}
		response.RespondErr(c, apierr.Validation("Invalid audio upload"))
		return
	}
	text, err := h.dictation.Transcribe(requestDBC(c), id, audio, mimeType)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"text": text})
}

func readAudio(c *gin.Context) ([]byte, string, error) {
	ct, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if ct == "multipart/form-data" {
		fh, err := c.FormFile("audio")
		if err != nil {
			return nil, "", err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", err
		}
		return data, strings.TrimSpace(fh.Header.Get("Content-Type")), nil
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, "", err
	}
	return data, ct, nil
}
