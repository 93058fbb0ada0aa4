package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/medsim-backend/internal/domain"
	"github.com/yungbote/medsim-backend/internal/http/response"
	"github.com/yungbote/medsim-backend/internal/platform/apierr"
	"github.com/yungbote/medsim-backend/internal/services"
)

type ThreadHandler struct {
	threads services.ThreadService
}

func NewThreadHandler(threads services.ThreadService) *ThreadHandler {
	return &ThreadHandler{threads: threads}
}

type endThreadResp struct {
	Thread   types.ThreadView   `json:"thread"`
	Feedback types.FeedbackView `json:"feedback"`
}

// GET /api/threads?status=open|closed
func (h *ThreadHandler) ListThreads(c *gin.Context) {
	rows, err := h.threads.List(requestDBC(c), c.Query("status"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, types.ThreadViews(rows))
}

// POST /api/threads
func (h *ThreadHandler) CreateThread(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if err := bindBody(c, &req); err != nil {
		response.RespondErr(c, apierr.Validation("Invalid payload"))
		return
	}
	t, err := h.threads.Create(requestDBC(c), req.Title)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, t.View())
}

// GET /api/threads/:id
func (h *ThreadHandler) GetThread(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	t, err := h.threads.Get(requestDBC(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, t.View())
}

// PATCH /api/threads/:id
func (h *ThreadHandler) RenameThread(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := bindBody(c, &req); err != nil {
		response.RespondErr(c, apierr.Validation("title is required"))
		return
	}
	t, err := h.threads.Rename(requestDBC(c), id, req.Title)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, t.View())
}

// DELETE /api/threads/:id
func (h *ThreadHandler) DeleteThread(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if err := h.threads.Delete(requestDBC(c), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/threads/:id/end
func (h *ThreadHandler) EndThread(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.threads.End(requestDBC(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if res.Deleted {
		response.RespondOK(c, gin.H{"deleted": true})
		return
	}
	fb, err := res.Feedback.View()
	if err != nil {
		response.RespondErr(c, fmt.Errorf("decode feedback: %w", err))
		return
	}
	response.RespondOK(c, endThreadResp{Thread: res.Thread.View(), Feedback: fb})
}

// GET /api/threads/:id/feedback
func (h *ThreadHandler) GetFeedback(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	fb, err := h.threads.GetFeedback(requestDBC(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	view, err := fb.View()
	if err != nil {
		response.RespondErr(c, fmt.Errorf("decode feedback: %w", err))
		return
	}
	response.RespondOK(c, view)
}

// GET /api/threads/:id/transcript
func (h *ThreadHandler) GetTranscript(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	text, err := h.threads.Transcript(requestDBC(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", "transcript-"+id.String()+".txt"))
	c.String(http.StatusOK, text)
}
