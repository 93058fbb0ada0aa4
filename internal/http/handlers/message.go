package handlers

import (
	"github.com/gin-gonic/gin"

	types "github.com/yungbote/medsim-backend/internal/domain"
	"github.com/yungbote/medsim-backend/internal/http/response"
	"github.com/yungbote/medsim-backend/internal/services"
)

type MessageHandler struct {
	threads services.ThreadService
}

func NewMessageHandler(threads services.ThreadService) *MessageHandler {
	return &MessageHandler{threads: threads}
}

// GET /api/threads/:id/messages
func (h *MessageHandler) ListMessages(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	msgs, err := h.threads.ListMessages(requestDBC(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, types.MessageViews(msgs))
}

// POST /api/threads/:id/messages
// body: { "role": "doctor"|"patient", "content": "..." }
func (h *MessageHandler) PostMessage(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	// A malformed body is reported by the service after the ownership and closed checks.
	_ = bindBody(c, &req)
	msgs, err := h.threads.PostMessage(requestDBC(c), id, req.Role, req.Content)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, types.MessageViews(msgs))
}
