package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/medsim-backend/internal/http/response"
	"github.com/yungbote/medsim-backend/internal/services"
)

type AnalyticsHandler struct {
	analytics services.AnalyticsService
}

func NewAnalyticsHandler(analytics services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// GET /api/analytics
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	out, err := h.analytics.GetAnalytics(requestDBC(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}
