package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/medsim-backend/internal/http/response"
	"github.com/yungbote/medsim-backend/internal/platform/apierr"
	"github.com/yungbote/medsim-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /api/auth/google-login
func (ah *AuthHandler) GoogleLogin(c *gin.Context) {
	var req struct {
		IDToken  string `json:"id_token"`
		Hospital string `json:"hospital"`
	}
	if err := bindBody(c, &req); err != nil {
		response.RespondErr(c, apierr.Validation("Missing id_token or hospital"))
		return
	}
	res, err := ah.authService.GoogleLogin(c.Request.Context(), req.IDToken, req.Hospital)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/auth/dev-login
func (ah *AuthHandler) DevLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Hospital string `json:"hospital"`
	}
	if err := bindBody(c, &req); err != nil {
		response.RespondErr(c, apierr.Validation("email and hospital are required"))
		return
	}
	res, err := ah.authService.DevLogin(c.Request.Context(), req.Email, req.Name, req.Hospital)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}
