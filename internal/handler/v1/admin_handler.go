package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/salus-hms/salus-api/pkg/auth"
)

type AdminHandler struct {
	sessions *auth.SessionManager
}

func NewAdminHandler(sessions *auth.SessionManager) *AdminHandler {
	return &AdminHandler{sessions: sessions}
}

type adminLoginRequest struct {
	Passkey string `json:"passkey" binding:"required"`
}

type adminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req adminLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, expiresAt, err := h.sessions.Login(req.Passkey)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, adminLoginResponse{Token: token, ExpiresAt: expiresAt})
}
