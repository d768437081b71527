package http

import (
	"net/http"

	"github.com/lanternworks/gatehouse/internal/auth/service"
)

// LogoutHandler serves POST /v1/{role}/logout.
type LogoutHandler struct {
	AuthService *service.AuthService
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ServeHTTP godoc
//
//	@Summary		Logout
//	@Description	Revokes the session behind the refresh token. Idempotent: an unknown or already-revoked token still yields 204.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			role	path	string			true	"Role family"	Enums(admin, moderator, member)
//	@Param			body	body	logoutRequest	true	"Refresh token"
//	@Success		204		"Session revoked or already gone"
//	@Failure		400		{object}	httpx.ErrorBody	"Malformed request"
//	@Failure		429		{object}	httpx.ErrorBody	"Rate limited"
//	@Router			/v1/{role}/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := rolePathValue(w, r); !ok {
		return
	}

	var req logoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.AuthService.Logout(r.Context(), req.RefreshToken); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
