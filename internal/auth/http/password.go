package http

import (
	"net/http"

	"github.com/lanternworks/gatehouse/internal/auth/service"
	"github.com/lanternworks/gatehouse/pkg/httpx"
)

// PasswordChangeHandler serves POST /v1/{role}/password.
type PasswordChangeHandler struct {
	AuthService *service.AuthService
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ServeHTTP godoc
//
//	@Summary		Change password
//	@Description	Replaces the password after verifying the current one, then revokes every outstanding session of the account.
//	@Tags			Account
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			role	path	string					true	"Role family"	Enums(admin, moderator, member)
//	@Param			body	body	passwordChangeRequest	true	"Current and new password"
//	@Success		204		"Password changed, all sessions revoked"
//	@Failure		400		{object}	httpx.ErrorBody	"Malformed request or weak password"
//	@Failure		401		{object}	httpx.ErrorBody	"Bad bearer token or wrong current password"
//	@Failure		429		{object}	httpx.ErrorBody	"Rate limited"
//	@Router			/v1/{role}/password [post].
func (h *PasswordChangeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	role, ok := rolePathValue(w, r)
	if !ok {
		return
	}

	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok || claims.Role != role.String() {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", invalidTokenMessage)
		return
	}

	var req passwordChangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "current_password and new_password are required.")
		return
	}

	if err := h.AuthService.ChangePassword(r.Context(), claims.Subject, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
