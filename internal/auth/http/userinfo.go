package http

import (
	"net/http"

	"github.com/lanternworks/gatehouse/internal/auth/service"
	"github.com/lanternworks/gatehouse/pkg/httpx"
)

// MeHandler serves GET /v1/{role}/me.
type MeHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Current account
//	@Description	Returns the profile of the bearer of the access token. Exercises stateless verification: no session lookup happens here.
//	@Tags			Account
//	@Produce		json
//	@Security		BearerAuth
//	@Param			role	path		string	true	"Role family"	Enums(admin, moderator, member)
//	@Success		200		{object}	accountProfile
//	@Failure		401		{object}	httpx.ErrorBody	"Missing or invalid bearer token"
//	@Failure		404		{object}	httpx.ErrorBody	"Unknown role family"
//	@Router			/v1/{role}/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	role, ok := rolePathValue(w, r)
	if !ok {
		return
	}

	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok || claims.Role != role.String() {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", invalidTokenMessage)
		return
	}

	account, err := h.AuthService.Profile(r.Context(), claims.Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newAccountProfile(account))
}
