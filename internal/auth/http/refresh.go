package http

import (
	"net/http"

	"github.com/lanternworks/gatehouse/internal/auth/domain"
	"github.com/lanternworks/gatehouse/internal/auth/service"
	"github.com/lanternworks/gatehouse/pkg/httpx"
)

// RefreshHandler serves POST /v1/{role}/refresh.
type RefreshHandler struct {
	TokenService *service.TokenService
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	Token domain.TokenPair `json:"token"`
}

// ServeHTTP godoc
//
//	@Summary		Refresh tokens
//	@Description	Spends a refresh token: the old session is revoked and a new pair bound to a replacement session is issued. A refresh token works exactly once.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			role	path		string			true	"Role family"	Enums(admin, moderator, member)
//	@Param			body	body		refreshRequest	true	"Refresh token"
//	@Success		200		{object}	refreshResponse
//	@Failure		400		{object}	httpx.ErrorBody	"Malformed request"
//	@Failure		401		{object}	httpx.ErrorBody	"Invalid, expired or already-spent token"
//	@Failure		403		{object}	httpx.ErrorBody	"Account no longer allowed to authenticate"
//	@Failure		429		{object}	httpx.ErrorBody	"Rate limited"
//	@Header		200		{string}	Cache-Control	"no-store"
//	@Router			/v1/{role}/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	role, ok := rolePathValue(w, r)
	if !ok {
		return
	}

	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required.")
		return
	}

	pair, _, err := h.TokenService.Refresh(r.Context(), req.RefreshToken, role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, refreshResponse{Token: pair})
}
