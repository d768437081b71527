package http

import (
	"net/http"
	"strings"

	"github.com/lanternworks/gatehouse/internal/auth/domain"
	"github.com/lanternworks/gatehouse/internal/auth/service"
	"github.com/lanternworks/gatehouse/pkg/httpx"
)

// LoginHandler serves POST /v1/{role}/login.
type LoginHandler struct {
	AuthService *service.AuthService
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	accountProfile
	Token domain.TokenPair `json:"token"`
}

// ServeHTTP godoc
//
//	@Summary		Login
//	@Description	Verifies credentials for the role family and issues an access/refresh token pair backed by a new session.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			role	path		string			true	"Role family"	Enums(admin, moderator, member)
//	@Param			body	body		loginRequest	true	"Email or username plus password"
//	@Success		200		{object}	loginResponse
//	@Failure		400		{object}	httpx.ErrorBody	"Malformed request"
//	@Failure		401		{object}	httpx.ErrorBody	"Invalid credentials (identical for unknown identifier and wrong password)"
//	@Failure		403		{object}	httpx.ErrorBody	"Account inactive or email not verified"
//	@Failure		423		{object}	httpx.ErrorBody	"Account temporarily locked; see Retry-After"
//	@Failure		429		{object}	httpx.ErrorBody	"Rate limited"
//	@Header		200		{string}	Cache-Control	"no-store"
//	@Router			/v1/{role}/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	role, ok := rolePathValue(w, r)
	if !ok {
		return
	}

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "identifier and password are required.")
		return
	}

	res, err := h.AuthService.Login(r.Context(), service.LoginRequest{
		Role:       role,
		Identifier: req.Identifier,
		Password:   req.Password,
		Source:     httpx.IPKeyExtractor(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		accountProfile: newAccountProfile(res.Account),
		Token:          res.Pair,
	})
}
