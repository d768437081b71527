package http

import (
	"net/http"
	"strings"

	"github.com/lanternworks/gatehouse/internal/auth/service"
	"github.com/lanternworks/gatehouse/pkg/httpx"
)

// RegisterHandler serves POST /v1/{role}/register.
type RegisterHandler struct {
	AuthService *service.AuthService
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

// ServeHTTP godoc
//
//	@Summary		Register
//	@Description	Creates an account in the role family. Moderator and admin accounts cannot log in until their email is verified.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			role	path		string			true	"Role family"	Enums(admin, moderator, member)
//	@Param			body	body		registerRequest	true	"New account"
//	@Success		201		{object}	accountProfile
//	@Failure		400		{object}	httpx.ErrorBody	"Malformed request or weak password"
//	@Failure		409		{object}	httpx.ErrorBody	"Email or username taken"
//	@Failure		429		{object}	httpx.ErrorBody	"Rate limited"
//	@Router			/v1/{role}/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	role, ok := rolePathValue(w, r)
	if !ok {
		return
	}

	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "A valid email is required.")
		return
	}

	account, err := h.AuthService.Register(r.Context(), service.RegisterRequest{
		Role:     role,
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, newAccountProfile(account))
}
