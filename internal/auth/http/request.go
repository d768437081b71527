package http

import (
	"encoding/json"
	"net/http"

	"github.com/lanternworks/gatehouse/internal/auth/domain"
	"github.com/lanternworks/gatehouse/pkg/httpx"
)

// rolePathValue resolves the {role} path segment against the closed role
// set. Unknown segments 404 like any other unrouted path.
func rolePathValue(w http.ResponseWriter, r *http.Request) (domain.Role, bool) {
	role := domain.Role(r.PathValue("role"))
	if !role.Valid() {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Resource not found.")
		return "", false
	}
	return role, true
}

// decodeJSON reads a JSON request body into dst, writing the 400 itself on
// malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body.")
		return false
	}
	return true
}

// accountProfile is the public shape of an account.
type accountProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Username      string `json:"username,omitempty"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

func newAccountProfile(a domain.Account) accountProfile {
	return accountProfile{
		ID:            a.ID,
		Email:         a.Email,
		Username:      a.Username,
		Role:          a.Role.String(),
		EmailVerified: a.EmailVerified,
	}
}
