package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/lanternworks/gatehouse/internal/auth/service"
	"github.com/lanternworks/gatehouse/internal/auth/store"
	"github.com/lanternworks/gatehouse/pkg/httpx"
	"github.com/lanternworks/gatehouse/pkg/slogx"
)

// invalidCredentialsMessage is the one message every credential failure
// gets. Unknown identifier, wrong password and role mismatch must be
// byte-identical on the wire.
const invalidCredentialsMessage = "Invalid identifier or password."

const invalidTokenMessage = "Invalid or expired token."

// writeServiceError maps service sentinels onto HTTP statuses. Anything it
// does not recognise is logged and collapsed into a generic 500 so internal
// failure detail never leaks.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var locked *service.LockedError

	switch {
	case errors.As(err, &locked):
		retry := int(locked.RetryAfter.Round(time.Second).Seconds())
		if retry < 1 {
			retry = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		httpx.WriteError(w, http.StatusLocked, "account_locked",
			"Too many failed attempts. Try again later.")

	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", invalidCredentialsMessage)

	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrSessionInvalid):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", invalidTokenMessage)

	case errors.Is(err, service.ErrAccountInactive):
		httpx.WriteError(w, http.StatusForbidden, "account_inactive", "Account is not active.")

	case errors.Is(err, service.ErrEmailNotVerified):
		httpx.WriteError(w, http.StatusForbidden, "email_not_verified", "Email address is not verified.")

	case errors.Is(err, service.ErrWeakPassword):
		httpx.WriteError(w, http.StatusBadRequest, "weak_password", "Password does not meet the minimum requirements.")

	case errors.Is(err, store.ErrAlreadyExists):
		httpx.WriteError(w, http.StatusConflict, "already_exists", "Email or username is already taken.")

	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Resource not found.")

	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error.")
	}
}
