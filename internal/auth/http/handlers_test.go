package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lanternworks/gatehouse/internal/auth/domain"
	"github.com/lanternworks/gatehouse/internal/auth/service"
	sqlitestore "github.com/lanternworks/gatehouse/internal/auth/store/drivers/sqlite"
	"github.com/lanternworks/gatehouse/pkg/cryptox"
	"github.com/lanternworks/gatehouse/pkg/jwtx"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

const (
	testIssuer   = "gatehouse-test"
	testPassword = "correct horse battery staple"
)

type testServer struct {
	router *Router
	store  *sqlitestore.Store
	auth   *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlitestore.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Issuer: testIssuer})
	require.NoError(t, err)

	tokens := &service.TokenService{Keys: km, Store: st, Issuer: testIssuer}
	auth := &service.AuthService{Store: st, Tokens: tokens, Lockout: service.DefaultLockoutPolicy()}

	router := NewRouter(km.KeySet, km.Verifier, "test", st, testLogger())
	router.AuthService = auth
	router.TokenService = tokens
	router.ApplyRoutes()

	return &testServer{router: router, store: st, auth: auth}
}

func (s *testServer) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, role domain.Role, email string) domain.Account {
	t.Helper()

	account, err := s.auth.Register(context.Background(), service.RegisterRequest{
		Role:     role,
		Email:    email,
		Password: testPassword,
	})
	require.NoError(t, err)
	require.NoError(t, s.store.Accounts().SetEmailVerified(context.Background(), account.ID, true))
	return account
}

type tokenBlock struct {
	Access       string    `json:"access"`
	Refresh      string    `json:"refresh"`
	ExpiresAt    time.Time `json:"expired_at"`
	RefreshUntil time.Time `json:"refreshable_until"`
}

type loginBody struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Role  string     `json:"role"`
	Token tokenBlock `json:"token"`
}

func (s *testServer) login(t *testing.T, role domain.Role, identifier, password string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodPost, "/v1/"+role.String()+"/login", map[string]string{
		"identifier": identifier,
		"password":   password,
	}, nil)
}

func TestLoginEndpoint(t *testing.T) {
	srv := newTestServer(t)
	account := srv.register(t, domain.RoleMember, "alice@example.com")

	rec := srv.login(t, domain.RoleMember, account.Email, testPassword)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body loginBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, account.ID, body.ID)
	require.Equal(t, "member", body.Role)
	require.NotEmpty(t, body.Token.Access)
	require.NotEmpty(t, body.Token.Refresh)
	require.True(t, body.Token.RefreshUntil.After(body.Token.ExpiresAt))
}

func TestLoginFailuresAreByteIdentical(t *testing.T) {
	srv := newTestServer(t)
	account := srv.register(t, domain.RoleMember, "bob@example.com")

	unknown := srv.login(t, domain.RoleMember, "ghost@example.com", testPassword)
	wrongPw := srv.login(t, domain.RoleMember, account.Email, "not the password")
	wrongRole := srv.login(t, domain.RoleAdmin, account.Email, testPassword)

	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	require.Equal(t, http.StatusUnauthorized, wrongRole.Code)

	// The response must not reveal which part of the credential failed.
	require.Equal(t, unknown.Body.Bytes(), wrongPw.Body.Bytes())
	require.Equal(t, unknown.Body.Bytes(), wrongRole.Body.Bytes())
}

func TestLoginLockedReturns423(t *testing.T) {
	srv := newTestServer(t)
	account := srv.register(t, domain.RoleMember, "carol@example.com")

	for i := 0; i < service.DefaultLockoutThreshold; i++ {
		rec := srv.login(t, domain.RoleMember, account.Email, "wrong")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := srv.login(t, domain.RoleMember, account.Email, testPassword)
	require.Equal(t, http.StatusLocked, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	// No attempt counts in the body.
	require.NotContains(t, rec.Body.String(), "attempt")
}

func TestLoginInactiveReturns403(t *testing.T) {
	srv := newTestServer(t)
	account := srv.register(t, domain.RoleMember, "dave@example.com")
	require.NoError(t, srv.store.Accounts().SetActive(context.Background(), account.ID, false))

	rec := srv.login(t, domain.RoleMember, account.Email, testPassword)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginUnknownRoleReturns404(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/v1/superuser/login", map[string]string{
		"identifier": "x@example.com", "password": "whatever",
	}, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoginRateLimit(t *testing.T) {
	srv := newTestServer(t)

	var last int
	for i := 0; i <= 12; i++ {
		rec := srv.login(t, domain.RoleMember, "ratelimited@example.com", "pw-attempt")
		last = rec.Code
		if last == http.StatusTooManyRequests {
			require.NotEmpty(t, rec.Header().Get("Retry-After"))
			return
		}
	}
	t.Fatalf("rate limit never engaged, last status %d", last)
}

func TestRefreshEndpoint(t *testing.T) {
	srv := newTestServer(t)
	account := srv.register(t, domain.RoleMember, "erin@example.com")

	rec := srv.login(t, domain.RoleMember, account.Email, testPassword)
	require.Equal(t, http.StatusOK, rec.Code)
	var body loginBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	refresh := srv.do(t, http.MethodPost, "/v1/member/refresh", map[string]string{
		"refresh_token": body.Token.Refresh,
	}, nil)
	require.Equal(t, http.StatusOK, refresh.Code)

	var rotated struct {
		Token tokenBlock `json:"token"`
	}
	require.NoError(t, json.Unmarshal(refresh.Body.Bytes(), &rotated))
	require.NotEqual(t, body.Token.Refresh, rotated.Token.Refresh)

	// Replay of the spent token is a 401.
	replay := srv.do(t, http.MethodPost, "/v1/member/refresh", map[string]string{
		"refresh_token": body.Token.Refresh,
	}, nil)
	require.Equal(t, http.StatusUnauthorized, replay.Code)
}

func TestRefreshCrossRoleReturns401(t *testing.T) {
	srv := newTestServer(t)
	account := srv.register(t, domain.RoleMember, "frank@example.com")

	rec := srv.login(t, domain.RoleMember, account.Email, testPassword)
	var body loginBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	cross := srv.do(t, http.MethodPost, "/v1/admin/refresh", map[string]string{
		"refresh_token": body.Token.Refresh,
	}, nil)
	require.Equal(t, http.StatusUnauthorized, cross.Code)
}

func TestLogoutEndpointIdempotent(t *testing.T) {
	srv := newTestServer(t)
	account := srv.register(t, domain.RoleMember, "grace@example.com")

	rec := srv.login(t, domain.RoleMember, account.Email, testPassword)
	var body loginBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	for i := 0; i < 2; i++ {
		out := srv.do(t, http.MethodPost, "/v1/member/logout", map[string]string{
			"refresh_token": body.Token.Refresh,
		}, nil)
		require.Equal(t, http.StatusNoContent, out.Code)
	}

	// The session is gone for refresh purposes.
	replay := srv.do(t, http.MethodPost, "/v1/member/refresh", map[string]string{
		"refresh_token": body.Token.Refresh,
	}, nil)
	require.Equal(t, http.StatusUnauthorized, replay.Code)
}

func TestMeEndpoint(t *testing.T) {
	srv := newTestServer(t)
	account := srv.register(t, domain.RoleMember, "heidi@example.com")

	rec := srv.login(t, domain.RoleMember, account.Email, testPassword)
	var body loginBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	authz := http.Header{"Authorization": []string{"Bearer " + body.Token.Access}}
	me := srv.do(t, http.MethodGet, "/v1/member/me", nil, authz)
	require.Equal(t, http.StatusOK, me.Code)

	var profile struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(me.Body.Bytes(), &profile))
	require.Equal(t, account.ID, profile.ID)
	require.Equal(t, account.Email, profile.Email)

	// Without a token: 401 with a bearer challenge.
	anon := srv.do(t, http.MethodGet, "/v1/member/me", nil, nil)
	require.Equal(t, http.StatusUnauthorized, anon.Code)
	require.Contains(t, anon.Header().Get("WWW-Authenticate"), "Bearer")

	// A refresh token is not an access token.
	wrongUse := srv.do(t, http.MethodGet, "/v1/member/me", nil,
		http.Header{"Authorization": []string{"Bearer " + body.Token.Refresh}})
	require.Equal(t, http.StatusUnauthorized, wrongUse.Code)
}

func TestRegisterEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/v1/member/register", map[string]string{
		"email": "ivan@example.com", "password": testPassword,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	dup := srv.do(t, http.MethodPost, "/v1/member/register", map[string]string{
		"email": "ivan@example.com", "password": testPassword,
	}, nil)
	require.Equal(t, http.StatusConflict, dup.Code)

	weak := srv.do(t, http.MethodPost, "/v1/member/register", map[string]string{
		"email": "judy@example.com", "password": "short",
	}, nil)
	require.Equal(t, http.StatusBadRequest, weak.Code)
}

func TestPasswordChangeEndpoint(t *testing.T) {
	srv := newTestServer(t)
	account := srv.register(t, domain.RoleMember, "kim@example.com")

	rec := srv.login(t, domain.RoleMember, account.Email, testPassword)
	var body loginBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	authz := http.Header{"Authorization": []string{"Bearer " + body.Token.Access}}
	change := srv.do(t, http.MethodPost, "/v1/member/password", map[string]string{
		"current_password": testPassword,
		"new_password":     "a different long password",
	}, authz)
	require.Equal(t, http.StatusNoContent, change.Code)

	// The refresh token issued before the change is dead.
	replay := srv.do(t, http.MethodPost, "/v1/member/refresh", map[string]string{
		"refresh_token": body.Token.Refresh,
	}, nil)
	require.Equal(t, http.StatusUnauthorized, replay.Code)
}

func TestJWKSEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/v1/jwks", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var jwks jwtx.JWKS
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jwks))
	require.NotEmpty(t, jwks.Keys)
	for _, k := range jwks.Keys {
		require.Equal(t, "OKP", k.Kty)
		require.NotEmpty(t, k.Kid)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	livez := srv.do(t, http.MethodGet, "/livez", nil, nil)
	require.Equal(t, http.StatusOK, livez.Code)

	readyz := srv.do(t, http.MethodGet, "/readyz", nil, nil)
	require.Equal(t, http.StatusOK, readyz.Code)

	var ready healthResponse
	require.NoError(t, json.Unmarshal(readyz.Body.Bytes(), &ready))
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Signer)
}

func TestMalformedJSONReturns400(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/member/login", bytes.NewReader([]byte("{broken")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// testLogger keeps handler logging quiet but wired through the middleware.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
