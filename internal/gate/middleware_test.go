package gate

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func validClaims() Claims {
	return Claims{
		DisplayName:  "Priya",
		Capabilities: []string{"transaction:write", "account:read"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sub-admin-01",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestResolve(t *testing.T) {
	g := New(testSecret, slog.Default())

	p, err := g.Resolve(signToken(t, testSecret, validClaims()))
	require.NoError(t, err)
	require.Equal(t, "sub-admin-01", p.ID)
	require.Equal(t, "Priya", p.DisplayName)
	require.True(t, p.Can(CapTransactionWrite))
	require.True(t, p.Can(CapAccountRead))
	require.False(t, p.Can(CapTrashRestore))
}

func TestResolveWrongSecret(t *testing.T) {
	g := New(testSecret, slog.Default())

	_, err := g.Resolve(signToken(t, []byte("other-secret"), validClaims()))
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestResolveExpiredToken(t *testing.T) {
	g := New(testSecret, slog.Default())

	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	_, err := g.Resolve(signToken(t, testSecret, claims))
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestResolveRequiresSubject(t *testing.T) {
	g := New(testSecret, slog.Default())

	claims := validClaims()
	claims.Subject = ""
	_, err := g.Resolve(signToken(t, testSecret, claims))
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestMiddleware(t *testing.T) {
	g := New(testSecret, slog.Default())
	var seen *Principal
	handler := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/banks", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	require.Equal(t, "sub-admin-01", seen.ID)
}

func TestMiddlewareMissingToken(t *testing.T) {
	g := New(testSecret, slog.Default())
	handler := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/banks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireCapability(t *testing.T) {
	allowed := NewPrincipal("p1", "Priya", []Capability{CapTrashRestore})
	denied := NewPrincipal("p2", "Dev", []Capability{CapAccountRead})

	handler := RequireCapability(CapTrashRestore)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/trash/bank/b1/restore", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ContextWithPrincipal(req.Context(), allowed)))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ContextWithPrincipal(req.Context(), denied)))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
