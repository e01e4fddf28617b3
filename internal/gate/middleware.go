package gate

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/ledgerdesk/ledgerdesk/internal/platform/httpx"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// Claims is the expected JWT payload. Token issuance lives outside this
// service; only resolution happens here.
type Claims struct {
	DisplayName  string   `json:"name"`
	Capabilities []string `json:"caps"`
	jwt.RegisteredClaims
}

// Gate parses bearer tokens into principals.
type Gate struct {
	secret []byte
	logger *slog.Logger
}

// New constructs a Gate with the given HMAC secret.
func New(secret []byte, logger *slog.Logger) *Gate {
	return &Gate{secret: secret, logger: logger}
}

// Resolve parses a raw bearer token and returns the principal it names.
func (g *Gate) Resolve(token string) (*Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return g.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: invalid token", shared.ErrUnauthorized)
	}
	caps := make([]Capability, 0, len(claims.Capabilities))
	for _, c := range claims.Capabilities {
		caps = append(caps, Capability(c))
	}
	return NewPrincipal(claims.Subject, claims.DisplayName, caps), nil
}

// Middleware attaches the resolved principal to the request context. Requests
// without a resolvable bearer token are rejected with 401.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httpx.RespondError(w, fmt.Errorf("%w: missing bearer token", shared.ErrUnauthorized))
			return
		}
		principal, err := g.Resolve(token)
		if err != nil {
			g.logger.Warn("resolve bearer token", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequireCapability rejects requests whose principal lacks the capability.
func RequireCapability(c Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				httpx.RespondError(w, fmt.Errorf("%w: no principal", shared.ErrUnauthorized))
				return
			}
			if !p.Can(c) {
				httpx.RespondError(w, fmt.Errorf("%w: missing capability %s", shared.ErrForbidden, c))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
