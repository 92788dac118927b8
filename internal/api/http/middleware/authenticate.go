package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ndanilin/linkpage-server/internal/api/http/httpctx"
	"github.com/ndanilin/linkpage-server/internal/logger"
	"github.com/ndanilin/linkpage-server/internal/model"
)

// TokenService resolves the principal from bearer tokens.
type TokenService interface {
	GetPrincipal(ctx context.Context, token string) (model.Principal, error)
}

// Authenticate validates bearer tokens and injects the principal into the
// request context.
type Authenticate struct {
	tokenService TokenService
	logger       *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokenService TokenService, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenService: tokenService, logger: logger}
}

// Require rejects requests without a valid access token.
func (m *Authenticate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := m.principal(r)
		if !ok {
			http.Error(w, "authorization required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(httpctx.WithPrincipal(r.Context(), principal)))
	})
}

// Optional injects the principal when a valid token is presented and passes
// the request through either way. Public pages use it to recognize owners.
func (m *Authenticate) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal, ok := m.principal(r); ok {
			r = r.WithContext(httpctx.WithPrincipal(r.Context(), principal))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Authenticate) principal(r *http.Request) (model.Principal, bool) {
	tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if tokenString == "" {
		if cookie, err := r.Cookie("access_token"); err == nil {
			tokenString = cookie.Value
		}
	}
	if tokenString == "" {
		return model.Principal{}, false
	}

	principal, err := m.tokenService.GetPrincipal(r.Context(), tokenString)
	if err != nil {
		return model.Principal{}, false
	}

	return principal, true
}
