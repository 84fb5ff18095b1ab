package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/toxidity-18/GLAM-BACKEND/internal/apperr"
)

const principalKey = "auth.principal"

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// CanAccess reports whether p may act on resources owned by userID.
func (p Principal) CanAccess(userID string) bool {
	return p.IsAdmin || p.UserID == userID
}

// System is the principal used by CLI commands such as seed.
var System = Principal{UserID: "system", IsAdmin: true}

// ErrUnknownPrincipal is returned by loaders when the token subject no longer
// exists.
var ErrUnknownPrincipal = errors.New("unknown principal")

// PrincipalLoader resolves a token subject into its current role.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, uid string) (Principal, error)
}

// TokenVerifier returns the subject of a valid token.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Middleware authenticates bearer tokens. The role is read from the store on
// every request so role changes and deletions apply immediately.
type Middleware struct {
	verifier TokenVerifier
	loader   PrincipalLoader
}

func NewMiddleware(verifier TokenVerifier, loader PrincipalLoader) *Middleware {
	return &Middleware{
		verifier: verifier,
		loader:   loader,
	}
}

// RequireAuth rejects requests without a valid bearer token with 401.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			apperr.Respond(c, apperr.ErrUnauthorized)
			return
		}
		if !m.authenticate(c, token) {
			return
		}
		c.Next()
	}
}

// OptionalAuth authenticates the caller when a token is present. A present
// but invalid token is still rejected.
func (m *Middleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if ok && !m.authenticate(c, token) {
			return
		}
		c.Next()
	}
}

// RequireAdmin answers 403 unless an earlier RequireAuth stored an admin
// principal.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			apperr.Respond(c, apperr.ErrUnauthorized)
			return
		}
		if !p.IsAdmin {
			apperr.Respond(c, apperr.ErrForbidden.WithMessage("admin role required"))
			return
		}
		c.Next()
	}
}

func (m *Middleware) authenticate(c *gin.Context, token string) bool {
	subject, err := m.verifier.Verify(token)
	if err != nil {
		apperr.Respond(c, apperr.ErrUnauthorized)
		return false
	}

	p, err := m.loader.LoadPrincipal(c.Request.Context(), subject)
	if err != nil {
		if errors.Is(err, ErrUnknownPrincipal) {
			apperr.Respond(c, apperr.ErrUnauthorized)
			return false
		}
		apperr.Respond(c, err)
		return false
	}

	SetPrincipal(c, p)
	return true
}

// SetPrincipal stores p on the request context.
func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal stored by the middleware.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
