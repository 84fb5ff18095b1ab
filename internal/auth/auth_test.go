package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockPrincipalLoader struct {
	mock.Mock
}

func (m *MockPrincipalLoader) LoadPrincipal(ctx context.Context, uid string) (Principal, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).(Principal), args.Error(1)
}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	// Arrange
	issuer := NewTokenIssuer("test-secret", 48*time.Hour)

	// Act
	token, err := issuer.Issue("user-123")
	require.NoError(t, err)
	subject, err := issuer.Verify(token)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, "user-123", subject)
}

func TestTokenIssuer_RejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 48*time.Hour)
	issued := time.Now().Add(-72 * time.Hour)
	issuer.now = func() time.Time { return issued }
	token, err := issuer.Issue("user-123")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsForeignSignature(t *testing.T) {
	token, err := NewTokenIssuer("other-secret", time.Hour).Issue("user-123")
	require.NoError(t, err)

	_, err = NewTokenIssuer("test-secret", time.Hour).Verify(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("pw", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "pw", hash)
	assert.True(t, CheckPassword(hash, "pw"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestPrincipal_CanAccess(t *testing.T) {
	assert.True(t, Principal{UserID: "u1"}.CanAccess("u1"))
	assert.False(t, Principal{UserID: "u1"}.CanAccess("u2"))
	assert.True(t, Principal{UserID: "u1", IsAdmin: true}.CanAccess("u2"))
}

func newTestRouter(mw *Middleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ok := func(c *gin.Context) {
		p, _ := PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"uid": p.UserID})
	}
	r.GET("/me", mw.RequireAuth(), ok)
	r.GET("/admin", mw.RequireAuth(), RequireAdmin(), ok)
	r.GET("/public", mw.OptionalAuth(), ok)
	return r
}

func TestMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	userToken, err := issuer.Issue("user-1")
	require.NoError(t, err)
	adminToken, err := issuer.Issue("admin-1")
	require.NoError(t, err)
	goneToken, err := issuer.Issue("gone-1")
	require.NoError(t, err)

	loader := new(MockPrincipalLoader)
	loader.On("LoadPrincipal", mock.Anything, "user-1").Return(Principal{UserID: "user-1"}, nil)
	loader.On("LoadPrincipal", mock.Anything, "admin-1").Return(Principal{UserID: "admin-1", IsAdmin: true}, nil)
	loader.On("LoadPrincipal", mock.Anything, "gone-1").Return(Principal{}, ErrUnknownPrincipal)

	r := newTestRouter(NewMiddleware(issuer, loader))

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no token", "/me", "", http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic " + userToken, http.StatusUnauthorized},
		{"valid token", "/me", "Bearer " + userToken, http.StatusOK},
		{"deleted user", "/me", "Bearer " + goneToken, http.StatusUnauthorized},
		{"admin route as user", "/admin", "Bearer " + userToken, http.StatusForbidden},
		{"admin route as admin", "/admin", "Bearer " + adminToken, http.StatusOK},
		{"optional without token", "/public", "", http.StatusOK},
		{"optional with bad token", "/public", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}
