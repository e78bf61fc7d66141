package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

var secret = []byte("test-secret")

func init() { gin.SetMode(gin.TestMode) }

func router(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	handler := func(c *gin.Context) {
		role, _ := c.Get(CtxRole)
		c.JSON(http.StatusOK, gin.H{"user": c.GetString(CtxUserID), "role": role, "email": c.GetString(CtxEmail)})
	}
	r.GET("/me", handler)
	r.GET("/healthz", handler)
	r.GET("/admin", RequireRoles(models.RoleAdmin), handler)
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := router(AuthMiddleware(secret, ""))

	tok, err := SignToken(secret, "u1", "sales_executive", "u1@soinech.test", time.Hour)
	require.NoError(t, err)

	w := get(r, "/me", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"u1","role":"sales_executive","email":"u1@soinech.test"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "garbage").Code)
	assert.Equal(t, http.StatusOK, get(r, "/healthz", "").Code)

	other, _ := SignToken([]byte("other"), "u1", "admin", "", time.Hour)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", other).Code)

	expired, _ := SignToken(secret, "u1", "admin", "", -time.Hour)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", expired).Code)

	bogusRole, _ := SignToken(secret, "u1", "superuser", "", time.Hour)
	assert.Equal(t, http.StatusForbidden, get(r, "/me", bogusRole).Code)

	noSub, _ := SignToken(secret, "", "admin", "", time.Hour)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", noSub).Code)
}

func TestAuthMiddleware_RejectsNonHS256(t *testing.T) {
	r := router(AuthMiddleware(secret, ""))
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	s, err := tok.SignedString(secret)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", s).Code)
}

func TestAuthMiddleware_Issuer(t *testing.T) {
	r := router(AuthMiddleware(secret, "https://id.soinech.test"))
	tok, _ := SignToken(secret, "u1", "admin", "", time.Hour)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", tok).Code)
}

func TestRequireRoles(t *testing.T) {
	r := router(AuthMiddleware(secret, ""))
	admin, _ := SignToken(secret, "a", "admin", "", time.Hour)
	rep, _ := SignToken(secret, "s", "sales_executive", "", time.Hour)

	assert.Equal(t, http.StatusOK, get(r, "/admin", admin).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/admin", rep).Code)

	bare := gin.New()
	bare.GET("/admin", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, get(bare, "/admin", "").Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	r := gin.New()
	r.Use(NewRateLimiter(0.001, 1).Middleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusNoContent, get(r, "/x", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/x", "").Code)
}
