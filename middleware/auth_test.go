package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/models"
	"storefront/utils"
)

const secret = "test-secret"

func tokenFor(t *testing.T, u models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(u, secret, time.Hour)
	require.NoError(t, err)
	return token
}

func serve(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(secret), func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.String(http.StatusOK, user.Username)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/me", "garbage").Code)

	w := serve(r, "/me", tokenFor(t, models.User{ID: 7, Username: "alice"}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStaffAndPermissionGuards(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/staff", AuthMiddleware(secret), StaffMiddleware(), ok)
	r.GET("/perm", AuthMiddleware(secret), RequirePermission(models.PermViewOrder), ok)
	r.GET("/anon-perm", RequirePermission(models.PermViewOrder), ok)

	plain := tokenFor(t, models.User{ID: 1, Username: "plain"})
	staff := tokenFor(t, models.User{ID: 2, Username: "staff", IsStaff: true})
	viewer := tokenFor(t, models.User{ID: 3, Username: "viewer", Permissions: []string{models.PermViewOrder}})
	root := tokenFor(t, models.User{ID: 4, Username: "root", IsSuperuser: true})

	assert.Equal(t, http.StatusForbidden, serve(r, "/staff", plain).Code)
	assert.Equal(t, http.StatusOK, serve(r, "/staff", staff).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, "/perm", plain).Code)
	assert.Equal(t, http.StatusOK, serve(r, "/perm", viewer).Code)
	assert.Equal(t, http.StatusOK, serve(r, "/perm", root).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/anon-perm", "").Code)
}

func TestOptionalAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/hello", OptionalAuth(secret), func(c *gin.Context) {
		if user, ok := CurrentUser(c); ok {
			c.String(http.StatusOK, user.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	assert.Equal(t, "anonymous", serve(r, "/hello", "").Body.String())
	assert.Equal(t, "anonymous", serve(r, "/hello", "expired-or-bad").Body.String())
	assert.Equal(t, "bob", serve(r, "/hello", tokenFor(t, models.User{ID: 5, Username: "bob"})).Body.String())
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, "/ping", "")
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
