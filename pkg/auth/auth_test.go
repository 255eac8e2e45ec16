package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-sync/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(svc *JWTService, roles ...user.Role) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{JWTAuthMiddleware(svc)}
	if len(roles) > 0 {
		handlers = append(handlers, RoleAuthMiddleware(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		role, _ := CurrentRole(c)
		c.String(http.StatusOK, "%s|%s", CurrentUserID(c), role)
	})
	r.GET("/", handlers...)
	return r
}

func call(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingJWTKey)
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc, err := NewJWTService("segredo", time.Hour)
	require.NoError(t, err)
	token, err := svc.GenerateToken("u1", "Maria", user.RoleEditor)
	require.NoError(t, err)

	r := newRouter(svc)

	assert.Equal(t, http.StatusUnauthorized, call(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Token "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer lixo").Code)

	w := call(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1|editor", w.Body.String())
}

func TestJWTAuthMiddleware_RejectsOtherSecret(t *testing.T) {
	issuer, _ := NewJWTService("outro", time.Hour)
	token, err := issuer.GenerateToken("u1", "", user.RoleAdmin)
	require.NoError(t, err)

	svc, _ := NewJWTService("segredo", time.Hour)
	assert.Equal(t, http.StatusUnauthorized, call(newRouter(svc), "Bearer "+token).Code)
}

func TestJWTAuthMiddleware_DisabledActsAsAdmin(t *testing.T) {
	w := call(newRouter(nil, user.RoleAdmin), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "|admin", w.Body.String())
}

func TestRoleAuthMiddleware(t *testing.T) {
	svc, _ := NewJWTService("segredo", time.Hour)
	token, _ := svc.GenerateToken("u2", "", user.RoleViewer)

	r := newRouter(svc, user.RoleAdmin, user.RoleEditor)
	assert.Equal(t, http.StatusForbidden, call(r, "Bearer "+token).Code)
}
