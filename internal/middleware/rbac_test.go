package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/fitdesk/gym-api/internal/models"
)

func rbacRouter(claims *models.JWTClaims, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/members/:id", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}, RBAC(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doRBAC(r *gin.Engine, path string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRBACAllowsListedRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "usr-1", Role: models.RoleAdmin}
	r := rbacRouter(claims, "ADMIN", "RECEPTIONIST")
	assert.Equal(t, http.StatusOK, doRBAC(r, "/members/mem-1"))
}

func TestRBACRejectsUnlistedRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "usr-1", Role: models.RoleStudent}
	r := rbacRouter(claims, "ADMIN", "RECEPTIONIST")
	assert.Equal(t, http.StatusForbidden, doRBAC(r, "/members/mem-1"))
}

func TestRBACRejectsMissingClaims(t *testing.T) {
	r := rbacRouter(nil, "ADMIN")
	assert.Equal(t, http.StatusUnauthorized, doRBAC(r, "/members/mem-1"))
}

func TestRBACSelfMatchesMemberID(t *testing.T) {
	claims := &models.JWTClaims{UserID: "usr-1", MemberID: "mem-1", Role: models.RoleStudent}
	r := rbacRouter(claims, "ADMIN", "SELF")
	assert.Equal(t, http.StatusOK, doRBAC(r, "/members/mem-1"))
	assert.Equal(t, http.StatusForbidden, doRBAC(r, "/members/mem-2"))
}

func TestRBACSelfMatchesUserID(t *testing.T) {
	claims := &models.JWTClaims{UserID: "usr-1", Role: models.RoleStudent}
	r := rbacRouter(claims, "SELF")
	assert.Equal(t, http.StatusOK, doRBAC(r, "/members/usr-1"))
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/users", func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "usr-1", Role: models.RoleReceptionist})
		c.Next()
	}, RequireRoles(models.RoleAdmin, models.RoleReceptionist), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
