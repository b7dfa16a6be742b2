package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"reverie/internal/models"
	"reverie/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newPermissionRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Role{}))
	require.NoError(t, db.Create(&models.Role{
		Name:        "SUPPORT",
		Permissions: `{"tickets":["read","update"]}`,
	}).Error)
	roleRepo := repository.NewRoleRepository(db)

	r := gin.New()
	asRole := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			if name != "" {
				c.Set("role", name)
			}
			c.Next()
		}
	}
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	r.GET("/allowed", asRole("SUPPORT"), RequirePermission(roleRepo, "tickets", "read"), ok)
	r.GET("/wrong-action", asRole("SUPPORT"), RequirePermission(roleRepo, "tickets", "delete"), ok)
	r.GET("/wrong-resource", asRole("SUPPORT"), RequirePermission(roleRepo, "financial", "read"), ok)
	r.GET("/unknown-role", asRole("GHOST"), RequirePermission(roleRepo, "tickets", "read"), ok)
	r.GET("/no-role", asRole(""), RequirePermission(roleRepo, "tickets", "read"), ok)
	return r
}

func TestRequirePermission(t *testing.T) {
	r := newPermissionRouter(t)
	cases := map[string]int{
		"/allowed":        http.StatusOK,
		"/wrong-action":   http.StatusForbidden,
		"/wrong-resource": http.StatusForbidden,
		"/unknown-role":   http.StatusForbidden,
		"/no-role":        http.StatusUnauthorized,
	}
	for path, want := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, path)
	}
}
