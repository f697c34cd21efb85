package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiaozhang/xiaoblog/models"
	"github.com/xiaozhang/xiaoblog/utils"
)

func newAuthTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	r := gin.New()
	r.GET("/authed", AuthRequired(), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/admin", AuthRequired(), AdminRequired(db), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r, db
}

func doGet(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredRejectsBadTokens(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/authed", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/authed", "garbage").Code)

	token, err := utils.GenerateToken(1, "alice", false, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, doGet(r, "/authed", token).Code)
}

func TestAdminRequiredChecksDatabaseFlag(t *testing.T) {
	r, db := newAuthTestRouter(t)

	user := models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	admin := models.User{Username: "root", Email: "root@example.com", PasswordHash: "x", IsAdmin: true}
	require.NoError(t, db.Create(&admin).Error)

	userToken, err := utils.GenerateToken(user.ID, user.Username, false, time.Hour)
	require.NoError(t, err)
	adminToken, err := utils.GenerateToken(admin.ID, admin.Username, true, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, doGet(r, "/admin", userToken).Code)
	assert.Equal(t, http.StatusOK, doGet(r, "/admin", adminToken).Code)

	// stale claims: the flag comes from the row, not the token
	staleClaims, err := utils.GenerateToken(user.ID, user.Username, true, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, doGet(r, "/admin", staleClaims).Code)
}

func TestLogoutBlacklistRejectsToken(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	token, err := utils.GenerateToken(7, "carol", false, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, doGet(r, "/authed", token).Code)

	utils.BlacklistToken(token, time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/authed", token).Code)
}
