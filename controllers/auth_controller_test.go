package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiaozhang/xiaoblog/models"
	"github.com/xiaozhang/xiaoblog/utils"
)

func newAuthTestController(t *testing.T) (*AuthController, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return NewAuthController(db), db
}

func TestOAuthCallbackNeverMatchesPasswordAccount(t *testing.T) {
	a, db := newAuthTestController(t)

	admin, err := a.users.Create("zhang", "zhang@example.com", "secret123", true)
	require.NoError(t, err)

	a.resolveProfile = func(ctx context.Context, conf *oauth2.Config, code string) (*githubProfile, error) {
		return &githubProfile{
			ID:        9001,
			Login:     "zhang",
			Email:     "gh@example.com",
			AvatarURL: "https://avatars/zhang.png",
		}, nil
	}

	r := gin.New()
	r.GET("/callback", a.OAuthCallback)

	callback := func(state string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/callback?state="+state+"&code=x", nil)
		r.ServeHTTP(w, req)
		return w
	}

	// a missing or unknown state is rejected before any lookup
	assert.Equal(t, http.StatusBadRequest, callback("unknown").Code)

	utils.SaveState("state-one", time.Minute)
	w := callback("state-one")
	require.Equal(t, http.StatusFound, w.Code)

	loc := w.Header().Get("Location")
	idx := strings.Index(loc, "token=")
	require.GreaterOrEqual(t, idx, 0, "redirect carries a token")
	claims, err := utils.ParseToken(loc[idx+len("token="):])
	require.NoError(t, err)

	// the github login shares the admin's username but must get its own
	// unprivileged account
	assert.NotEqual(t, admin.ID, claims.UserID)
	assert.False(t, claims.IsAdmin)

	var linked models.User
	require.NoError(t, db.Where("provider = ? AND provider_id = ?", "github", "9001").
		First(&linked).Error)
	assert.Equal(t, claims.UserID, linked.ID)
	assert.Equal(t, "zhang_1", linked.Username)

	// a second login resolves to the same linked account
	utils.SaveState("state-two", time.Minute)
	w = callback("state-two")
	require.Equal(t, http.StatusFound, w.Code)

	var total int64
	require.NoError(t, db.Model(&models.User{}).Count(&total).Error)
	assert.EqualValues(t, 2, total)
}

func TestSendEmailCodeCooldownReleasedOnSendFailure(t *testing.T) {
	a, _ := newAuthTestController(t)

	r := gin.New()
	r.POST("/send", a.SendEmailCode)

	send := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/send",
			strings.NewReader(`{"email":"cooldown@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	a.sendMail = func(to, subject, body string) error {
		return fmt.Errorf("smtp connection refused")
	}
	assert.Equal(t, http.StatusInternalServerError, send().Code)

	// the failed delivery must not start the cooldown
	a.sendMail = func(to, subject, body string) error { return nil }
	assert.Equal(t, http.StatusOK, send().Code)

	// a successful delivery does
	assert.Equal(t, http.StatusTooManyRequests, send().Code)
}
