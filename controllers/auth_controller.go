package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
	"gorm.io/gorm"

	"github.com/xiaozhang/xiaoblog/config"
	"github.com/xiaozhang/xiaoblog/middleware"
	"github.com/xiaozhang/xiaoblog/store"
	"github.com/xiaozhang/xiaoblog/utils"
)

const tokenDuration = 24 * time.Hour

// AuthController handles login, logout, email verification and the GitHub
// OAuth path.
type AuthController struct {
	db    *gorm.DB
	users *store.UserStore

	// resolveProfile exchanges the callback code and loads the GitHub
	// profile; sendMail delivers verification codes. Both are swapped out
	// in tests.
	resolveProfile func(ctx context.Context, conf *oauth2.Config, code string) (*githubProfile, error)
	sendMail       func(to, subject, body string) error
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{
		db:             db,
		users:          store.NewUserStore(db),
		resolveProfile: resolveGitHubProfile,
		sendMail:       utils.SendMail,
	}
}

// Login verifies username/password and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	user, err := a.users.Authenticate(req.Username, req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "incorrect username or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.IsAdmin, tokenDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to issue token")
		return
	}

	utils.Success(ctx, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

// Me returns the authenticated account.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}
	user, err := a.users.Get(userID)
	if err != nil {
		storeError(ctx, err, 40412)
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// Logout blacklists the live token until its natural expiry.
func (a *AuthController) Logout(ctx *gin.Context) {
	tokenVal, _ := ctx.Get(middleware.ContextTokenKey)
	token, _ := tokenVal.(string)
	if token != "" {
		if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
			utils.BlacklistToken(token, claims.ExpiresAt.Time)
		}
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// SendEmailCode mails a 6-digit verification code with a 10 minute TTL.
// Sends to the same address are subject to a cooldown.
func (a *AuthController) SendEmailCode(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid email")
		return
	}

	if !utils.EmailCooldownTrySet(req.Email, time.Minute) {
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "code already sent, try again later")
		return
	}

	code := utils.GenerateVerificationCode(6)
	utils.SaveCode(req.Email, code, 10*time.Minute)

	body := fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code)
	if err := a.sendMail(req.Email, "xiaoblog email verification", body); err != nil {
		// a failed delivery must not lock the address out for the
		// whole cooldown window
		utils.ClearEmailCooldown(req.Email)
		utils.Sugar.Warnf("send verification mail to %s failed: %v", req.Email, err)
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to send verification email")
		return
	}
	utils.Success(ctx, gin.H{"message": "verification code sent"})
}

// VerifyEmail consumes a previously sent code.
func (a *AuthController) VerifyEmail(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40012, "invalid request payload")
		return
	}
	if !utils.VerifyAndConsumeCode(req.Email, req.Code) {
		utils.Error(ctx, http.StatusBadRequest, 40013, "verification code invalid or expired")
		return
	}
	utils.Success(ctx, gin.H{"message": "email verified"})
}

func (a *AuthController) githubOAuthConfig() *oauth2.Config {
	cfg := config.Get()
	return &oauth2.Config{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		Endpoint:     githuboauth.Endpoint,
		RedirectURL:  cfg.OAuthRedirectBase + "/api/v1/auth/oauth/github/callback",
		Scopes:       []string{"read:user", "user:email"},
	}
}

// OAuthRedirect starts the GitHub login flow with a single-use state token.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	conf := a.githubOAuthConfig()
	if conf.ClientID == "" {
		utils.Error(ctx, http.StatusNotFound, 40420, "github login not configured")
		return
	}
	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)
	ctx.Redirect(http.StatusFound, conf.AuthCodeURL(state))
}

// OAuthCallback finishes the GitHub login flow: validates state, exchanges
// the code, resolves or creates the matching local account and issues a JWT.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	state := ctx.Query("state")
	if state == "" || !utils.ConsumeState(state) {
		utils.Error(ctx, http.StatusBadRequest, 40014, "invalid oauth state")
		return
	}

	conf := a.githubOAuthConfig()
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 10*time.Second)
	defer cancel()

	ghUser, err := a.resolveProfile(reqCtx, conf, ctx.Query("code"))
	if err != nil {
		utils.Sugar.Warnf("github profile resolution failed: %v", err)
		utils.Error(ctx, http.StatusBadGateway, 50210, "failed to load github profile")
		return
	}

	// External identities are keyed by (provider, provider_id) only. The
	// GitHub login name never selects an existing password account.
	user, err := a.users.FindOrCreateOAuthUser(
		"github", strconv.FormatInt(ghUser.ID, 10),
		ghUser.Login, ghUser.Email, ghUser.AvatarURL)
	if err != nil {
		storeError(ctx, err, 50212)
		return
	}

	jwtToken, err := utils.GenerateToken(user.ID, user.Username, user.IsAdmin, tokenDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50213, "failed to issue token")
		return
	}
	ctx.Redirect(http.StatusFound, config.Get().OAuthRedirectBase+"/#/oauth?token="+jwtToken)
}

type githubProfile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

func resolveGitHubProfile(ctx context.Context, conf *oauth2.Config, code string) (*githubProfile, error) {
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange oauth code: %w", err)
	}
	return fetchGitHubUser(ctx, conf, token)
}

func fetchGitHubUser(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*githubProfile, error) {
	client := conf.Client(ctx, token)
	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github api status %d", resp.StatusCode)
	}
	var profile githubProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	if profile.Email == "" {
		profile.Email = profile.Login + "@users.noreply.github.com"
	}
	return &profile, nil
}
