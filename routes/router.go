package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/xiaozhang/xiaoblog/config"
	"github.com/xiaozhang/xiaoblog/controllers"
	"github.com/xiaozhang/xiaoblog/middleware"
	"github.com/xiaozhang/xiaoblog/tmdb"
	"github.com/xiaozhang/xiaoblog/utils"
)

// SetupRouter wires the HTTP surface: public reads, authenticated writes
// and the admin-only management endpoints under /api/v1.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.GinLogger(utils.Logger), utils.GinRecovery(utils.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.Static("/uploads", cfg.UploadDir)

	auth := controllers.NewAuthController(db)
	users := controllers.NewUserController(db)
	articles := controllers.NewArticleController(db)
	categories := controllers.NewCategoryController(db)
	comments := controllers.NewCommentController(db)
	movies := controllers.NewMovieController(db, tmdb.NewClient(cfg))
	uploads := controllers.NewUploadController(db)

	v1 := r.Group("/api/v1")
	{
		authGroup := v1.Group("/auth", middleware.RateLimitMiddleware())
		{
			authGroup.POST("/login", auth.Login)
			authGroup.POST("/send-email-code", auth.SendEmailCode)
			authGroup.POST("/verify-email", auth.VerifyEmail)
			authGroup.GET("/oauth/github/login", auth.OAuthRedirect)
			authGroup.GET("/oauth/github/callback", auth.OAuthCallback)
			authGroup.GET("/me", middleware.AuthRequired(), auth.Me)
			authGroup.POST("/logout", middleware.AuthRequired(), auth.Logout)
		}

		// public reads
		v1.GET("/articles", middleware.OptionalAuth(), articles.List)
		v1.GET("/articles/:id", middleware.OptionalAuth(), articles.Get)
		v1.GET("/comments/article/:id", comments.ListByArticle)
		v1.GET("/categories", categories.List)
		v1.GET("/categories/:id", categories.Get)
		v1.GET("/movies", movies.List)
		v1.GET("/movies/search", movies.Search)
		v1.GET("/movies/:id", movies.Get)

		authed := v1.Group("", middleware.AuthRequired(), middleware.RateLimitMiddleware())
		{
			authed.POST("/comments", comments.Create)
			authed.DELETE("/comments/:id", comments.Delete)
			authed.GET("/movies/tmdb/search/:mediaType", movies.SearchTMDB)
		}

		admin := v1.Group("", middleware.AuthRequired(), middleware.AdminRequired(db))
		{
			admin.GET("/users", users.List)
			admin.POST("/users", users.Create)
			admin.PUT("/users/:id", users.Update)

			admin.POST("/articles", articles.Create)
			admin.PUT("/articles/:id", articles.Update)
			admin.DELETE("/articles/:id", articles.Delete)

			admin.POST("/categories", categories.Create)
			admin.PUT("/categories/:id", categories.Update)
			admin.DELETE("/categories/:id", categories.Delete)

			admin.POST("/movies", movies.Create)
			admin.PUT("/movies/:id", movies.Update)
			admin.DELETE("/movies/:id", movies.Delete)

			admin.POST("/upload", uploads.UploadImage)
		}
	}

	return r
}
