package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiaozhang/xiaoblog/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Article{},
		&models.Comment{},
		&models.Movie{},
		&models.UploadedFile{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, isAdmin bool) *models.User {
	t.Helper()
	user, err := NewUserStore(db).Create(username, username+"@example.com", "secret123", isAdmin)
	require.NoError(t, err)
	return user
}

func seedArticle(t *testing.T, db *gorm.DB, authorID uint, title string) *models.Article {
	t.Helper()
	art := &models.Article{Title: title, Content: "body of " + title, AuthorID: authorID}
	require.NoError(t, NewArticleStore(db).Create(art))
	return art
}
