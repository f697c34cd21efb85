package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiaozhang/xiaoblog/models"
)

// ArticleStore handles article persistence: filtered listing, the views
// counter and the soft-delete lifecycle.
type ArticleStore struct {
	db *gorm.DB
}

// NewArticleStore creates an ArticleStore bound to db.
func NewArticleStore(db *gorm.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// ArticleFilter narrows List results.
type ArticleFilter struct {
	CategoryID    *uint
	Search        string // LIKE match over title and content
	IncludeHidden bool   // only honored for admin callers by the HTTP layer
}

// ArticleUpdate carries a partial article update; nil fields are untouched.
type ArticleUpdate struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	CoverImage *string `json:"cover_image"`
	CategoryID *uint   `json:"category_id"`
	IsHidden   *bool   `json:"is_hidden"`
}

// Get returns a non-deleted article with its author and category preloaded.
func (s *ArticleStore) Get(id uint) (*models.Article, error) {
	var art models.Article
	err := s.db.Preload("Author").Preload("Category").
		Where("id = ? AND is_deleted = ?", id, false).
		First(&art).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get article: %w", err)
	}
	return &art, nil
}

// List returns non-deleted articles newest first, with the total matching
// count. Hidden articles are excluded unless the filter says otherwise.
func (s *ArticleStore) List(page, pageSize int, filter ArticleFilter) ([]models.Article, int64, error) {
	query := s.db.Model(&models.Article{}).Where("is_deleted = ?", false)
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if !filter.IncludeHidden {
		query = query.Where("is_hidden = ?", false)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("title LIKE ? OR content LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	var articles []models.Article
	err := query.Preload("Author").Preload("Category").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&articles).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	return articles, total, nil
}

// Create inserts an article owned by authorID.
func (s *ArticleStore) Create(art *models.Article) error {
	if err := s.db.Create(art).Error; err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

// Update applies a partial update to a non-deleted article.
func (s *ArticleStore) Update(id uint, patch ArticleUpdate) (*models.Article, error) {
	art, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil && *patch.Title != "" {
		art.Title = *patch.Title
	}
	if patch.Content != nil {
		art.Content = *patch.Content
	}
	if patch.CoverImage != nil {
		art.CoverImage = *patch.CoverImage
	}
	if patch.CategoryID != nil {
		art.CategoryID = patch.CategoryID
	}
	if patch.IsHidden != nil {
		art.IsHidden = *patch.IsHidden
	}
	art.UpdatedAt = time.Now()
	// the loaded row carries preloaded associations; only article columns
	// may be written here
	if err := s.db.Omit(clause.Associations).Save(art).Error; err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}
	return art, nil
}

// SoftDelete marks an article deleted. The row is never removed.
func (s *ArticleStore) SoftDelete(id uint) error {
	art, err := s.Get(id)
	if err != nil {
		return err
	}
	now := time.Now()
	art.IsDeleted = true
	art.DeletedAt = &now
	if err := s.db.Omit(clause.Associations).Save(art).Error; err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return nil
}

// IncrementViews adds exactly one view to a non-deleted article. Repeated
// fetches by the same viewer increment repeatedly; there is no dedup.
func (s *ArticleStore) IncrementViews(id uint) error {
	res := s.db.Model(&models.Article{}).
		Where("id = ? AND is_deleted = ?", id, false).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("increment views: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
