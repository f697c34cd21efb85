package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/xiaozhang/xiaoblog/models"
)

// CategoryStore handles category persistence. Reads exclude soft-deleted
// rows; deletion enforces the no-live-articles guard.
type CategoryStore struct {
	db *gorm.DB
}

// NewCategoryStore creates a CategoryStore bound to db.
func NewCategoryStore(db *gorm.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// Get returns a non-deleted category by id.
func (s *CategoryStore) Get(id uint) (*models.Category, error) {
	var cat models.Category
	err := s.db.Where("id = ? AND is_deleted = ?", id, false).First(&cat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &cat, nil
}

// List returns non-deleted categories, newest first.
func (s *CategoryStore) List(page, pageSize int) ([]models.Category, error) {
	var cats []models.Category
	err := s.db.Where("is_deleted = ?", false).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&cats).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Create inserts a category. A duplicate name yields ErrConflict.
func (s *CategoryStore) Create(name, description string) (*models.Category, error) {
	var existing int64
	s.db.Model(&models.Category{}).
		Where("name = ? AND is_deleted = ?", name, false).
		Count(&existing)
	if existing > 0 {
		return nil, ErrConflict
	}
	cat := models.Category{Name: name, Description: description}
	if err := s.db.Create(&cat).Error; err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &cat, nil
}

// Update applies name/description changes to a non-deleted category.
func (s *CategoryStore) Update(id uint, name, description *string) (*models.Category, error) {
	cat, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if name != nil && *name != "" {
		cat.Name = *name
	}
	if description != nil {
		cat.Description = *description
	}
	if err := s.db.Save(cat).Error; err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return cat, nil
}

// SoftDelete marks a category deleted. When any non-deleted article still
// references it the deletion fails with ErrConflict and nothing changes.
func (s *CategoryStore) SoftDelete(id uint) error {
	cat, err := s.Get(id)
	if err != nil {
		return err
	}

	var live int64
	err = s.db.Model(&models.Article{}).
		Where("category_id = ? AND is_deleted = ?", cat.ID, false).
		Count(&live).Error
	if err != nil {
		return fmt.Errorf("count category articles: %w", err)
	}
	if live > 0 {
		return fmt.Errorf("%w: category has dependent content", ErrConflict)
	}

	now := time.Now()
	cat.IsDeleted = true
	cat.DeletedAt = &now
	if err := s.db.Save(cat).Error; err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
