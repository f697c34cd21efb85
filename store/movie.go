package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/xiaozhang/xiaoblog/models"
)

// MovieStore handles the personal media library: filtered listing, local
// search, the soft-delete lifecycle and the sync jobs' upsert.
type MovieStore struct {
	db *gorm.DB
}

// NewMovieStore creates a MovieStore bound to db.
func NewMovieStore(db *gorm.DB) *MovieStore {
	return &MovieStore{db: db}
}

// MovieUpdate carries a partial movie update; nil fields are untouched.
type MovieUpdate struct {
	Title       *string    `json:"title"`
	Overview    *string    `json:"overview"`
	WatchStatus *string    `json:"watch_status"`
	Rating      *float64   `json:"rating"`
	Comment     *string    `json:"comment"`
	WatchDate   *time.Time `json:"watch_date"`
	SubType     *string    `json:"sub_type"`
}

// Get returns a non-deleted movie by id.
func (s *MovieStore) Get(id uint) (*models.Movie, error) {
	var m models.Movie
	err := s.db.Where("id = ? AND is_deleted = ?", id, false).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return &m, nil
}

// List returns non-deleted movies with an optional media type filter.
// sortBy accepts watch_date_desc, watch_date_asc, rating_desc and
// release_date_desc; anything else falls back to watch date descending.
func (s *MovieStore) List(page, pageSize int, mediaType, sortBy string) ([]models.Movie, int64, error) {
	query := s.db.Model(&models.Movie{}).Where("is_deleted = ?", false)
	if mediaType != "" {
		query = query.Where("type = ?", mediaType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}

	switch sortBy {
	case "watch_date_asc":
		query = query.Order("watch_date ASC")
	case "rating_desc":
		query = query.Order("rating DESC")
	case "release_date_desc":
		query = query.Order("release_date DESC")
	default:
		query = query.Order("watch_date DESC")
	}

	var movies []models.Movie
	err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&movies).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list movies: %w", err)
	}
	return movies, total, nil
}

// Search matches non-deleted movies by title, original title or overview,
// best rated first.
func (s *MovieStore) Search(term string, page, pageSize int) ([]models.Movie, int64, error) {
	like := "%" + term + "%"
	query := s.db.Model(&models.Movie{}).
		Where("is_deleted = ?", false).
		Where("title LIKE ? OR original_title LIKE ? OR overview LIKE ?", like, like, like)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count movie search: %w", err)
	}

	var movies []models.Movie
	err := query.Order("rating DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&movies).Error
	if err != nil {
		return nil, 0, fmt.Errorf("search movies: %w", err)
	}
	return movies, total, nil
}

// Create inserts a movie. A non-deleted row with the same TMDB id yields
// ErrConflict.
func (s *MovieStore) Create(m *models.Movie) error {
	var existing int64
	s.db.Model(&models.Movie{}).
		Where("tmdb_id = ? AND type = ? AND is_deleted = ?", m.TmdbID, m.Type, false).
		Count(&existing)
	if existing > 0 {
		return ErrConflict
	}
	if err := s.db.Create(m).Error; err != nil {
		return fmt.Errorf("create movie: %w", err)
	}
	return nil
}

// Update applies a partial update to a non-deleted movie.
func (s *MovieStore) Update(id uint, patch MovieUpdate) (*models.Movie, error) {
	m, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil && *patch.Title != "" {
		m.Title = *patch.Title
	}
	if patch.Overview != nil {
		m.Overview = *patch.Overview
	}
	if patch.WatchStatus != nil {
		m.WatchStatus = *patch.WatchStatus
	}
	if patch.Rating != nil {
		m.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		m.Comment = *patch.Comment
	}
	if patch.WatchDate != nil {
		m.WatchDate = patch.WatchDate
	}
	if patch.SubType != nil {
		m.SubType = *patch.SubType
	}
	m.UpdatedAt = time.Now()
	if err := s.db.Save(m).Error; err != nil {
		return nil, fmt.Errorf("update movie: %w", err)
	}
	return m, nil
}

// SoftDelete marks a movie deleted.
func (s *MovieStore) SoftDelete(id uint) error {
	m, err := s.Get(id)
	if err != nil {
		return err
	}
	now := time.Now()
	m.IsDeleted = true
	m.DeletedAt = &now
	if err := s.db.Save(m).Error; err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	return nil
}

// Upsert writes a synced record keyed by TMDB id and media type. Soft
// deleted rows are ignored so a deleted entry is not resurrected by sync.
func (s *MovieStore) Upsert(m *models.Movie) error {
	var existing models.Movie
	err := s.db.Where("tmdb_id = ? AND type = ? AND is_deleted = ?", m.TmdbID, m.Type, false).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := s.db.Create(m).Error; err != nil {
				return fmt.Errorf("insert synced movie: %w", err)
			}
			return nil
		}
		return fmt.Errorf("lookup synced movie: %w", err)
	}

	m.ID = existing.ID
	m.CreatedAt = existing.CreatedAt
	// keep a personal note written locally; sync never carries one
	if m.Comment == "" {
		m.Comment = existing.Comment
	}
	m.UpdatedAt = time.Now()
	if err := s.db.Save(m).Error; err != nil {
		return fmt.Errorf("update synced movie: %w", err)
	}
	return nil
}

// ListForRatingSync returns all non-deleted movies for the rating backfill.
func (s *MovieStore) ListForRatingSync() ([]models.Movie, error) {
	var movies []models.Movie
	err := s.db.Where("is_deleted = ?", false).Find(&movies).Error
	if err != nil {
		return nil, fmt.Errorf("list movies for rating sync: %w", err)
	}
	return movies, nil
}

// SetRating stores a rating on a movie without touching other fields.
func (s *MovieStore) SetRating(id uint, rating float64) error {
	err := s.db.Model(&models.Movie{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"rating": rating, "updated_at": time.Now()}).Error
	if err != nil {
		return fmt.Errorf("set movie rating: %w", err)
	}
	return nil
}
