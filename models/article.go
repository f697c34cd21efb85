package models

import "time"

// Article is a blog article authored by a user. CommentsCount is a
// denormalized cache recomputed on every comment mutation, not an
// authoritative count.
type Article struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"size:200;not null" json:"title"`
	Content       string     `gorm:"type:text" json:"content"`
	CoverImage    string     `gorm:"size:500" json:"cover_image"`
	AuthorID      uint       `gorm:"index" json:"author_id"`
	CategoryID    *uint      `gorm:"index" json:"category_id"`
	ViewsCount    int        `gorm:"default:0" json:"views_count"`
	LikesCount    int        `gorm:"default:0" json:"likes_count"`
	CommentsCount int        `gorm:"default:0" json:"comments_count"`
	IsHidden      bool       `gorm:"default:false" json:"is_hidden"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	IsDeleted     bool       `gorm:"default:false;index" json:"-"`
	DeletedAt     *time.Time `json:"-"`
	Author        User       `gorm:"foreignKey:AuthorID" json:"author"`
	Category      *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
