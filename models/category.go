package models

import "time"

// Category groups articles. Categories are soft deleted and a category with
// live articles cannot be deleted.
type Category struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// unique among non-deleted rows, enforced by the store so a soft
	// deleted category frees its name
	Name        string     `gorm:"size:50;index;not null" json:"name"`
	Description string     `gorm:"size:200" json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	IsDeleted   bool       `gorm:"default:false;index" json:"-"`
	DeletedAt   *time.Time `json:"-"`
	Articles    []Article  `gorm:"foreignKey:CategoryID" json:"-"`
}
