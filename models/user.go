package models

import "time"

// User represents a blog account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:128" json:"-"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	Avatar       string    `gorm:"size:255" json:"avatar"`
	Provider     string    `gorm:"size:32" json:"provider"`
	ProviderID   string    `gorm:"size:64" json:"provider_id"`
	CreatedAt    time.Time `json:"created_at"`
	Articles     []Article `gorm:"foreignKey:AuthorID" json:"-"`
	Comments     []Comment `gorm:"foreignKey:UserID" json:"-"`
}
