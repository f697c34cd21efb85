package models

import "time"

// Comment is a reply on an article. ParentID forms a self-referential tree of
// unbounded depth; deleting a comment soft deletes its whole subtree.
type Comment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	ArticleID uint       `gorm:"index;not null" json:"article_id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	ParentID  *uint      `gorm:"index" json:"parent_id"`
	CreatedAt time.Time  `json:"created_at"`
	IsDeleted bool       `gorm:"default:false;index" json:"-"`
	DeletedAt *time.Time `json:"-"`
	User      User       `gorm:"foreignKey:UserID" json:"user"`
	Replies   []Comment  `gorm:"-" json:"replies,omitempty"`
}
