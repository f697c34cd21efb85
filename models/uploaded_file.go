package models

import "time"

// UploadedFile records locally stored uploads so orphaned files can be
// cleaned up by the background cleaner.
type UploadedFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FilePath  string    `gorm:"size:1024;not null" json:"file_path"` // filesystem path
	URL       string    `gorm:"size:1024;not null" json:"url"`       // public URL like /uploads/...
	CreatedAt time.Time `json:"created_at"`
}
