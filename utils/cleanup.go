package utils

import (
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/xiaozhang/xiaoblog/models"
)

// StartUploadCleaner launches a background goroutine that periodically
// removes uploaded files older than maxAge along with their database
// records. Best-effort; failures are logged and retried next round.
func StartUploadCleaner(db *gorm.DB, interval, maxAge time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	go func() {
		for {
			time.Sleep(interval)
			cutoff := time.Now().Add(-maxAge)
			var items []models.UploadedFile
			if err := db.Where("created_at <= ?", cutoff).Limit(100).Find(&items).Error; err != nil {
				Sugar.Warnf("upload cleaner query failed: %v", err)
				continue
			}
			for _, it := range items {
				if it.FilePath != "" {
					_ = os.Remove(it.FilePath)
				}
				if err := db.Delete(&models.UploadedFile{}, it.ID).Error; err != nil {
					Sugar.Warnf("upload cleaner delete row failed: %v", err)
				}
			}
		}
	}()
}
