package controllers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xiaozhang/xiaoblog/config"
	"github.com/xiaozhang/xiaoblog/models"
	"github.com/xiaozhang/xiaoblog/utils"
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UploadController stores admin image uploads on local disk and records
// them for the periodic cleaner.
type UploadController struct {
	db *gorm.DB
}

func NewUploadController(db *gorm.DB) *UploadController {
	return &UploadController{db: db}
}

// UploadImage accepts a multipart image, renames it to a random name and
// returns its public URL.
func (u *UploadController) UploadImage(ctx *gin.Context) {
	cfg := config.Get()

	file, err := ctx.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40080, "missing file field")
		return
	}

	maxBytes := int64(cfg.MaxUploadSizeMB) * 1024 * 1024
	if file.Size > maxBytes {
		utils.Error(ctx, http.StatusBadRequest, 40081,
			fmt.Sprintf("file exceeds the %dMB limit", cfg.MaxUploadSizeMB))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		utils.Error(ctx, http.StatusBadRequest, 40082, "unsupported image type")
		return
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50080, "failed to prepare upload directory")
		return
	}

	name := uuid.NewString() + ext
	dest := filepath.Join(cfg.UploadDir, name)
	if err := ctx.SaveUploadedFile(file, dest); err != nil {
		utils.Sugar.Errorf("save upload %s failed: %v", dest, err)
		utils.Error(ctx, http.StatusInternalServerError, 50081, "failed to store file")
		return
	}

	url := "/uploads/" + name
	record := models.UploadedFile{FilePath: dest, URL: url}
	if err := u.db.Create(&record).Error; err != nil {
		utils.Sugar.Warnf("record upload %s failed: %v", dest, err)
	}

	utils.Respond(ctx, http.StatusCreated, 0, "ok", gin.H{"url": url})
}
