package main

import (
	"log"
	"time"

	"github.com/xiaozhang/xiaoblog/config"
	"github.com/xiaozhang/xiaoblog/models"
	"github.com/xiaozhang/xiaoblog/routes"
	"github.com/xiaozhang/xiaoblog/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer utils.Logger.Sync()

	db := config.InitDatabase(
		&models.User{},
		&models.Category{},
		&models.Article{},
		&models.Comment{},
		&models.Movie{},
		&models.UploadedFile{},
	)

	maxAge := time.Duration(cfg.UploadMaxAgeDays) * 24 * time.Hour
	utils.StartUploadCleaner(db, time.Hour, maxAge)

	r := routes.SetupRouter(db)
	utils.Sugar.Infof("listening on :%s", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server exited: %v", err)
	}
}
