// Command sync runs the Jellyfin/TMDB library sync jobs from cron or by
// hand.
//
//	sync -job movies   pull watched movies from Jellyfin
//	sync -job tv       pull watched series from Jellyfin
//	sync -job ratings  backfill TMDB ratings for unrated records
//	sync -job all      run the three jobs in order
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/xiaozhang/xiaoblog/config"
	"github.com/xiaozhang/xiaoblog/jellyfin"
	"github.com/xiaozhang/xiaoblog/mediasync"
	"github.com/xiaozhang/xiaoblog/models"
	"github.com/xiaozhang/xiaoblog/tmdb"
	"github.com/xiaozhang/xiaoblog/utils"
)

func main() {
	job := flag.String("job", "all", "sync job to run: movies, tv, ratings or all")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall job timeout")
	flag.Parse()

	cfg := config.Load()
	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer utils.Logger.Sync()

	db := config.InitDatabase(&models.Movie{})

	syncer := mediasync.NewSyncer(db, jellyfin.NewClient(cfg), tmdb.NewClient(cfg), utils.Sugar)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	run := func(name string, fn func(context.Context) error) {
		start := time.Now()
		if err := fn(ctx); err != nil {
			utils.Sugar.Errorf("%s sync failed: %v", name, err)
			return
		}
		utils.Sugar.Infof("%s sync finished in %s", name, time.Since(start).Round(time.Second))
	}

	switch *job {
	case "movies":
		run("movie", syncer.SyncMovies)
	case "tv":
		run("tv", syncer.SyncTV)
	case "ratings":
		run("rating", syncer.SyncRatings)
	case "all":
		run("movie", syncer.SyncMovies)
		run("tv", syncer.SyncTV)
		run("rating", syncer.SyncRatings)
	default:
		log.Fatalf("unknown job %q", *job)
	}
}
