// Package mediasync reconciles the Jellyfin library and TMDB metadata into
// the local movie table. Jobs run to completion unattended: a failure on one
// item is logged and skipped, and only an unreachable library listing aborts
// a run.
package mediasync

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/xiaozhang/xiaoblog/jellyfin"
	"github.com/xiaozhang/xiaoblog/models"
	"github.com/xiaozhang/xiaoblog/store"
	"github.com/xiaozhang/xiaoblog/tmdb"
)

// commitBatchSize bounds write amplification: upserts are committed in
// groups of this many items.
const commitBatchSize = 10

// minVoteCount is the TMDB vote floor below which a community rating is
// considered too noisy to import.
const minVoteCount = 100

// Syncer runs the movie, TV and ratings reconciliation jobs.
type Syncer struct {
	db      *gorm.DB
	movies  *store.MovieStore
	jf      *jellyfin.Client
	tmdb    *tmdb.Client
	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

// NewSyncer wires a Syncer. The limiter holds TMDB traffic to one call per
// second across all jobs.
func NewSyncer(db *gorm.DB, jf *jellyfin.Client, tc *tmdb.Client, log *zap.SugaredLogger) *Syncer {
	return &Syncer{
		db:      db,
		movies:  store.NewMovieStore(db),
		jf:      jf,
		tmdb:    tc,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		log:     log,
	}
}

// SyncMovies reconciles the Jellyfin movie library into local rows.
func (s *Syncer) SyncMovies(ctx context.Context) error {
	return s.syncLibrary(ctx, "Movie", models.MediaTypeMovie)
}

// SyncTV reconciles the Jellyfin series library into local rows.
func (s *Syncer) SyncTV(ctx context.Context) error {
	return s.syncLibrary(ctx, "Series", models.MediaTypeTV)
}

func (s *Syncer) syncLibrary(ctx context.Context, itemType, mediaType string) error {
	items, err := s.jf.LibraryItems(ctx, itemType)
	if err != nil {
		return fmt.Errorf("list jellyfin library: %w", err)
	}
	s.log.Infof("syncing %d %s items", len(items), mediaType)

	var batch []*models.Movie
	processed := 0
	for i := range items {
		record, err := s.processItem(ctx, &items[i], mediaType)
		if err != nil {
			s.log.Warnf("skip %q: %v", items[i].Name, err)
			continue
		}
		if record == nil {
			continue // no TMDB id
		}
		batch = append(batch, record)
		processed++
		if len(batch) >= commitBatchSize {
			if err := s.flush(batch); err != nil {
				s.log.Warnf("flush batch: %v", err)
			}
			batch = batch[:0]
			s.log.Infof("processed %d/%d %s items", processed, len(items), mediaType)
		}
	}
	if len(batch) > 0 {
		if err := s.flush(batch); err != nil {
			s.log.Warnf("flush final batch: %v", err)
		}
	}
	s.log.Infof("%s sync done, %d items written", mediaType, processed)
	return nil
}

// processItem resolves one library item into an upsert-ready record, or
// (nil, nil) when the item has no TMDB provider id.
func (s *Syncer) processItem(ctx context.Context, item *jellyfin.Item, mediaType string) (*models.Movie, error) {
	idStr, ok := item.TmdbID()
	if !ok {
		s.log.Debugf("no TMDB id for %q", item.Name)
		return nil, nil
	}
	tmdbID, err := strconv.Atoi(idStr)
	if err != nil {
		return nil, fmt.Errorf("bad TMDB id %q: %w", idStr, err)
	}

	details, err := s.jf.ItemDetails(ctx, item.ID)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	meta, err := s.tmdb.Details(ctx, mediaType, tmdbID)
	if err != nil {
		return nil, err
	}

	return buildRecord(details, meta, tmdbID, mediaType, s.tmdb), nil
}

func (s *Syncer) flush(batch []*models.Movie) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		txStore := store.NewMovieStore(tx)
		for _, record := range batch {
			if err := txStore.Upsert(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// SyncRatings fills missing personal ratings from TMDB community scores,
// halved to the local five-star scale. Titles already rated locally are
// left alone.
func (s *Syncer) SyncRatings(ctx context.Context) error {
	movies, err := s.movies.ListForRatingSync()
	if err != nil {
		return err
	}
	s.log.Infof("rating sync over %d titles", len(movies))

	updated, skipped := 0, 0
	for i := range movies {
		m := &movies[i]
		if m.Rating > 0 {
			skipped++
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		meta, err := s.tmdb.Details(ctx, m.Type, m.TmdbID)
		if err != nil {
			s.log.Warnf("skip %q: %v", m.Title, err)
			continue
		}
		rating, ok := fiveStarRating(meta.VoteAverage, meta.VoteCount)
		if !ok {
			skipped++
			continue
		}
		if err := s.movies.SetRating(m.ID, rating); err != nil {
			s.log.Warnf("store rating for %q: %v", m.Title, err)
			continue
		}
		updated++
	}
	s.log.Infof("rating sync done: %d updated, %d skipped", updated, skipped)
	return nil
}

// watchStatusFor maps Jellyfin playback state onto the three-value watch
// status: fully played means watched, any progress means watching,
// untouched means want-to-watch.
func watchStatusFor(ud jellyfin.UserData) string {
	switch {
	case ud.Played:
		return models.WatchStatusWatched
	case ud.PlayedPercentage > 0:
		return models.WatchStatusWatching
	default:
		return models.WatchStatusWantToWatch
	}
}

// subTypeFor classifies the region bucket by keyword matching against
// studio names.
func subTypeFor(studios []jellyfin.Studio) string {
	matches := func(keywords ...string) bool {
		for _, st := range studios {
			for _, kw := range keywords {
				if strings.Contains(st.Name, kw) {
					return true
				}
			}
		}
		return false
	}
	switch {
	case matches("中国", "香港", "台湾"):
		return models.SubTypeChinese
	case matches("日本", "韩国"):
		return models.SubTypeAsian
	case matches("美国", "英国", "法国"):
		return models.SubTypeWestern
	default:
		return models.SubTypeOther
	}
}

// fiveStarRating converts a TMDB ten-point community average into the local
// five-star scale, requiring at least minVoteCount votes.
func fiveStarRating(voteAverage float64, voteCount int) (float64, bool) {
	if voteCount < minVoteCount || voteAverage <= 0 {
		return 0, false
	}
	return math.Round(voteAverage/2*10) / 10, true
}

func buildRecord(item *jellyfin.Item, meta *tmdb.Details, tmdbID int, mediaType string, tc *tmdb.Client) *models.Movie {
	genres := make([]string, 0, len(meta.Genres))
	for _, g := range meta.Genres {
		genres = append(genres, g.Name)
	}

	record := &models.Movie{
		TmdbID:        tmdbID,
		Title:         meta.DisplayTitle(),
		OriginalTitle: meta.DisplayOriginalTitle(),
		PosterPath:    tc.ImageURL(meta.PosterPath),
		BackdropPath:  tc.ImageURL(meta.BackdropPath),
		Overview:      meta.Overview,
		Type:          mediaType,
		SubType:       subTypeFor(item.Studios),
		Genres:        strings.Join(genres, ","),
		WatchStatus:   watchStatusFor(item.UserData),
		Rating:        item.UserData.UserRating,
	}

	releaseDate := meta.ReleaseDate
	if mediaType == models.MediaTypeTV {
		releaseDate = meta.FirstAirDate
	}
	if releaseDate != "" {
		if t, err := time.Parse("2006-01-02", releaseDate); err == nil {
			record.ReleaseDate = &t
		}
	}
	if wd := item.UserData.LastPlayedDate; wd != "" {
		// Jellyfin emits fractional-second ISO timestamps
		if t, err := time.Parse("2006-01-02T15:04:05", strings.SplitN(wd, ".", 2)[0]); err == nil {
			record.WatchDate = &t
		}
	}
	return record
}
