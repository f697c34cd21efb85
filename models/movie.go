package models

import "time"

// Media types stored in Movie.Type.
const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// Region buckets stored in Movie.SubType, classified from studio names.
const (
	SubTypeChinese = "chinese"
	SubTypeAsian   = "asian"
	SubTypeWestern = "western"
	SubTypeOther   = "other"
)

// Watch statuses for personal media tracking.
const (
	WatchStatusWantToWatch = "want_to_watch"
	WatchStatusWatching    = "watching"
	WatchStatusWatched     = "watched"
)

// Movie is a tracked movie or TV show enriched with TMDB metadata. One row
// per TMDB id among non-deleted rows.
type Movie struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	TmdbID        int        `gorm:"index;not null" json:"tmdb_id"`
	Title         string     `gorm:"size:200;not null" json:"title"`
	OriginalTitle string     `gorm:"size:200" json:"original_title"`
	PosterPath    string     `gorm:"size:500" json:"poster_path"`
	BackdropPath  string     `gorm:"size:500" json:"backdrop_path"`
	Overview      string     `gorm:"type:text" json:"overview"`
	ReleaseDate   *time.Time `gorm:"type:date" json:"release_date"`
	Type          string     `gorm:"size:50" json:"type"`
	SubType       string     `gorm:"size:50" json:"sub_type"`
	Genres        string     `gorm:"size:200" json:"genres"` // comma joined genre names
	WatchStatus   string     `gorm:"size:20" json:"watch_status"`
	Rating        float64    `gorm:"default:0" json:"rating"` // five-star scale
	Comment       string     `gorm:"size:140" json:"comment"` // personal note
	WatchDate     *time.Time `json:"watch_date"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	IsDeleted     bool       `gorm:"default:false;index" json:"-"`
	DeletedAt     *time.Time `json:"-"`
}
