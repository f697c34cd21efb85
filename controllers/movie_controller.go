package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/xiaozhang/xiaoblog/models"
	"github.com/xiaozhang/xiaoblog/store"
	"github.com/xiaozhang/xiaoblog/tmdb"
	"github.com/xiaozhang/xiaoblog/utils"
)

// MovieController serves the watched-media endpoints and the TMDB search
// proxy.
type MovieController struct {
	movies *store.MovieStore
	tmdb   *tmdb.Client
}

func NewMovieController(db *gorm.DB, tc *tmdb.Client) *MovieController {
	return &MovieController{movies: store.NewMovieStore(db), tmdb: tc}
}

// List returns a page of tracked media, optionally filtered by type and
// reordered by watch date, rating or release date.
func (m *MovieController) List(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"), 20)
	movies, total, err := m.movies.List(page, pageSize, ctx.Query("type"), ctx.Query("sort_by"))
	if err != nil {
		storeError(ctx, err, 50070)
		return
	}
	utils.Success(ctx, gin.H{
		"items":      movies,
		"pagination": paginationPayload(page, pageSize, total),
	})
}

// Search matches tracked media by title or overview.
func (m *MovieController) Search(ctx *gin.Context) {
	term := ctx.Query("q")
	if term == "" {
		utils.Error(ctx, http.StatusBadRequest, 40070, "missing query parameter q")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"), 20)
	movies, total, err := m.movies.Search(term, page, pageSize)
	if err != nil {
		storeError(ctx, err, 50071)
		return
	}
	utils.Success(ctx, gin.H{
		"items":      movies,
		"pagination": paginationPayload(page, pageSize, total),
	})
}

// Get returns one tracked record.
func (m *MovieController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	movie, err := m.movies.Get(id)
	if err != nil {
		storeError(ctx, err, 40470)
		return
	}
	utils.Success(ctx, gin.H{"movie": movie})
}

// SearchTMDB proxies a title search to TMDB. Upstream failures degrade to
// an empty result set instead of an error.
func (m *MovieController) SearchTMDB(ctx *gin.Context) {
	term := ctx.Query("q")
	if term == "" {
		utils.Error(ctx, http.StatusBadRequest, 40071, "missing query parameter q")
		return
	}
	mediaType := ctx.Param("mediaType")
	if mediaType != models.MediaTypeMovie && mediaType != models.MediaTypeTV {
		utils.Error(ctx, http.StatusBadRequest, 40074, "media type must be movie or tv")
		return
	}
	page, _ := parsePagination(ctx.Query("page"), "", 20)

	var (
		result *tmdb.SearchPage
		err    error
	)
	if mediaType == models.MediaTypeTV {
		result, err = m.tmdb.SearchTV(ctx.Request.Context(), term, page)
	} else {
		result, err = m.tmdb.SearchMovies(ctx.Request.Context(), term, page)
	}
	if err != nil {
		utils.Sugar.Warnf("tmdb search %q failed: %v", term, err)
		utils.Success(ctx, gin.H{"items": []tmdb.SearchResult{}, "total": 0, "page": page})
		return
	}
	utils.Success(ctx, gin.H{
		"items": result.Results,
		"total": result.TotalResults,
		"page":  result.Page,
	})
}

type moviePayload struct {
	TmdbID        int     `json:"tmdb_id" binding:"required"`
	Title         string  `json:"title" binding:"required,max=200"`
	OriginalTitle string  `json:"original_title"`
	PosterPath    string  `json:"poster_path"`
	BackdropPath  string  `json:"backdrop_path"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date"`
	Type          string  `json:"type" binding:"required,oneof=movie tv"`
	SubType       string  `json:"sub_type"`
	Genres        string  `json:"genres"`
	WatchStatus   string  `json:"watch_status"`
	Rating        float64 `json:"rating"`
	Comment       string  `json:"comment" binding:"max=140"`
	WatchDate     string  `json:"watch_date"`
}

// Create tracks a new movie or show.
func (m *MovieController) Create(ctx *gin.Context) {
	var req moviePayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40072, "invalid request payload")
		return
	}
	movie := &models.Movie{
		TmdbID:        req.TmdbID,
		Title:         req.Title,
		OriginalTitle: req.OriginalTitle,
		PosterPath:    req.PosterPath,
		BackdropPath:  req.BackdropPath,
		Overview:      req.Overview,
		Type:          req.Type,
		SubType:       req.SubType,
		Genres:        req.Genres,
		WatchStatus:   req.WatchStatus,
		Rating:        req.Rating,
		Comment:       req.Comment,
	}
	if movie.SubType == "" {
		movie.SubType = models.SubTypeOther
	}
	if movie.WatchStatus == "" {
		movie.WatchStatus = models.WatchStatusWantToWatch
	}
	if req.ReleaseDate != "" {
		if t, err := time.Parse("2006-01-02", req.ReleaseDate); err == nil {
			movie.ReleaseDate = &t
		}
	}
	if req.WatchDate != "" {
		if t, err := time.Parse("2006-01-02", req.WatchDate); err == nil {
			movie.WatchDate = &t
		}
	}
	if err := m.movies.Create(movie); err != nil {
		storeError(ctx, err, 50072)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "ok", gin.H{"movie": movie})
}

// Update patches a tracked record.
func (m *MovieController) Update(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Title       *string  `json:"title"`
		Overview    *string  `json:"overview"`
		SubType     *string  `json:"sub_type"`
		WatchStatus *string  `json:"watch_status"`
		Rating      *float64 `json:"rating"`
		Comment     *string  `json:"comment"`
		WatchDate   *string  `json:"watch_date"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40073, "invalid request payload")
		return
	}
	patch := store.MovieUpdate{
		Title:       req.Title,
		Overview:    req.Overview,
		SubType:     req.SubType,
		WatchStatus: req.WatchStatus,
		Rating:      req.Rating,
		Comment:     req.Comment,
	}
	if req.WatchDate != nil {
		if t, err := time.Parse("2006-01-02", *req.WatchDate); err == nil {
			patch.WatchDate = &t
		}
	}
	movie, err := m.movies.Update(id, patch)
	if err != nil {
		storeError(ctx, err, 50073)
		return
	}
	utils.Success(ctx, gin.H{"movie": movie})
}

// Delete soft-deletes a tracked record.
func (m *MovieController) Delete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if err := m.movies.SoftDelete(id); err != nil {
		storeError(ctx, err, 50074)
		return
	}
	utils.Success(ctx, gin.H{"message": "record deleted"})
}
