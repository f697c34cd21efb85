package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/xiaozhang/xiaoblog/models"
	"github.com/xiaozhang/xiaoblog/store"
	"github.com/xiaozhang/xiaoblog/utils"
)

const (
	articleCachePrefix = "xiaoblog:articles:"
	articleCacheTTL    = 2 * time.Minute
)

// ArticleController serves the public article endpoints and the admin CRUD.
type ArticleController struct {
	articles *store.ArticleStore
}

func NewArticleController(db *gorm.DB) *ArticleController {
	return &ArticleController{articles: store.NewArticleStore(db)}
}

type cachedArticlePage struct {
	Items      []models.Article `json:"items"`
	Pagination gin.H            `json:"pagination"`
}

// List returns a page of live articles. Hidden articles are included only
// for admins asking for them. Anonymous listings are served from cache.
func (a *ArticleController) List(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"), 10)

	filter := store.ArticleFilter{Search: ctx.Query("search")}
	if v := ctx.Query("category_id"); v != "" {
		if id, ok := parseUint(v); ok {
			filter.CategoryID = &id
		}
	}
	if isAdmin(ctx) && ctx.Query("include_hidden") == "true" {
		filter.IncludeHidden = true
	}

	cacheKey := ""
	if !filter.IncludeHidden {
		cacheKey = fmt.Sprintf("%sp%d:s%d:c%v:q%s", articleCachePrefix, page, pageSize, filter.CategoryID, filter.Search)
		if raw, ok := utils.CacheGetBytes(cacheKey); ok {
			var cached cachedArticlePage
			if json.Unmarshal(raw, &cached) == nil {
				utils.Success(ctx, gin.H{"items": cached.Items, "pagination": cached.Pagination})
				return
			}
		}
	}

	articles, total, err := a.articles.List(page, pageSize, filter)
	if err != nil {
		storeError(ctx, err, 50040)
		return
	}
	pagination := paginationPayload(page, pageSize, total)
	if cacheKey != "" {
		utils.CacheSetJSON(cacheKey, cachedArticlePage{Items: articles, Pagination: pagination}, articleCacheTTL)
	}
	utils.Success(ctx, gin.H{"items": articles, "pagination": pagination})
}

// Get returns one article and counts the view.
func (a *ArticleController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	article, err := a.articles.Get(id)
	if err != nil {
		storeError(ctx, err, 40440)
		return
	}
	if article.IsHidden && !isAdmin(ctx) {
		storeError(ctx, store.ErrNotFound, 40440)
		return
	}
	if err := a.articles.IncrementViews(id); err == nil {
		article.ViewsCount++
	}
	utils.Success(ctx, gin.H{"article": article})
}

// Create publishes a new article.
func (a *ArticleController) Create(ctx *gin.Context) {
	var req struct {
		Title      string `json:"title" binding:"required,max=200"`
		Content    string `json:"content" binding:"required"`
		CoverImage string `json:"cover_image"`
		CategoryID *uint  `json:"category_id"`
		IsHidden   bool   `json:"is_hidden"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}
	authorID, _ := getUserID(ctx)
	article := &models.Article{
		Title:      req.Title,
		Content:    utils.Sanitize(req.Content),
		CoverImage: req.CoverImage,
		AuthorID:   authorID,
		CategoryID: req.CategoryID,
		IsHidden:   req.IsHidden,
	}
	if err := a.articles.Create(article); err != nil {
		storeError(ctx, err, 50041)
		return
	}
	utils.InvalidateByPrefix(articleCachePrefix)
	utils.Respond(ctx, http.StatusCreated, 0, "ok", gin.H{"article": article})
}

// Update patches an article.
func (a *ArticleController) Update(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Title      *string `json:"title"`
		Content    *string `json:"content"`
		CoverImage *string `json:"cover_image"`
		CategoryID *uint   `json:"category_id"`
		IsHidden   *bool   `json:"is_hidden"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid request payload")
		return
	}
	if req.Content != nil {
		clean := utils.Sanitize(*req.Content)
		req.Content = &clean
	}
	article, err := a.articles.Update(id, store.ArticleUpdate{
		Title:      req.Title,
		Content:    req.Content,
		CoverImage: req.CoverImage,
		CategoryID: req.CategoryID,
		IsHidden:   req.IsHidden,
	})
	if err != nil {
		storeError(ctx, err, 50042)
		return
	}
	utils.InvalidateByPrefix(articleCachePrefix)
	utils.Success(ctx, gin.H{"article": article})
}

// Delete soft-deletes an article.
func (a *ArticleController) Delete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if err := a.articles.SoftDelete(id); err != nil {
		storeError(ctx, err, 50043)
		return
	}
	utils.InvalidateByPrefix(articleCachePrefix)
	utils.Success(ctx, gin.H{"message": "article deleted"})
}
