package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/xiaozhang/xiaoblog/store"
	"github.com/xiaozhang/xiaoblog/utils"
)

// CommentController serves the threaded comment endpoints.
type CommentController struct {
	comments *store.CommentStore
}

func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{comments: store.NewCommentStore(db)}
}

// ListByArticle returns the live top-level comments of an article with
// their reply trees attached.
func (c *CommentController) ListByArticle(ctx *gin.Context) {
	articleID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"), 20)
	comments, total, err := c.comments.ListByArticle(articleID, page, pageSize)
	if err != nil {
		storeError(ctx, err, 50060)
		return
	}
	utils.Success(ctx, gin.H{
		"items":      comments,
		"pagination": paginationPayload(page, pageSize, total),
	})
}

// Create posts a comment, optionally as a reply to another comment on the
// same article.
func (c *CommentController) Create(ctx *gin.Context) {
	var req struct {
		Content   string `json:"content" binding:"required,max=1000"`
		ArticleID uint   `json:"article_id" binding:"required"`
		ParentID  *uint  `json:"parent_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40160, "unauthorized")
		return
	}
	comment, err := c.comments.Create(req.ArticleID, userID, req.ParentID, utils.Sanitize(req.Content))
	if err != nil {
		storeError(ctx, err, 50061)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "ok", gin.H{"comment": comment})
}

// Delete soft-deletes a comment and its whole reply subtree. Only the
// author or an admin may delete.
func (c *CommentController) Delete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	userID, _ := getUserID(ctx)
	if err := c.comments.Delete(id, userID, isAdmin(ctx)); err != nil {
		storeError(ctx, err, 50062)
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}
