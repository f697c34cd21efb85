package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/xiaozhang/xiaoblog/store"
	"github.com/xiaozhang/xiaoblog/utils"
)

// CategoryController serves category listing and the admin CRUD.
type CategoryController struct {
	categories *store.CategoryStore
}

func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{categories: store.NewCategoryStore(db)}
}

// List returns a page of live categories.
func (c *CategoryController) List(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"), 50)
	categories, err := c.categories.List(page, pageSize)
	if err != nil {
		storeError(ctx, err, 50050)
		return
	}
	utils.Success(ctx, gin.H{"items": categories})
}

// Get returns one category.
func (c *CategoryController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	category, err := c.categories.Get(id)
	if err != nil {
		storeError(ctx, err, 40450)
		return
	}
	utils.Success(ctx, gin.H{"category": category})
}

// Create adds a category. Names are unique among live categories.
func (c *CategoryController) Create(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,max=50"`
		Description string `json:"description" binding:"max=200"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}
	category, err := c.categories.Create(req.Name, req.Description)
	if err != nil {
		storeError(ctx, err, 50051)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "ok", gin.H{"category": category})
}

// Update patches a category.
func (c *CategoryController) Update(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40051, "invalid request payload")
		return
	}
	category, err := c.categories.Update(id, req.Name, req.Description)
	if err != nil {
		storeError(ctx, err, 50052)
		return
	}
	utils.Success(ctx, gin.H{"category": category})
}

// Delete soft-deletes a category. Categories still referenced by live
// articles cannot be deleted.
func (c *CategoryController) Delete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.categories.SoftDelete(id); err != nil {
		storeError(ctx, err, 50053)
		return
	}
	utils.Success(ctx, gin.H{"message": "category deleted"})
}
