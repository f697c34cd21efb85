package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/xiaozhang/xiaoblog/store"
	"github.com/xiaozhang/xiaoblog/utils"
)

// UserController exposes the admin account management endpoints.
type UserController struct {
	users *store.UserStore
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{users: store.NewUserStore(db)}
}

// List returns a page of accounts.
func (u *UserController) List(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"), 20)
	users, total, err := u.users.List(page, pageSize)
	if err != nil {
		storeError(ctx, err, 50030)
		return
	}
	utils.Success(ctx, gin.H{
		"items":      users,
		"pagination": paginationPayload(page, pageSize, total),
	})
}

// Create registers a new account.
func (u *UserController) Create(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=2,max=32"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6,max=64"`
		IsAdmin  bool   `json:"is_admin"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}
	user, err := u.users.Create(req.Username, req.Email, req.Password, req.IsAdmin)
	if err != nil {
		storeError(ctx, err, 50031)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "ok", gin.H{"user": user})
}

// Update patches an account. need_relogin is true when the target user's
// credentials or privileges changed in a way that invalidates their session.
func (u *UserController) Update(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		IsAdmin  *bool   `json:"is_admin"`
		Avatar   *string `json:"avatar"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid request payload")
		return
	}
	currentID, _ := getUserID(ctx)
	user, needRelogin, err := u.users.Update(id, store.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
		Avatar:   req.Avatar,
	}, currentID)
	if err != nil {
		storeError(ctx, err, 50032)
		return
	}
	utils.Success(ctx, gin.H{"user": user, "need_relogin": needRelogin})
}
