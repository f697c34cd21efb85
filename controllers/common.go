package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xiaozhang/xiaoblog/middleware"
	"github.com/xiaozhang/xiaoblog/store"
	"github.com/xiaozhang/xiaoblog/utils"
)

func parsePagination(pageStr, sizeStr string, defaultSize int) (int, int) {
	page := 1
	pageSize := defaultSize
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func paginationPayload(page, pageSize int, total int64) gin.H {
	return gin.H{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

func isAdmin(ctx *gin.Context) bool {
	value, exists := ctx.Get(middleware.ContextIsAdminKey)
	if !exists {
		return false
	}
	admin, _ := value.(bool)
	return admin
}

func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	id, ok := parseUint(ctx.Param(name))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid "+name+" parameter")
		return 0, false
	}
	return id, true
}

func parseUint(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// storeError maps store sentinel errors onto the HTTP taxonomy; anything
// else surfaces as a generic failure carrying the underlying message.
func storeError(ctx *gin.Context, err error, code int) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, code, "not found")
	case errors.Is(err, store.ErrConflict):
		utils.Error(ctx, http.StatusConflict, code, err.Error())
	case errors.Is(err, store.ErrPermissionDenied):
		utils.Error(ctx, http.StatusForbidden, code, "permission denied")
	default:
		utils.Error(ctx, http.StatusInternalServerError, code, err.Error())
	}
}
