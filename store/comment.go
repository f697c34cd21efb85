package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/xiaozhang/xiaoblog/models"
)

// CommentStore handles the comment tree: creation, default listing of
// top-level comments, and cascading soft deletion of reply subtrees.
type CommentStore struct {
	db *gorm.DB
}

// NewCommentStore creates a CommentStore bound to db.
func NewCommentStore(db *gorm.DB) *CommentStore {
	return &CommentStore{db: db}
}

// Get returns a non-deleted comment with its full reply tree loaded eagerly.
// Replies are assembled in memory from the article's comment rows so the
// tree depth is unbounded without per-level queries.
func (s *CommentStore) Get(id uint) (*models.Comment, error) {
	var cmt models.Comment
	err := s.db.Preload("User").
		Where("id = ? AND is_deleted = ?", id, false).
		First(&cmt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}

	children, err := s.childIndex(cmt.ArticleID, false)
	if err != nil {
		return nil, err
	}
	attachReplies(&cmt, children)
	return &cmt, nil
}

// ListByArticle returns non-deleted top-level comments of an article, newest
// first, each with its reply tree attached.
func (s *CommentStore) ListByArticle(articleID uint, page, pageSize int) ([]models.Comment, int64, error) {
	base := s.db.Model(&models.Comment{}).
		Where("article_id = ? AND is_deleted = ? AND parent_id IS NULL", articleID, false)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	var comments []models.Comment
	err := s.db.Preload("User").
		Where("article_id = ? AND is_deleted = ? AND parent_id IS NULL", articleID, false).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&comments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}

	children, err := s.childIndex(articleID, false)
	if err != nil {
		return nil, 0, err
	}
	for i := range comments {
		attachReplies(&comments[i], children)
	}
	return comments, total, nil
}

// Create inserts a comment (optionally a reply) and then recomputes the
// owning article's comment counter to the exact live count.
func (s *CommentStore) Create(articleID, userID uint, parentID *uint, content string) (*models.Comment, error) {
	var art models.Article
	err := s.db.Where("id = ? AND is_deleted = ?", articleID, false).First(&art).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load article: %w", err)
	}

	if parentID != nil {
		var parent models.Comment
		err := s.db.Where("id = ? AND is_deleted = ?", *parentID, false).First(&parent).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("load parent comment: %w", err)
		}
		if parent.ArticleID != articleID {
			return nil, fmt.Errorf("%w: parent comment belongs to another article", ErrConflict)
		}
	}

	cmt := models.Comment{
		Content:   content,
		ArticleID: articleID,
		UserID:    userID,
		ParentID:  parentID,
	}
	if err := s.db.Create(&cmt).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	if err := s.RecomputeArticleCount(articleID); err != nil {
		return nil, err
	}

	if err := s.db.Preload("User").First(&cmt, cmt.ID).Error; err != nil {
		return nil, fmt.Errorf("reload comment: %w", err)
	}
	return &cmt, nil
}

// Delete soft deletes a comment and its entire reply subtree, then
// recomputes the article's comment counter. Only the author or an admin may
// delete; anything else is ErrPermissionDenied with no state change.
//
// The cascade walks an in-memory id -> children adjacency index built from
// the article's comment rows, so soft-delete semantics never rely on
// database-level cascades. Nodes already marked deleted are skipped and not
// descended into, which keeps repeated deletions idempotent and bounds the
// walk even if corrupted data ever formed a cycle.
func (s *CommentStore) Delete(id, requesterID uint, requesterIsAdmin bool) error {
	var cmt models.Comment
	err := s.db.Where("id = ? AND is_deleted = ?", id, false).First(&cmt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load comment: %w", err)
	}

	if cmt.UserID != requesterID && !requesterIsAdmin {
		return ErrPermissionDenied
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var rows []models.Comment
		if err := tx.Select("id", "parent_id", "is_deleted").
			Where("article_id = ?", cmt.ArticleID).
			Find(&rows).Error; err != nil {
			return fmt.Errorf("load comment tree: %w", err)
		}

		children := map[uint][]models.Comment{}
		for _, r := range rows {
			if r.ParentID != nil {
				children[*r.ParentID] = append(children[*r.ParentID], r)
			}
		}

		targets := collectSubtree(cmt.ID, children)
		now := time.Now()
		return tx.Model(&models.Comment{}).
			Where("id IN ?", targets).
			Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
	})
	if err != nil {
		return fmt.Errorf("cascade delete comment: %w", err)
	}

	// Separate write from the cascade: a crash in between leaves a stale
	// counter that the next comment mutation heals.
	return s.RecomputeArticleCount(cmt.ArticleID)
}

// RecomputeArticleCount sets the article's comments_count to the exact
// number of non-deleted comments, healing any prior drift.
func (s *CommentStore) RecomputeArticleCount(articleID uint) error {
	var live int64
	err := s.db.Model(&models.Comment{}).
		Where("article_id = ? AND is_deleted = ?", articleID, false).
		Count(&live).Error
	if err != nil {
		return fmt.Errorf("count live comments: %w", err)
	}
	err = s.db.Model(&models.Article{}).
		Where("id = ?", articleID).
		UpdateColumn("comments_count", live).Error
	if err != nil {
		return fmt.Errorf("update comment counter: %w", err)
	}
	return nil
}

// collectSubtree returns the ids of root and every transitive non-deleted
// descendant. Deleted nodes terminate their branch; a visited set guards
// against cycles from corrupted parent references.
func collectSubtree(root uint, children map[uint][]models.Comment) []uint {
	ids := []uint{root}
	visited := map[uint]bool{root: true}
	stack := []uint{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range children[cur] {
			if visited[child.ID] || child.IsDeleted {
				continue
			}
			visited[child.ID] = true
			ids = append(ids, child.ID)
			stack = append(stack, child.ID)
		}
	}
	return ids
}

// childIndex loads the article's comments (optionally including deleted
// ones) and groups them by parent id.
func (s *CommentStore) childIndex(articleID uint, includeDeleted bool) (map[uint][]models.Comment, error) {
	query := s.db.Preload("User").Where("article_id = ?", articleID)
	if !includeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	var rows []models.Comment
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load article comments: %w", err)
	}
	children := map[uint][]models.Comment{}
	for _, r := range rows {
		if r.ParentID != nil {
			children[*r.ParentID] = append(children[*r.ParentID], r)
		}
	}
	return children, nil
}

// attachReplies fills cmt.Replies recursively from the adjacency index. The
// visited set mirrors collectSubtree so a cycle from corrupted parent
// references terminates instead of recursing forever.
func attachReplies(cmt *models.Comment, children map[uint][]models.Comment) {
	fillReplies(cmt, children, map[uint]bool{cmt.ID: true})
}

func fillReplies(cmt *models.Comment, children map[uint][]models.Comment, visited map[uint]bool) {
	cmt.Replies = []models.Comment{}
	for _, child := range children[cmt.ID] {
		if visited[child.ID] {
			continue
		}
		visited[child.ID] = true
		cmt.Replies = append(cmt.Replies, child)
	}
	for i := range cmt.Replies {
		fillReplies(&cmt.Replies[i], children, visited)
	}
}
