package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaozhang/xiaoblog/models"
)

func liveCommentCount(t *testing.T, s *CommentStore, articleID uint) int64 {
	t.Helper()
	var art models.Article
	require.NoError(t, s.db.First(&art, articleID).Error)
	return int64(art.CommentsCount)
}

func TestCommentCreateAndCounter(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", false)
	art := seedArticle(t, db, user.ID, "hello")
	s := NewCommentStore(db)

	c1, err := s.Create(art.ID, user.ID, nil, "first")
	require.NoError(t, err)
	assert.Equal(t, "first", c1.Content)
	assert.Equal(t, user.Username, c1.User.Username)

	_, err = s.Create(art.ID, user.ID, &c1.ID, "a reply")
	require.NoError(t, err)

	assert.EqualValues(t, 2, liveCommentCount(t, s, art.ID))
}

func TestCommentCreateValidation(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", false)
	art := seedArticle(t, db, user.ID, "hello")
	other := seedArticle(t, db, user.ID, "other")
	s := NewCommentStore(db)

	_, err := s.Create(9999, user.ID, nil, "orphan")
	assert.ErrorIs(t, err, ErrNotFound)

	parent, err := s.Create(art.ID, user.ID, nil, "parent")
	require.NoError(t, err)

	_, err = s.Create(other.ID, user.ID, &parent.ID, "cross-article reply")
	assert.ErrorIs(t, err, ErrConflict)

	missing := uint(9999)
	_, err = s.Create(art.ID, user.ID, &missing, "reply to nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", false)
	art := seedArticle(t, db, user.ID, "hello")
	s := NewCommentStore(db)

	// c1 <- c2 <- c3, plus an unrelated sibling
	c1, err := s.Create(art.ID, user.ID, nil, "c1")
	require.NoError(t, err)
	c2, err := s.Create(art.ID, user.ID, &c1.ID, "c2")
	require.NoError(t, err)
	c3, err := s.Create(art.ID, user.ID, &c2.ID, "c3")
	require.NoError(t, err)
	other, err := s.Create(art.ID, user.ID, nil, "standalone")
	require.NoError(t, err)

	require.NoError(t, s.Delete(c1.ID, user.ID, false))

	for _, id := range []uint{c1.ID, c2.ID, c3.ID} {
		_, err := s.Get(id)
		assert.ErrorIs(t, err, ErrNotFound, "comment %d should be soft deleted", id)
	}
	got, err := s.Get(other.ID)
	require.NoError(t, err)
	assert.Equal(t, "standalone", got.Content)

	assert.EqualValues(t, 1, liveCommentCount(t, s, art.ID))
}

func TestCommentDeleteIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", false)
	art := seedArticle(t, db, user.ID, "hello")
	s := NewCommentStore(db)

	c1, err := s.Create(art.ID, user.ID, nil, "c1")
	require.NoError(t, err)

	require.NoError(t, s.Delete(c1.ID, user.ID, false))
	assert.ErrorIs(t, s.Delete(c1.ID, user.ID, false), ErrNotFound)
	assert.EqualValues(t, 0, liveCommentCount(t, s, art.ID))
}

func TestCommentDeletePermissions(t *testing.T) {
	db := newTestDB(t)
	author := seedUser(t, db, "author", false)
	stranger := seedUser(t, db, "stranger", false)
	admin := seedUser(t, db, "admin", true)
	art := seedArticle(t, db, author.ID, "hello")
	s := NewCommentStore(db)

	c1, err := s.Create(art.ID, author.ID, nil, "mine")
	require.NoError(t, err)

	err = s.Delete(c1.ID, stranger.ID, false)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// the failed attempt left everything live
	_, err = s.Get(c1.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, liveCommentCount(t, s, art.ID))

	require.NoError(t, s.Delete(c1.ID, admin.ID, true))
	assert.EqualValues(t, 0, liveCommentCount(t, s, art.ID))
}

func TestCommentCounterTracksLiveRows(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", false)
	art := seedArticle(t, db, user.ID, "hello")
	s := NewCommentStore(db)

	var roots []*models.Comment
	for i := 0; i < 5; i++ {
		c, err := s.Create(art.ID, user.ID, nil, "comment")
		require.NoError(t, err)
		roots = append(roots, c)
	}
	assert.EqualValues(t, 5, liveCommentCount(t, s, art.ID))

	require.NoError(t, s.Delete(roots[0].ID, user.ID, false))
	require.NoError(t, s.Delete(roots[1].ID, user.ID, false))
	assert.EqualValues(t, 3, liveCommentCount(t, s, art.ID))
}

func TestCommentListByArticle(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", false)
	art := seedArticle(t, db, user.ID, "hello")
	s := NewCommentStore(db)

	top, err := s.Create(art.ID, user.ID, nil, "top")
	require.NoError(t, err)
	reply, err := s.Create(art.ID, user.ID, &top.ID, "nested")
	require.NoError(t, err)
	_, err = s.Create(art.ID, user.ID, &reply.ID, "deeper")
	require.NoError(t, err)

	comments, total, err := s.ListByArticle(art.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total, "only top-level rows are paginated")
	require.Len(t, comments, 1)
	require.Len(t, comments[0].Replies, 1)
	require.Len(t, comments[0].Replies[0].Replies, 1)
	assert.Equal(t, "deeper", comments[0].Replies[0].Replies[0].Content)
}

func TestCollectSubtreeSkipsDeletedBranches(t *testing.T) {
	children := map[uint][]models.Comment{
		1: {{ID: 2}, {ID: 3, IsDeleted: true}},
		2: {{ID: 4}},
		3: {{ID: 5}},
	}
	ids := collectSubtree(1, children)
	assert.ElementsMatch(t, []uint{1, 2, 4}, ids)
}

func TestCommentTreeToleratesCorruptedParentCycle(t *testing.T) {
	db := newTestDB(t)
	s := NewCommentStore(db)
	user := seedUser(t, db, "alice", false)
	art := seedArticle(t, db, user.ID, "cycles")

	c1, err := s.Create(art.ID, user.ID, nil, "first")
	require.NoError(t, err)
	c2, err := s.Create(art.ID, user.ID, &c1.ID, "second")
	require.NoError(t, err)

	// corrupt the rows so the two comments parent each other
	require.NoError(t, db.Model(&models.Comment{}).Where("id = ?", c1.ID).
		UpdateColumn("parent_id", c2.ID).Error)

	got, err := s.Get(c2.ID)
	require.NoError(t, err)
	require.Len(t, got.Replies, 1)
	assert.Equal(t, c1.ID, got.Replies[0].ID)
	assert.Empty(t, got.Replies[0].Replies, "the cycle back to the root is cut")

	// no top-level rows remain, listing must still terminate
	list, total, err := s.ListByArticle(art.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, list)

	// deleting inside the cycle also terminates
	require.NoError(t, s.Delete(c1.ID, user.ID, false))
}
