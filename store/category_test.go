package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaozhang/xiaoblog/models"
)

func TestCategoryCreateDuplicateName(t *testing.T) {
	db := newTestDB(t)
	s := NewCategoryStore(db)

	_, err := s.Create("tech", "technology posts")
	require.NoError(t, err)

	_, err = s.Create("tech", "again")
	assert.ErrorIs(t, err, ErrConflict)

	// a deleted category frees its name
	cat, err := s.Create("temp", "")
	require.NoError(t, err)
	require.NoError(t, s.SoftDelete(cat.ID))
	_, err = s.Create("temp", "")
	assert.NoError(t, err)
}

func TestCategoryDeleteGuard(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", true)
	s := NewCategoryStore(db)
	articles := NewArticleStore(db)

	cat, err := s.Create("tech", "")
	require.NoError(t, err)
	art := &models.Article{Title: "post", Content: "body", AuthorID: user.ID, CategoryID: &cat.ID}
	require.NoError(t, articles.Create(art))

	err = s.SoftDelete(cat.ID)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = s.Get(cat.ID)
	require.NoError(t, err, "guarded delete changes nothing")

	// once the article is gone the category can be removed
	require.NoError(t, articles.SoftDelete(art.ID))
	require.NoError(t, s.SoftDelete(cat.ID))
	_, err = s.Get(cat.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryList(t *testing.T) {
	db := newTestDB(t)
	s := NewCategoryStore(db)

	for _, name := range []string{"a", "b", "c"} {
		_, err := s.Create(name, "")
		require.NoError(t, err)
	}
	cat, err := s.Create("doomed", "")
	require.NoError(t, err)
	require.NoError(t, s.SoftDelete(cat.ID))

	cats, err := s.List(1, 10)
	require.NoError(t, err)
	assert.Len(t, cats, 3)
}
