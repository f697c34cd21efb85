package mediasync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaozhang/xiaoblog/config"
	"github.com/xiaozhang/xiaoblog/jellyfin"
	"github.com/xiaozhang/xiaoblog/models"
	"github.com/xiaozhang/xiaoblog/tmdb"
)

func buildRecordForTest(t *testing.T, item *jellyfin.Item, releaseDate, mediaType string) *models.Movie {
	t.Helper()
	meta := &tmdb.Details{
		ID:          603,
		Title:       "The Matrix",
		ReleaseDate: releaseDate,
	}
	tc := tmdb.NewClient(config.AppConfig{TMDBImageBaseURL: "https://img.example/t/p/w500"})
	return buildRecord(item, meta, meta.ID, mediaType, tc)
}

func TestWatchStatusFor(t *testing.T) {
	assert.Equal(t, models.WatchStatusWatched, watchStatusFor(jellyfin.UserData{Played: true}))
	assert.Equal(t, models.WatchStatusWatching, watchStatusFor(jellyfin.UserData{PlayedPercentage: 42.5}))
	assert.Equal(t, models.WatchStatusWantToWatch, watchStatusFor(jellyfin.UserData{}))
	// a finished item wins even with a partial percentage left over
	assert.Equal(t, models.WatchStatusWatched, watchStatusFor(jellyfin.UserData{Played: true, PlayedPercentage: 97}))
}

func TestSubTypeFor(t *testing.T) {
	cases := []struct {
		name    string
		studios []jellyfin.Studio
		want    string
	}{
		{"mainland", []jellyfin.Studio{{Name: "中国电影集团"}}, models.SubTypeChinese},
		{"hongkong", []jellyfin.Studio{{Name: "香港嘉禾"}}, models.SubTypeChinese},
		{"japan", []jellyfin.Studio{{Name: "日本东宝株式会社"}}, models.SubTypeAsian},
		{"korea", []jellyfin.Studio{{Name: "韩国CJ娱乐"}}, models.SubTypeAsian},
		{"usa", []jellyfin.Studio{{Name: "美国华纳兄弟"}}, models.SubTypeWestern},
		{"unknown", []jellyfin.Studio{{Name: "Mystery Films"}}, models.SubTypeOther},
		{"empty", nil, models.SubTypeOther},
		// the first matching bucket wins
		{"mixed", []jellyfin.Studio{{Name: "美国索尼"}, {Name: "中国合拍"}}, models.SubTypeChinese},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, subTypeFor(tc.studios))
		})
	}
}

func TestFiveStarRating(t *testing.T) {
	r, ok := fiveStarRating(8.7, 2500)
	require.True(t, ok)
	assert.InDelta(t, 4.4, r, 0.001, "rounds to one decimal, not truncates")

	r, ok = fiveStarRating(7.0, 1000)
	require.True(t, ok)
	assert.InDelta(t, 3.5, r, 0.001)

	_, ok = fiveStarRating(8.7, 99)
	assert.False(t, ok, "too few votes")

	_, ok = fiveStarRating(0, 5000)
	assert.False(t, ok, "no community average")
}

func TestBuildRecordDates(t *testing.T) {
	item := &jellyfin.Item{
		UserData: jellyfin.UserData{
			Played:         true,
			LastPlayedDate: "2024-03-15T21:04:05.1234567Z",
		},
	}
	record := buildRecordForTest(t, item, "2024-01-02", models.MediaTypeMovie)

	require.NotNil(t, record.ReleaseDate)
	assert.Equal(t, "2024-01-02", record.ReleaseDate.Format("2006-01-02"))
	require.NotNil(t, record.WatchDate)
	assert.Equal(t, "2024-03-15T21:04:05", record.WatchDate.Format("2006-01-02T15:04:05"))
	assert.Equal(t, models.WatchStatusWatched, record.WatchStatus)
}

func TestBuildRecordBadDates(t *testing.T) {
	item := &jellyfin.Item{
		UserData: jellyfin.UserData{LastPlayedDate: "not a date"},
	}
	record := buildRecordForTest(t, item, "unknown", models.MediaTypeMovie)

	assert.Nil(t, record.ReleaseDate, "unparseable dates are dropped, not fatal")
	assert.Nil(t, record.WatchDate)
}
