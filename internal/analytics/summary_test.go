package analytics

import (
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-03-04 is a Monday.
var monday = time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

func video(title string, daysAfter int, views, likes, comments int64) models.Video {
	return models.Video{
		ID:              uuid.New(),
		YouTubeVideoID:  title,
		Title:           title,
		PublishedAt:     monday.AddDate(0, 0, daysAfter),
		DurationSeconds: 600,
		ViewCount:       views,
		LikeCount:       likes,
		CommentCount:    comments,
	}
}

func TestSummarize(t *testing.T) {
	videos := []models.Video{
		video("a", 0, 1000, 80, 20),
		video("b", 7, 3000, 100, 50),
		video("c", 14, 500, 10, 5),
		video("d", 21, 2000, 150, 10),
	}

	s := Summarize(videos, 2)

	assert.Equal(t, 4, s.VideoCount)
	assert.Equal(t, int64(6500), s.TotalViews)
	assert.Equal(t, 1625.0, s.AvgViews)
	assert.Equal(t, 1500.0, s.MedianViews)
	assert.Equal(t, 600.0, s.AvgDuration)
	assert.InDelta(t, 425.0/6500.0, s.EngagementRate, 0.0001)
	assert.InDelta(t, 4.0/3.0, s.UploadsPerWeek, 0.01)
	assert.Equal(t, "Monday", s.BestWeekday)
	require.Len(t, s.TopVideos, 2)
	assert.Equal(t, "b", s.TopVideos[0].Title)
	assert.Equal(t, "d", s.TopVideos[1].Title)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, 5)
	assert.Zero(t, s.VideoCount)
	assert.NotNil(t, s.TopVideos)
	assert.Zero(t, s.EngagementRate)
}

func TestSortVideos(t *testing.T) {
	videos := []models.Video{
		video("old", 0, 100, 50, 0),
		video("new", 3, 100, 1, 0),
		video("viral", 1, 900, 18, 0),
	}

	tests := []struct {
		key  SortKey
		want []string
	}{
		{ByViews, []string{"viral", "new", "old"}},
		{ByLikes, []string{"old", "viral", "new"}},
		{ByPublished, []string{"new", "viral", "old"}},
		{ByEngagement, []string{"old", "viral", "new"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			var got []string
			for _, v := range SortVideos(videos, tt.key) {
				got = append(got, v.Title)
			}
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "old", videos[0].Title, "input untouched")
}

func TestBestWeekdayAndOutliers(t *testing.T) {
	videos := []models.Video{
		video("mon", 0, 100, 0, 0),
		video("tue", 1, 5000, 0, 0),
		video("mon2", 7, 120, 0, 0),
		video("mon3", 14, 110, 0, 0),
	}
	assert.Equal(t, "Tuesday", BestWeekday(videos))

	out := Outliers(videos, 3)
	require.Len(t, out, 1)
	assert.Equal(t, "tue", out[0].Title)

	assert.Nil(t, Outliers(videos[:2], 3))
}

func TestFilterSince(t *testing.T) {
	videos := []models.Video{video("a", 0, 1, 0, 0), video("b", 10, 1, 0, 0)}
	got := FilterSince(videos, monday.AddDate(0, 0, 5))
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Title)
}

func TestBreakdownComments(t *testing.T) {
	comments := []models.Comment{
		{Classification: models.CommentSpam, LikeCount: 0},
		{Classification: models.CommentQuestion, LikeCount: 4},
		{Classification: models.CommentClean, LikeCount: 2},
		{Classification: "", LikeCount: 2},
	}
	b := BreakdownComments(comments)
	assert.Equal(t, 4, b.Total)
	assert.Equal(t, 2, b.ByClass[models.CommentClean])
	assert.Equal(t, 0.25, b.SpamRatio)
	assert.Equal(t, 0.25, b.QuestionRatio)
	assert.Equal(t, 2.0, b.AvgLikes)
}
