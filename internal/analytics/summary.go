// Package analytics reduces stored videos and comments into the figures
// reports, dashboards and insights show. All functions are pure.
package analytics

import (
	"sort"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
)

type VideoStat struct {
	ID             string    `json:"id"`
	YouTubeVideoID string    `json:"youtube_video_id"`
	Title          string    `json:"title"`
	PublishedAt    time.Time `json:"published_at"`
	Views          int64     `json:"views"`
	Likes          int64     `json:"likes"`
	Comments       int64     `json:"comments"`
	EngagementRate float64   `json:"engagement_rate"`
}

type Summary struct {
	VideoCount     int         `json:"video_count"`
	TotalViews     int64       `json:"total_views"`
	TotalLikes     int64       `json:"total_likes"`
	TotalComments  int64       `json:"total_comments"`
	AvgViews       float64     `json:"avg_views"`
	MedianViews    float64     `json:"median_views"`
	AvgLikes       float64     `json:"avg_likes"`
	AvgDuration    float64     `json:"avg_duration_seconds"`
	EngagementRate float64     `json:"engagement_rate"`
	UploadsPerWeek float64     `json:"uploads_per_week"`
	BestWeekday    string      `json:"best_weekday,omitempty"`
	TopVideos      []VideoStat `json:"top_videos"`
	FirstPublished *time.Time  `json:"first_published,omitempty"`
	LastPublished  *time.Time  `json:"last_published,omitempty"`
}

func toStat(v models.Video) VideoStat {
	return VideoStat{
		ID:             v.ID.String(),
		YouTubeVideoID: v.YouTubeVideoID,
		Title:          v.Title,
		PublishedAt:    v.PublishedAt,
		Views:          v.ViewCount,
		Likes:          v.LikeCount,
		Comments:       v.CommentCount,
		EngagementRate: round(v.EngagementRate(), 4),
	}
}

// Summarize aggregates videos. topN bounds TopVideos.
func Summarize(videos []models.Video, topN int) Summary {
	s := Summary{VideoCount: len(videos), TopVideos: []VideoStat{}}
	if len(videos) == 0 {
		return s
	}

	var duration int64
	views := make([]int64, 0, len(videos))
	first, last := videos[0].PublishedAt, videos[0].PublishedAt
	for _, v := range videos {
		s.TotalViews += v.ViewCount
		s.TotalLikes += v.LikeCount
		s.TotalComments += v.CommentCount
		duration += int64(v.DurationSeconds)
		views = append(views, v.ViewCount)
		if v.PublishedAt.Before(first) {
			first = v.PublishedAt
		}
		if v.PublishedAt.After(last) {
			last = v.PublishedAt
		}
	}

	n := float64(len(videos))
	s.AvgViews = round(float64(s.TotalViews)/n, 2)
	s.AvgLikes = round(float64(s.TotalLikes)/n, 2)
	s.AvgDuration = round(float64(duration)/n, 1)
	s.MedianViews = Median(views)
	if s.TotalViews > 0 {
		s.EngagementRate = round(float64(s.TotalLikes+s.TotalComments)/float64(s.TotalViews), 4)
	}
	s.FirstPublished, s.LastPublished = &first, &last
	s.UploadsPerWeek = UploadsPerWeek(videos)
	s.BestWeekday = BestWeekday(videos)
	s.TopVideos = TopVideos(videos, topN, ByViews)
	return s
}

type SortKey string

const (
	ByViews      SortKey = "views"
	ByLikes      SortKey = "likes"
	ByPublished  SortKey = "published"
	ByEngagement SortKey = "engagement"
)

// TopVideos returns the first n videos ordered by key, descending.
func TopVideos(videos []models.Video, n int, key SortKey) []VideoStat {
	sorted := SortVideos(videos, key)
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]VideoStat, len(sorted))
	for i, v := range sorted {
		out[i] = toStat(v)
	}
	return out
}

// SortVideos returns a copy of videos ordered by key, descending. Ties keep
// the newest video first.
func SortVideos(videos []models.Video, key SortKey) []models.Video {
	sorted := append([]models.Video(nil), videos...)
	less := func(a, b models.Video) (bool, bool) {
		switch key {
		case ByLikes:
			return a.LikeCount > b.LikeCount, a.LikeCount == b.LikeCount
		case ByPublished:
			return a.PublishedAt.After(b.PublishedAt), a.PublishedAt.Equal(b.PublishedAt)
		case ByEngagement:
			ea, eb := a.EngagementRate(), b.EngagementRate()
			return ea > eb, ea == eb
		default:
			return a.ViewCount > b.ViewCount, a.ViewCount == b.ViewCount
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		gt, eq := less(sorted[i], sorted[j])
		if eq {
			return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
		}
		return gt
	})
	return sorted
}

// FilterSince keeps videos published at or after since.
func FilterSince(videos []models.Video, since time.Time) []models.Video {
	out := make([]models.Video, 0, len(videos))
	for _, v := range videos {
		if !v.PublishedAt.Before(since) {
			out = append(out, v)
		}
	}
	return out
}

// UploadsPerWeek is the publishing rate across the span of the videos. A
// span shorter than a week counts as one week.
func UploadsPerWeek(videos []models.Video) float64 {
	if len(videos) == 0 {
		return 0
	}
	first, last := videos[0].PublishedAt, videos[0].PublishedAt
	for _, v := range videos {
		if v.PublishedAt.Before(first) {
			first = v.PublishedAt
		}
		if v.PublishedAt.After(last) {
			last = v.PublishedAt
		}
	}
	weeks := last.Sub(first).Hours() / (24 * 7)
	if weeks < 1 {
		weeks = 1
	}
	return round(float64(len(videos))/weeks, 2)
}

// BestWeekday is the publishing weekday with the highest average views.
func BestWeekday(videos []models.Video) string {
	if len(videos) == 0 {
		return ""
	}
	var sum [7]int64
	var cnt [7]int64
	for _, v := range videos {
		d := v.PublishedAt.UTC().Weekday()
		sum[d] += v.ViewCount
		cnt[d]++
	}
	best, bestAvg := -1, -1.0
	for d := 0; d < 7; d++ {
		if cnt[d] == 0 {
			continue
		}
		avg := float64(sum[d]) / float64(cnt[d])
		if avg > bestAvg {
			best, bestAvg = d, avg
		}
	}
	return time.Weekday(best).String()
}

// Outliers returns videos whose views exceed factor times the median.
func Outliers(videos []models.Video, factor float64) []VideoStat {
	if len(videos) < 3 {
		return nil
	}
	views := make([]int64, len(videos))
	for i, v := range videos {
		views[i] = v.ViewCount
	}
	median := Median(views)
	var out []VideoStat
	for _, v := range SortVideos(videos, ByViews) {
		if median > 0 && float64(v.ViewCount) > factor*median {
			out = append(out, toStat(v))
		}
	}
	return out
}

func Median(values []int64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := append([]int64(nil), values...)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return float64(s[mid])
	}
	return float64(s[mid-1]+s[mid]) / 2
}

func round(f float64, places int) float64 {
	p := 1.0
	for i := 0; i < places; i++ {
		p *= 10
	}
	if f >= 0 {
		return float64(int64(f*p+0.5)) / p
	}
	return float64(int64(f*p-0.5)) / p
}
