package youtube

import (
	"strconv"
	"time"
)

type Channel struct {
	ID              string
	Title           string
	Description     string
	CustomURL       string
	ThumbnailURL    string
	Country         string
	UploadsPlaylist string
	SubscriberCount int64
	ViewCount       int64
	VideoCount      int64
	PublishedAt     time.Time
}

type Video struct {
	ID              string
	Title           string
	Description     string
	ThumbnailURL    string
	PublishedAt     time.Time
	DurationSeconds int
	ViewCount       int64
	LikeCount       int64
	CommentCount    int64
}

type Comment struct {
	ID          string
	Author      string
	Text        string
	LikeCount   int64
	PublishedAt time.Time
}

type thumbnails struct {
	Default struct {
		URL string `json:"url"`
	} `json:"default"`
	High struct {
		URL string `json:"url"`
	} `json:"high"`
}

func (t thumbnails) best() string {
	if t.High.URL != "" {
		return t.High.URL
	}
	return t.Default.URL
}

// count decodes the API's string-encoded 64-bit counters.
type count string

func (c count) int64() int64 {
	n, _ := strconv.ParseInt(string(c), 10, 64)
	return n
}

type channelItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		CustomURL   string     `json:"customUrl"`
		Country     string     `json:"country"`
		PublishedAt time.Time  `json:"publishedAt"`
		Thumbnails  thumbnails `json:"thumbnails"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount       count `json:"viewCount"`
		SubscriberCount count `json:"subscriberCount"`
		VideoCount      count `json:"videoCount"`
	} `json:"statistics"`
	ContentDetails struct {
		RelatedPlaylists struct {
			Uploads string `json:"uploads"`
		} `json:"relatedPlaylists"`
	} `json:"contentDetails"`
}

type channelListResponse struct {
	Items []channelItem `json:"items"`
}

func (i channelItem) toChannel() Channel {
	return Channel{
		ID:              i.ID,
		Title:           i.Snippet.Title,
		Description:     i.Snippet.Description,
		CustomURL:       i.Snippet.CustomURL,
		ThumbnailURL:    i.Snippet.Thumbnails.best(),
		Country:         i.Snippet.Country,
		UploadsPlaylist: i.ContentDetails.RelatedPlaylists.Uploads,
		SubscriberCount: i.Statistics.SubscriberCount.int64(),
		ViewCount:       i.Statistics.ViewCount.int64(),
		VideoCount:      i.Statistics.VideoCount.int64(),
		PublishedAt:     i.Snippet.PublishedAt,
	}
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type videoItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		PublishedAt time.Time  `json:"publishedAt"`
		Thumbnails  thumbnails `json:"thumbnails"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount    count `json:"viewCount"`
		LikeCount    count `json:"likeCount"`
		CommentCount count `json:"commentCount"`
	} `json:"statistics"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

type videoListResponse struct {
	Items []videoItem `json:"items"`
}

func (i videoItem) toVideo() Video {
	return Video{
		ID:              i.ID,
		Title:           i.Snippet.Title,
		Description:     i.Snippet.Description,
		ThumbnailURL:    i.Snippet.Thumbnails.best(),
		PublishedAt:     i.Snippet.PublishedAt,
		DurationSeconds: ParseDuration(i.ContentDetails.Duration),
		ViewCount:       i.Statistics.ViewCount.int64(),
		LikeCount:       i.Statistics.LikeCount.int64(),
		CommentCount:    i.Statistics.CommentCount.int64(),
	}
}

type commentThreadItem struct {
	ID      string `json:"id"`
	Snippet struct {
		TopLevelComment struct {
			Snippet struct {
				AuthorDisplayName string    `json:"authorDisplayName"`
				TextDisplay       string    `json:"textDisplay"`
				LikeCount         int64     `json:"likeCount"`
				PublishedAt       time.Time `json:"publishedAt"`
			} `json:"snippet"`
		} `json:"topLevelComment"`
	} `json:"snippet"`
}

type commentThreadsResponse struct {
	Items []commentThreadItem `json:"items"`
}

func (i commentThreadItem) toComment() Comment {
	s := i.Snippet.TopLevelComment.Snippet
	return Comment{
		ID:          i.ID,
		Author:      s.AuthorDisplayName,
		Text:        s.TextDisplay,
		LikeCount:   s.LikeCount,
		PublishedAt: s.PublishedAt,
	}
}
