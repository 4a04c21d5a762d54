package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Video struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChannelID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_video_channel_yt,priority:1" json:"channel_id"`
	YouTubeVideoID  string    `gorm:"column:youtube_video_id;size:32;not null;uniqueIndex:idx_video_channel_yt,priority:2" json:"youtube_video_id"`
	Title           string    `gorm:"size:255" json:"title"`
	Description     string    `gorm:"type:text" json:"description,omitempty"`
	ThumbnailURL    string    `gorm:"size:500" json:"thumbnail_url"`
	PublishedAt     time.Time `gorm:"index" json:"published_at"`
	DurationSeconds int       `json:"duration_seconds"`
	ViewCount       int64     `json:"view_count"`
	LikeCount       int64     `json:"like_count"`
	CommentCount    int64     `json:"comment_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Video) TableName() string { return "yt_videos" }

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// EngagementRate is (likes+comments)/views, zero when the video has no views.
func (v Video) EngagementRate() float64 {
	if v.ViewCount <= 0 {
		return 0
	}
	return float64(v.LikeCount+v.CommentCount) / float64(v.ViewCount)
}
