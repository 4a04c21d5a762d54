package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Channel is a tracked YouTube channel snapshot owned by a user and
// optionally shared with a team.
type Channel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_channel_user_yt,priority:1" json:"user_id"`
	TeamID           *uuid.UUID `gorm:"type:uuid;index" json:"team_id,omitempty"`
	YouTubeChannelID string     `gorm:"column:youtube_channel_id;size:64;not null;uniqueIndex:idx_channel_user_yt,priority:2" json:"youtube_channel_id"`
	Title            string     `gorm:"size:255" json:"title"`
	Description      string     `gorm:"type:text" json:"description"`
	CustomURL        string     `gorm:"size:255" json:"custom_url"`
	ThumbnailURL     string     `gorm:"size:500" json:"thumbnail_url"`
	Country          string     `gorm:"size:8" json:"country"`
	UploadsPlaylist  string     `gorm:"size:64" json:"-"`
	SubscriberCount  int64      `json:"subscriber_count"`
	ViewCount        int64      `json:"view_count"`
	VideoCount       int64      `json:"video_count"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	LastSyncedAt     *time.Time `json:"last_synced_at,omitempty"`
	SyncError        string     `gorm:"size:500" json:"sync_error,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Channel) TableName() string { return "yt_channels" }

func (c *Channel) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
