package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CommentClean    = "clean"
	CommentQuestion = "question"
	CommentSpam     = "spam"
	CommentToxic    = "toxic"
)

type Comment struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VideoID          uuid.UUID `gorm:"type:uuid;not null;index" json:"video_id"`
	YouTubeCommentID string    `gorm:"column:youtube_comment_id;size:64;index" json:"youtube_comment_id,omitempty"`
	Author           string    `gorm:"size:255" json:"author"`
	Text             string    `gorm:"type:text" json:"text"`
	LikeCount        int64     `json:"like_count"`
	Classification   string    `gorm:"size:20;default:'clean';index" json:"classification"`
	ClassifyReason   string    `gorm:"size:60" json:"classify_reason,omitempty"`
	PublishedAt      time.Time `json:"published_at"`
	CreatedAt        time.Time `json:"created_at"`
}

func (Comment) TableName() string { return "yt_comments" }

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
