package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ReportChannelSummary = "channel_summary"
	ReportTopVideos      = "top_videos"
	ReportEngagement     = "engagement"
	ReportCommentHealth  = "comment_health"
)

// Report is a generated analytics document; Content holds the rendered JSON.
// Deleted reports are soft-deleted so they still count toward the monthly
// quota.
type Report struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	ChannelID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"channel_id"`
	Type       string         `gorm:"size:40;not null" json:"type"`
	Title      string         `gorm:"size:255" json:"title"`
	PeriodDays int            `json:"period_days"`
	Content    datatypes.JSON `json:"content"`
	ExportKey  string         `gorm:"size:500" json:"export_key,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Report) TableName() string { return "yt_reports" }

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
