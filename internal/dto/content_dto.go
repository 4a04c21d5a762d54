package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type CreateChannelRequest struct {
	YouTubeChannelID string     `json:"youtube_channel_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	CustomURL        string     `json:"custom_url"`
	ThumbnailURL     string     `json:"thumbnail_url"`
	TeamID           *uuid.UUID `json:"team_id"`
}

type UpdateChannelRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

type ShareChannelRequest struct {
	TeamID *uuid.UUID `json:"team_id"`
}

type SyncResult struct {
	Channel  interface{} `json:"channel"`
	Videos   int         `json:"videos"`
	Comments int         `json:"comments"`
	Stale    bool        `json:"stale"`
	Error    string      `json:"error,omitempty"`
}

type CreateVideoRequest struct {
	YouTubeVideoID  string    `json:"youtube_video_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	PublishedAt     time.Time `json:"published_at"`
	DurationSeconds int       `json:"duration_seconds"`
	ViewCount       int64     `json:"view_count"`
	LikeCount       int64     `json:"like_count"`
	CommentCount    int64     `json:"comment_count"`
}

type UpdateVideoRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	ViewCount    *int64  `json:"view_count"`
	LikeCount    *int64  `json:"like_count"`
	CommentCount *int64  `json:"comment_count"`
}

type CreateCommentRequest struct {
	Author    string `json:"author"`
	Text      string `json:"text"`
	LikeCount int64  `json:"like_count"`
}

type CreateReportRequest struct {
	ChannelID  uuid.UUID `json:"channel_id"`
	Type       string    `json:"type"`
	PeriodDays int       `json:"period_days"`
	Title      string    `json:"title"`
}

type ExportResponse struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Format    string    `json:"format"`
	ExpiresAt time.Time `json:"expires_at"`
}

type DashboardRequest struct {
	Name      string          `json:"name"`
	Layout    json.RawMessage `json:"layout"`
	IsDefault bool            `json:"is_default"`
}

type GenerateInsightRequest struct {
	ChannelID uuid.UUID `json:"channel_id"`
}

type TeamRequest struct {
	Name string `json:"name"`
}

type AddMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type UpdateMemberRequest struct {
	Role        string          `json:"role"`
	Permissions json.RawMessage `json:"permissions"`
}
