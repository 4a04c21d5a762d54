package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/analytics"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrVideoNotFound = errors.New("video not found")
	ErrVideoExists   = errors.New("video already exists in this channel")
)

var videoOrder = map[analytics.SortKey]string{
	analytics.ByViews:      "view_count DESC, published_at DESC",
	analytics.ByLikes:      "like_count DESC, published_at DESC",
	analytics.ByPublished:  "published_at DESC",
	analytics.ByEngagement: "CASE WHEN view_count > 0 THEN (like_count + comment_count) * 1.0 / view_count ELSE 0 END DESC, published_at DESC",
}

type VideoService struct {
	db       *gorm.DB
	channels *ChannelService
}

func NewVideoService(db *gorm.DB, channels *ChannelService) *VideoService {
	return &VideoService{db: db, channels: channels}
}

func (s *VideoService) List(userID, channelID uuid.UUID, sort string, page, limit int) ([]models.Video, int64, error) {
	if _, err := s.channels.Get(userID, channelID); err != nil {
		return nil, 0, err
	}
	order, ok := videoOrder[analytics.SortKey(sort)]
	if !ok {
		order = videoOrder[analytics.ByPublished]
	}

	var total int64
	q := s.db.Model(&models.Video{}).Where("channel_id = ?", channelID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var videos []models.Video
	err := q.Order(order).Scopes(tenant.Paginate(page, limit)).Find(&videos).Error
	return videos, total, err
}

// Get loads a video the user can see through its channel.
func (s *VideoService) Get(userID, id uuid.UUID) (*models.Video, error) {
	var v models.Video
	if err := s.db.First(&v, "id = ?", id).Error; err != nil {
		return nil, ErrVideoNotFound
	}
	if _, err := s.channels.Get(userID, v.ChannelID); err != nil {
		return nil, ErrVideoNotFound
	}
	return &v, nil
}

func (s *VideoService) editable(userID, id uuid.UUID) (*models.Video, error) {
	v, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.channels.Editable(userID, v.ChannelID); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *VideoService) Create(userID, channelID uuid.UUID, req *dto.CreateVideoRequest) (*models.Video, error) {
	if _, err := s.channels.Editable(userID, channelID); err != nil {
		return nil, err
	}
	ytID := strings.TrimSpace(req.YouTubeVideoID)
	if ytID == "" || strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: youtube_video_id and title are required", ErrInvalidInput)
	}
	if req.ViewCount < 0 || req.LikeCount < 0 || req.CommentCount < 0 || req.DurationSeconds < 0 {
		return nil, fmt.Errorf("%w: counters cannot be negative", ErrInvalidInput)
	}

	var dup int64
	s.db.Model(&models.Video{}).Where("channel_id = ? AND youtube_video_id = ?", channelID, ytID).Count(&dup)
	if dup > 0 {
		return nil, ErrVideoExists
	}

	published := req.PublishedAt
	if published.IsZero() {
		published = time.Now()
	}
	v := models.Video{
		ChannelID:       channelID,
		YouTubeVideoID:  ytID,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		PublishedAt:     published,
		DurationSeconds: req.DurationSeconds,
		ViewCount:       req.ViewCount,
		LikeCount:       req.LikeCount,
		CommentCount:    req.CommentCount,
	}
	if err := s.db.Create(&v).Error; err != nil {
		return nil, fmt.Errorf("failed to create video: %w", err)
	}
	return &v, nil
}

func (s *VideoService) Update(userID, id uuid.UUID, req *dto.UpdateVideoRequest) (*models.Video, error) {
	v, err := s.editable(userID, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	for col, val := range map[string]*int64{"view_count": req.ViewCount, "like_count": req.LikeCount, "comment_count": req.CommentCount} {
		if val == nil {
			continue
		}
		if *val < 0 {
			return nil, fmt.Errorf("%w: %s cannot be negative", ErrInvalidInput, col)
		}
		updates[col] = *val
	}
	if len(updates) > 0 {
		if err := s.db.Model(v).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(userID, id)
}

func (s *VideoService) Delete(userID, id uuid.UUID) error {
	v, err := s.editable(userID, id)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", v.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(v).Error
	})
}

// ForChannels loads every video of the given channels.
func (s *VideoService) ForChannels(channelIDs []uuid.UUID) ([]models.Video, error) {
	if len(channelIDs) == 0 {
		return nil, nil
	}
	var videos []models.Video
	err := s.db.Where("channel_id IN ?", channelIDs).Find(&videos).Error
	return videos, err
}
