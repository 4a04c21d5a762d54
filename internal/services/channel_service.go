package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/plans"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/youtube"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrChannelNotFound    = errors.New("channel not found")
	ErrChannelExists      = errors.New("channel is already tracked")
	ErrChannelForbidden   = errors.New("you cannot modify this channel")
	ErrPlanLimit          = errors.New("plan limit reached")
	ErrFeatureUnavailable = errors.New("feature not available on your plan")
)

type ChannelService struct {
	db    *gorm.DB
	plans *plans.Registry
	yt    *youtube.Client
	teams *TeamService
}

func NewChannelService(db *gorm.DB, registry *plans.Registry, yt *youtube.Client, teams *TeamService) *ChannelService {
	return &ChannelService{db: db, plans: registry, yt: yt, teams: teams}
}

// planOf reads the user's plan from the database rather than the token so
// upgrades apply immediately.
func planOf(db *gorm.DB, registry *plans.Registry, userID uuid.UUID) *plans.Plan {
	var user models.User
	if err := db.Select("plan").First(&user, "id = ?", userID).Error; err != nil {
		return registry.Get(plans.Free)
	}
	return registry.Get(user.Plan)
}

func (s *ChannelService) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateChannelRequest) (*models.Channel, error) {
	ytID := strings.TrimSpace(req.YouTubeChannelID)
	if ytID == "" {
		return nil, fmt.Errorf("%w: youtube_channel_id is required", ErrInvalidInput)
	}

	plan := planOf(s.db, s.plans, userID)
	var owned int64
	s.db.Model(&models.Channel{}).Where("user_id = ?", userID).Count(&owned)
	if !plans.Within(plan.MaxChannels, owned) {
		return nil, fmt.Errorf("%w: %s allows %d channels", ErrPlanLimit, plan.Name, plan.MaxChannels)
	}

	if req.TeamID != nil {
		if !s.plans.HasFeature(plan.ID, plans.FeatureTeamSharing) {
			return nil, ErrFeatureUnavailable
		}
		if !s.teams.Can(*req.TeamID, userID, PermEdit) {
			return nil, ErrTeamForbidden
		}
	}

	ch := models.Channel{
		UserID:           userID,
		TeamID:           req.TeamID,
		YouTubeChannelID: ytID,
		Title:            req.Title,
		Description:      req.Description,
		CustomURL:        req.CustomURL,
		ThumbnailURL:     req.ThumbnailURL,
	}

	if s.yt.Configured() {
		snap, err := s.yt.GetChannel(ctx, ytID)
		switch {
		case errors.Is(err, youtube.ErrNotFound):
			return nil, ErrChannelNotFound
		case err != nil:
			slog.Warn("channel snapshot failed, storing request fields", "youtube_channel_id", ytID, "error", err)
			ch.SyncError = truncate(err.Error(), 500)
		default:
			applySnapshot(&ch, snap)
		}
	}
	if ch.Title == "" {
		ch.Title = ch.YouTubeChannelID
	}

	var dup int64
	s.db.Model(&models.Channel{}).Where("user_id = ? AND youtube_channel_id = ?", userID, ch.YouTubeChannelID).Count(&dup)
	if dup > 0 {
		return nil, ErrChannelExists
	}

	if err := s.db.Create(&ch).Error; err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}
	return &ch, nil
}

func applySnapshot(ch *models.Channel, snap *youtube.Channel) {
	ch.YouTubeChannelID = snap.ID
	ch.Title = snap.Title
	ch.Description = snap.Description
	ch.CustomURL = snap.CustomURL
	ch.ThumbnailURL = snap.ThumbnailURL
	ch.Country = snap.Country
	ch.UploadsPlaylist = snap.UploadsPlaylist
	ch.SubscriberCount = snap.SubscriberCount
	ch.ViewCount = snap.ViewCount
	ch.VideoCount = snap.VideoCount
	ch.SyncError = ""
	if !snap.PublishedAt.IsZero() {
		p := snap.PublishedAt
		ch.PublishedAt = &p
	}
}

// List returns owned and team-shared channels, optionally filtered by a
// title search.
func (s *ChannelService) List(userID uuid.UUID, search string, page, limit int) ([]models.Channel, int64, error) {
	q := s.db.Model(&models.Channel{}).Scopes(tenant.AccessibleChannels(userID))
	if search = strings.TrimSpace(search); search != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var channels []models.Channel
	err := q.Scopes(tenant.Paginate(page, limit)).Order("title ASC").Find(&channels).Error
	return channels, total, err
}

func (s *ChannelService) Get(userID, id uuid.UUID) (*models.Channel, error) {
	var ch models.Channel
	if err := s.db.Scopes(tenant.AccessibleChannels(userID)).First(&ch, "yt_channels.id = ?", id).Error; err != nil {
		return nil, ErrChannelNotFound
	}
	return &ch, nil
}

// Editable returns the channel when userID owns it or holds edit permission
// in the team it is shared with.
func (s *ChannelService) Editable(userID, id uuid.UUID) (*models.Channel, error) {
	ch, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	if ch.UserID == userID {
		return ch, nil
	}
	if ch.TeamID != nil && s.teams.Can(*ch.TeamID, userID, PermEdit) {
		return ch, nil
	}
	return nil, ErrChannelForbidden
}

func (s *ChannelService) Update(userID, id uuid.UUID, req *dto.UpdateChannelRequest) (*models.Channel, error) {
	ch, err := s.Editable(userID, id)
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
	if req.ThumbnailURL != nil {
		updates["thumbnail_url"] = *req.ThumbnailURL
	}
	if len(updates) > 0 {
		if err := s.db.Model(ch).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(userID, id)
}

// Delete removes an owned channel with its videos, comments, reports and
// insights.
func (s *ChannelService) Delete(userID, id uuid.UUID) error {
	ch, err := s.Get(userID, id)
	if err != nil {
		return err
	}
	if ch.UserID != userID {
		return ErrChannelForbidden
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		videos := tx.Session(&gorm.Session{NewDB: true}).Model(&models.Video{}).Select("id").Where("channel_id = ?", id)
		if err := tx.Where("video_id IN (?)", videos).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("channel_id = ?", id).Delete(&models.Video{}).Error; err != nil {
			return err
		}
		if err := tx.Where("channel_id = ?", id).Delete(&models.Report{}).Error; err != nil {
			return err
		}
		if err := tx.Where("channel_id = ?", id).Delete(&models.AIInsight{}).Error; err != nil {
			return err
		}
		return tx.Delete(ch).Error
	})
}

// Share moves an owned channel into a team, or back out when teamID is nil.
func (s *ChannelService) Share(userID, id uuid.UUID, teamID *uuid.UUID) (*models.Channel, error) {
	ch, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	if ch.UserID != userID {
		return nil, ErrChannelForbidden
	}
	if teamID != nil {
		if !s.plans.HasFeature(planOf(s.db, s.plans, userID).ID, plans.FeatureTeamSharing) {
			return nil, ErrFeatureUnavailable
		}
		if !s.teams.Can(*teamID, userID, PermEdit) {
			return nil, ErrTeamForbidden
		}
	}
	if err := s.db.Model(ch).Update("team_id", teamID).Error; err != nil {
		return nil, err
	}
	return s.Get(userID, id)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
