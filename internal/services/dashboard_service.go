package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/analytics"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrDashboardNotFound = errors.New("dashboard not found")

type DashboardService struct {
	db       *gorm.DB
	channels *ChannelService
	videos   *VideoService
	events   *SyncService
}

func NewDashboardService(db *gorm.DB, channels *ChannelService, videos *VideoService, events *SyncService) *DashboardService {
	return &DashboardService{db: db, channels: channels, videos: videos, events: events}
}

func (s *DashboardService) List(userID uuid.UUID) ([]models.Dashboard, error) {
	var dashboards []models.Dashboard
	err := s.db.Scopes(tenant.ForUser(userID)).Order("is_default DESC, created_at ASC").Find(&dashboards).Error
	return dashboards, err
}

func (s *DashboardService) Get(userID, id uuid.UUID) (*models.Dashboard, error) {
	var d models.Dashboard
	if err := s.db.Scopes(tenant.ForUser(userID)).First(&d, "id = ?", id).Error; err != nil {
		return nil, ErrDashboardNotFound
	}
	return &d, nil
}

func validateDashboard(req *dto.DashboardRequest) (datatypes.JSON, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 120 {
		return nil, fmt.Errorf("%w: name must be 1-120 characters", ErrInvalidInput)
	}
	req.Name = name
	if len(req.Layout) == 0 {
		return datatypes.JSON("{}"), nil
	}
	if !json.Valid(req.Layout) {
		return nil, fmt.Errorf("%w: layout must be JSON", ErrInvalidInput)
	}
	return datatypes.JSON(req.Layout), nil
}

// Create stores a dashboard. The user's first dashboard is always the
// default one.
func (s *DashboardService) Create(userID uuid.UUID, deviceID *uuid.UUID, req *dto.DashboardRequest) (*models.Dashboard, error) {
	layout, err := validateDashboard(req)
	if err != nil {
		return nil, err
	}
	var count int64
	s.db.Model(&models.Dashboard{}).Scopes(tenant.ForUser(userID)).Count(&count)

	d := models.Dashboard{UserID: userID, Name: req.Name, Layout: layout, IsDefault: req.IsDefault || count == 0}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if d.IsDefault {
			if err := clearDefault(tx, userID); err != nil {
				return err
			}
		}
		return tx.Create(&d).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard: %w", err)
	}
	s.notify(userID, deviceID, d.ID, "created")
	return &d, nil
}

func (s *DashboardService) Update(userID, id uuid.UUID, deviceID *uuid.UUID, req *dto.DashboardRequest) (*models.Dashboard, error) {
	d, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	layout, err := validateDashboard(req)
	if err != nil {
		return nil, err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault && !d.IsDefault {
			if err := clearDefault(tx, userID); err != nil {
				return err
			}
		}
		updates := map[string]interface{}{"name": req.Name, "layout": layout}
		if req.IsDefault {
			updates["is_default"] = true
		}
		return tx.Model(d).Updates(updates).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update dashboard: %w", err)
	}
	s.notify(userID, deviceID, id, "updated")
	return s.Get(userID, id)
}

// Delete removes a dashboard and promotes the oldest remaining one when the
// default was deleted.
func (s *DashboardService) Delete(userID, id uuid.UUID, deviceID *uuid.UUID) error {
	d, err := s.Get(userID, id)
	if err != nil {
		return err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(d).Error; err != nil {
			return err
		}
		if !d.IsDefault {
			return nil
		}
		var next models.Dashboard
		if err := tx.Scopes(tenant.ForUser(userID)).Order("created_at ASC").First(&next).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		return tx.Model(&next).Update("is_default", true).Error
	})
	if err != nil {
		return err
	}
	s.notify(userID, deviceID, id, "deleted")
	return nil
}

func clearDefault(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Model(&models.Dashboard{}).Where("user_id = ? AND is_default = ?", userID, true).Update("is_default", false).Error
}

func (s *DashboardService) notify(userID uuid.UUID, deviceID *uuid.UUID, id uuid.UUID, action string) {
	_ = s.events.Emit(userID, deviceID, models.SyncDashboardUpdated, map[string]string{
		"dashboard_id": id.String(),
		"action":       action,
	})
}

type ChannelTotals struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	ThumbnailURL    string     `json:"thumbnail_url"`
	SubscriberCount int64      `json:"subscriber_count"`
	Videos          int        `json:"videos"`
	Views           int64      `json:"views"`
	EngagementRate  float64    `json:"engagement_rate"`
	Stale           bool       `json:"stale"`
	LastSyncedAt    *time.Time `json:"last_synced_at"`
}

type Overview struct {
	Channels      int               `json:"channels"`
	Subscribers   int64             `json:"subscribers"`
	Summary       analytics.Summary `json:"summary"`
	PerChannel    []ChannelTotals   `json:"per_channel"`
	LatestReports []models.Report   `json:"latest_reports"`
	UnreadAlerts  int64             `json:"unread_alerts"`
}

// Overview aggregates everything the user can see. Database errors are
// returned, never papered over with placeholder numbers.
func (s *DashboardService) Overview(userID uuid.UUID) (*Overview, error) {
	var channels []models.Channel
	if err := s.db.Scopes(tenant.AccessibleChannels(userID)).Order("title ASC").Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("failed to load channels: %w", err)
	}

	ids := make([]uuid.UUID, len(channels))
	for i, ch := range channels {
		ids[i] = ch.ID
	}
	videos, err := s.videos.ForChannels(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load videos: %w", err)
	}

	byChannel := map[uuid.UUID][]models.Video{}
	for _, v := range videos {
		byChannel[v.ChannelID] = append(byChannel[v.ChannelID], v)
	}

	out := &Overview{
		Channels:   len(channels),
		Summary:    analytics.Summarize(videos, 5),
		PerChannel: make([]ChannelTotals, 0, len(channels)),
	}
	for _, ch := range channels {
		sum := analytics.Summarize(byChannel[ch.ID], 0)
		out.Subscribers += ch.SubscriberCount
		out.PerChannel = append(out.PerChannel, ChannelTotals{
			ID:              ch.ID,
			Title:           ch.Title,
			ThumbnailURL:    ch.ThumbnailURL,
			SubscriberCount: ch.SubscriberCount,
			Videos:          sum.VideoCount,
			Views:           sum.TotalViews,
			EngagementRate:  sum.EngagementRate,
			Stale:           ch.SyncError != "",
			LastSyncedAt:    ch.LastSyncedAt,
		})
	}

	if err := s.db.Scopes(tenant.ForUser(userID)).Omit("content").
		Order("created_at DESC").Limit(5).Find(&out.LatestReports).Error; err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}
	if out.LatestReports == nil {
		out.LatestReports = []models.Report{}
	}
	if err := s.db.Model(&models.SecurityAlert{}).
		Where("user_id = ? AND acknowledged_at IS NULL", userID).Count(&out.UnreadAlerts).Error; err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}
	return out, nil
}
