package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/plans"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrUnknownPlan = errors.New("unknown plan")

const maxLogRows = 500

type AdminService struct {
	db     *gorm.DB
	plans  *plans.Registry
	events *SyncService
}

func NewAdminService(db *gorm.DB, registry *plans.Registry, events *SyncService) *AdminService {
	return &AdminService{db: db, plans: registry, events: events}
}

func (s *AdminService) ListUsers(search string, page, limit int) ([]models.User, int64, error) {
	q := s.db.Model(&models.User{})
	if search = strings.TrimSpace(strings.ToLower(search)); search != "" {
		like := "%" + search + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(display_name) LIKE ?", like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := q.Order("created_at DESC").Scopes(tenant.Paginate(page, limit)).Find(&users).Error
	return users, total, err
}

// SetPlan overrides a user's plan outside of billing.
func (s *AdminService) SetPlan(userID uuid.UUID, planID string) (*models.User, error) {
	if !s.plans.Exists(planID) {
		return nil, ErrUnknownPlan
	}
	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if err := s.db.Model(&user).Update("plan", planID).Error; err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	user.Plan = planID
	if err := s.events.Emit(user.ID, nil, models.SyncPlanChanged, map[string]string{"plan": planID}); err != nil {
		slog.Warn("failed to emit plan change", "user_id", user.ID, "error", err)
	}
	return &user, nil
}

func (s *AdminService) Logs(level string, limit int) ([]models.SystemLog, error) {
	if limit <= 0 || limit > maxLogRows {
		limit = 100
	}
	q := s.db.Order("timestamp DESC").Limit(limit)
	if level != "" {
		q = q.Where("level = ?", strings.ToUpper(level))
	}
	var logs []models.SystemLog
	return logs, q.Find(&logs).Error
}
