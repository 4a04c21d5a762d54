package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/i18n"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserService struct {
	db      *gorm.DB
	catalog *i18n.Catalog
	events  *SyncService
}

func NewUserService(db *gorm.DB, catalog *i18n.Catalog, events *SyncService) *UserService {
	return &UserService{db: db, catalog: catalog, events: events}
}

func (s *UserService) Get(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

// UpdateProfile applies the non-nil fields and notifies the user's other
// devices.
func (s *UserService) UpdateProfile(userID uuid.UUID, deviceID *uuid.UUID, req *dto.UpdateProfileRequest) (*models.User, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" || len(name) > 120 {
			return nil, fmt.Errorf("%w: display_name must be 1-120 characters", ErrInvalidInput)
		}
		updates["display_name"] = name
	}
	if req.Locale != nil {
		if s.catalog != nil && !s.catalog.Supported(*req.Locale) {
			return nil, fmt.Errorf("%w: unsupported locale %q", ErrInvalidInput, *req.Locale)
		}
		updates["locale"] = *req.Locale
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, *req.Timezone)
		}
		updates["timezone"] = *req.Timezone
	}
	if len(req.Preferences) > 0 {
		var obj map[string]interface{}
		if err := json.Unmarshal(req.Preferences, &obj); err != nil {
			return nil, fmt.Errorf("%w: preferences must be a JSON object", ErrInvalidInput)
		}
		updates["preferences"] = datatypes.JSON(req.Preferences)
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	changed := make([]string, 0, len(updates))
	for k := range updates {
		changed = append(changed, k)
	}
	_ = s.events.Emit(userID, deviceID, models.SyncProfileUpdated, map[string]interface{}{"fields": changed})

	return s.Get(userID)
}
