package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/plans"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/trial"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrCurrentDevice  = errors.New("cannot revoke the device you are signed in from")
	ErrAlertNotFound  = errors.New("security alert not found")
)

// DeviceService keeps yt_user_devices in step with sign-ins and raises
// security alerts.
type DeviceService struct {
	db     *gorm.DB
	plans  *plans.Registry
	events *SyncService
}

func NewDeviceService(db *gorm.DB, registry *plans.Registry, events *SyncService) *DeviceService {
	return &DeviceService{db: db, plans: registry, events: events}
}

// RegisterLogin records a sign-in from info. A device the user has not used
// before raises a new_device_login alert unless it is the first one; a
// revoked device signing in again is re-activated. Devices over the plan's
// limit are evicted oldest first. Clients that send no fingerprint get one
// derived from their user agent, IP and Accept-Language.
func (s *DeviceService) RegisterLogin(user *models.User, info dto.DeviceInfo) (*models.UserDevice, error) {
	if info.Fingerprint == "" {
		info.Fingerprint = trial.Fingerprint("", info.UserAgent, info.IP, info.AcceptLanguage)
	}
	now := time.Now()

	var device models.UserDevice
	err := s.db.Where("user_id = ? AND fingerprint = ?", user.ID, info.Fingerprint).First(&device).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"user_agent":   info.UserAgent,
			"last_ip":      info.IP,
			"last_seen_at": now,
			"revoked_at":   nil,
		}
		if info.Name != "" {
			updates["name"] = info.Name
		}
		if info.Platform != "" {
			updates["platform"] = info.Platform
		}
		if err := s.db.Model(&device).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update device: %w", err)
		}
		device.RevokedAt = nil
		device.LastSeenAt = now
	case errors.Is(err, gorm.ErrRecordNotFound):
		var known int64
		s.db.Model(&models.UserDevice{}).Where("user_id = ? AND revoked_at IS NULL", user.ID).Count(&known)

		device = models.UserDevice{
			UserID:      user.ID,
			Fingerprint: info.Fingerprint,
			Name:        deviceName(info),
			Platform:    info.Platform,
			UserAgent:   info.UserAgent,
			LastIP:      info.IP,
			LastSeenAt:  now,
		}
		if err := s.db.Create(&device).Error; err != nil {
			return nil, fmt.Errorf("failed to create device: %w", err)
		}
		if known > 0 {
			s.alert(user.ID, &device.ID, models.AlertNewDevice,
				fmt.Sprintf("New sign-in from %s", device.Name), info.IP)
		}
	default:
		return nil, err
	}

	if err := s.enforceLimit(user, device.ID); err != nil {
		return nil, err
	}
	return &device, nil
}

func (s *DeviceService) enforceLimit(user *models.User, keep uuid.UUID) error {
	plan := s.plans.Get(user.Plan)
	if plan == nil || plan.MaxDevices <= 0 {
		return nil
	}

	var active []models.UserDevice
	if err := s.db.Where("user_id = ? AND revoked_at IS NULL", user.ID).
		Order("last_seen_at ASC").Find(&active).Error; err != nil {
		return err
	}

	excess := len(active) - plan.MaxDevices
	for _, d := range active {
		if excess <= 0 {
			break
		}
		if d.ID == keep {
			continue
		}
		if err := s.revoke(&d, models.AlertDeviceEvicted,
			fmt.Sprintf("%s was signed out because the %s plan allows %d devices", d.Name, plan.Name, plan.MaxDevices)); err != nil {
			return err
		}
		excess--
	}
	return nil
}

func (s *DeviceService) revoke(d *models.UserDevice, alertType, message string) error {
	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(d).Update("revoked_at", now).Error; err != nil {
			return err
		}
		return tx.Model(&models.RefreshToken{}).
			Where("device_id = ? AND revoked = ?", d.ID, false).
			Update("revoked", true).Error
	})
	if err != nil {
		return fmt.Errorf("failed to revoke device: %w", err)
	}
	d.RevokedAt = &now
	s.alert(d.UserID, &d.ID, alertType, message, "")
	if err := s.events.Emit(d.UserID, nil, models.SyncDeviceRevoked, map[string]string{"device_id": d.ID.String()}); err != nil {
		slog.Warn("failed to emit device revoke event", "device_id", d.ID, "error", err)
	}
	return nil
}

func (s *DeviceService) alert(userID uuid.UUID, deviceID *uuid.UUID, typ, message, ip string) {
	a := models.SecurityAlert{UserID: userID, DeviceID: deviceID, Type: typ, Message: message, IP: ip}
	if err := s.db.Create(&a).Error; err != nil {
		slog.Error("failed to record security alert", "user_id", userID, "type", typ, "error", err)
	}
}

func (s *DeviceService) List(userID uuid.UUID) ([]models.UserDevice, error) {
	var devices []models.UserDevice
	err := s.db.Where("user_id = ?", userID).Order("last_seen_at DESC").Find(&devices).Error
	return devices, err
}

func (s *DeviceService) get(userID, id uuid.UUID) (*models.UserDevice, error) {
	var d models.UserDevice
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&d).Error; err != nil {
		return nil, ErrDeviceNotFound
	}
	return &d, nil
}

func (s *DeviceService) Update(userID, id uuid.UUID, req *dto.UpdateDeviceRequest) (*models.UserDevice, error) {
	d, err := s.get(userID, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Trusted != nil {
		updates["trusted"] = *req.Trusted
	}
	if len(updates) > 0 {
		if err := s.db.Model(d).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.get(userID, id)
}

// Revoke signs a device out. The caller's own device cannot be revoked here;
// that is what logout is for.
func (s *DeviceService) Revoke(userID, id uuid.UUID, current *uuid.UUID) error {
	if current != nil && *current == id {
		return ErrCurrentDevice
	}
	d, err := s.get(userID, id)
	if err != nil {
		return err
	}
	if !d.Active() {
		return nil
	}
	return s.revoke(d, models.AlertDeviceRevoked, fmt.Sprintf("%s was signed out", d.Name))
}

func (s *DeviceService) IsActive(id uuid.UUID) bool {
	var d models.UserDevice
	if err := s.db.Select("id", "revoked_at").First(&d, "id = ?", id).Error; err != nil {
		return false
	}
	return d.Active()
}

func (s *DeviceService) Touch(id *uuid.UUID) {
	if id == nil {
		return
	}
	s.db.Model(&models.UserDevice{}).Where("id = ?", *id).Update("last_seen_at", time.Now())
}

func (s *DeviceService) Alerts(userID uuid.UUID, unreadOnly bool) ([]models.SecurityAlert, error) {
	q := s.db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("acknowledged_at IS NULL")
	}
	var alerts []models.SecurityAlert
	err := q.Order("created_at DESC").Limit(100).Find(&alerts).Error
	return alerts, err
}

func (s *DeviceService) AckAlert(userID, id uuid.UUID) error {
	res := s.db.Model(&models.SecurityAlert{}).
		Where("id = ? AND user_id = ? AND acknowledged_at IS NULL", id, userID).
		Update("acknowledged_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		s.db.Model(&models.SecurityAlert{}).Where("id = ? AND user_id = ?", id, userID).Count(&n)
		if n == 0 {
			return ErrAlertNotFound
		}
	}
	return nil
}

func deviceName(info dto.DeviceInfo) string {
	if info.Name != "" {
		return info.Name
	}
	if info.Platform != "" {
		return info.Platform + " device"
	}
	return "Unknown device"
}
