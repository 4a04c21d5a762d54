package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AlertNewDevice     = "new_device_login"
	AlertDeviceEvicted = "device_evicted"
	AlertDeviceRevoked = "device_revoked"
)

// UserDevice is one browser or client a user has signed in from.
type UserDevice struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_device_user_fp,priority:1" json:"user_id"`
	Fingerprint string     `gorm:"size:64;not null;uniqueIndex:idx_device_user_fp,priority:2" json:"-"`
	Name        string     `gorm:"size:120" json:"name"`
	Platform    string     `gorm:"size:40" json:"platform"`
	UserAgent   string     `gorm:"size:500" json:"user_agent"`
	LastIP      string     `gorm:"size:64" json:"last_ip"`
	Trusted     bool       `gorm:"default:false" json:"trusted"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	LastSeenAt  time.Time  `gorm:"index" json:"last_seen_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (UserDevice) TableName() string { return "yt_user_devices" }

func (d *UserDevice) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (d UserDevice) Active() bool { return d.RevokedAt == nil }

type SecurityAlert struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	DeviceID       *uuid.UUID `gorm:"type:uuid" json:"device_id,omitempty"`
	Type           string     `gorm:"size:40;not null" json:"type"`
	Message        string     `gorm:"size:500" json:"message"`
	IP             string     `gorm:"size:64" json:"ip,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
}

func (SecurityAlert) TableName() string { return "yt_security_alerts" }

func (a *SecurityAlert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
