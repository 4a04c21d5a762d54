package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SyncProfileUpdated   = "profile_updated"
	SyncDashboardUpdated = "dashboard_updated"
	SyncDeviceRevoked    = "device_revoked"
	SyncLogoutAll        = "logout_all"
	SyncPlanChanged      = "plan_changed"
)

// SyncEvent is a per-user change notification. ID is monotonic and doubles
// as the polling cursor.
type SyncEvent struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_sync_user_id,priority:1" json:"user_id"`
	DeviceID  *uuid.UUID     `gorm:"type:uuid" json:"device_id,omitempty"`
	Type      string         `gorm:"size:40;not null" json:"type"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (SyncEvent) TableName() string { return "yt_sync_events" }
