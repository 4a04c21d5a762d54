package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AnonymousTrial persists the trial counter of an unauthenticated visitor.
type AnonymousTrial struct {
	Fingerprint     string         `gorm:"primaryKey;size:64" json:"fingerprint"`
	Remaining       int            `json:"remaining"`
	Limit           int            `gorm:"column:trial_limit" json:"limit"`
	Actions         datatypes.JSON `json:"actions"`
	Version         string         `gorm:"size:10" json:"version"`
	ConvertedUserID *uuid.UUID     `gorm:"type:uuid" json:"converted_user_id,omitempty"`
	ExpiresAt       time.Time      `gorm:"index" json:"expires_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	CreatedAt       time.Time      `json:"created_at"`
}

func (AnonymousTrial) TableName() string { return "yt_anonymous_trials" }
