package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"

	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account in yt_users. Plan mirrors the active subscription and
// falls back to "free".
type User struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email         string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password      string         `gorm:"not null" json:"-"`
	DisplayName   string         `gorm:"size:120" json:"display_name"`
	AvatarURL     string         `gorm:"size:500" json:"avatar_url,omitempty"`
	Role          string         `gorm:"size:20;default:'user'" json:"role"`
	Plan          string         `gorm:"size:30;default:'free'" json:"plan"`
	GoogleSubject *string        `gorm:"size:255;index" json:"-"`
	AuthProvider  string         `gorm:"size:50;default:'email'" json:"auth_provider"`
	Locale        string         `gorm:"size:10" json:"locale"`
	Timezone      string         `gorm:"size:64" json:"timezone"`
	Preferences   datatypes.JSON `json:"preferences"`
	LastLoginAt   *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "yt_users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Plan == "" {
		u.Plan = "free"
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}
