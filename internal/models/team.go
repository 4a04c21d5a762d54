package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TeamRoleOwner  = "owner"
	TeamRoleAdmin  = "admin"
	TeamRoleEditor = "editor"
	TeamRoleViewer = "viewer"
)

type Team struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name      string       `gorm:"size:120;not null" json:"name"`
	Slug      string       `gorm:"size:140;uniqueIndex" json:"slug"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Members   []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

func (Team) TableName() string { return "yt_teams" }

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TeamMember links a user to a team. Permissions, when set, override the
// defaults of Role.
type TeamMember struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TeamID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_team_member,priority:1" json:"team_id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_team_member,priority:2;index" json:"user_id"`
	Role        string         `gorm:"size:20;not null" json:"role"`
	Permissions datatypes.JSON `json:"permissions"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	User        *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (TeamMember) TableName() string { return "yt_team_members" }

func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
