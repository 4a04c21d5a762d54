package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AIInsight is one generated insight batch for a channel.
type AIInsight struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	ChannelID uuid.UUID      `gorm:"type:uuid;not null;index" json:"channel_id"`
	Summary   string         `gorm:"type:text" json:"summary"`
	Findings  datatypes.JSON `json:"findings"`
	Source    string         `gorm:"size:20" json:"source"`
	Model     string         `gorm:"size:60" json:"model,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (AIInsight) TableName() string { return "yt_ai_insights" }

func (i *AIInsight) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
