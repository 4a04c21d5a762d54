package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

// Subscription is the billing provider's view of a user's plan.
type Subscription struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	ExternalID         string     `gorm:"index;size:255" json:"external_id"`
	ProductID          string     `gorm:"size:255" json:"product_id"`
	PlanID             string     `gorm:"size:30" json:"plan_id"`
	Status             string     `gorm:"not null;default:'inactive';size:50" json:"status"`
	CurrentPeriodStart time.Time  `json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string { return "yt_subscriptions" }

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
