package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/plans"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EventInitialPurchase = "INITIAL_PURCHASE"
	EventRenewal         = "RENEWAL"
	EventCancellation    = "CANCELLATION"
	EventExpiration      = "EXPIRATION"
	EventProductChange   = "PRODUCT_CHANGE"
)

type SubscriptionService struct {
	db     *gorm.DB
	plans  *plans.Registry
	events *SyncService
}

func NewSubscriptionService(db *gorm.DB, registry *plans.Registry, events *SyncService) *SubscriptionService {
	return &SubscriptionService{db: db, plans: registry, events: events}
}

// HandleWebhookEvent applies one billing event. Unknown event types are
// acknowledged and ignored.
func (s *SubscriptionService) HandleWebhookEvent(event *dto.BillingEvent) error {
	if event.AppUserID == "" {
		return fmt.Errorf("%w: app_user_id is required", ErrInvalidInput)
	}
	switch event.Type {
	case EventInitialPurchase:
		return s.handlePurchase(event)
	case EventRenewal, EventProductChange:
		return s.handleRenewal(event)
	case EventCancellation:
		return s.handleCancellation(event)
	case EventExpiration:
		return s.handleExpiration(event)
	default:
		slog.Info("ignoring billing event", "type", event.Type, "id", event.ID)
		return nil
	}
}

func (s *SubscriptionService) planFor(productID string) string {
	if id, ok := s.plans.ForProduct(productID); ok {
		return id
	}
	slog.Warn("unknown billing product, keeping free plan", "product_id", productID)
	return plans.Free
}

func (s *SubscriptionService) userID(appUserID string) *uuid.UUID {
	id, err := uuid.Parse(appUserID)
	if err != nil {
		return nil
	}
	var user models.User
	if err := s.db.Select("id").Where("id = ?", id).First(&user).Error; err != nil {
		return nil
	}
	return &user.ID
}

func (s *SubscriptionService) handlePurchase(event *dto.BillingEvent) error {
	sub := models.Subscription{
		UserID:             s.userID(event.AppUserID),
		ExternalID:         event.AppUserID,
		ProductID:          event.ProductID,
		PlanID:             s.planFor(event.ProductID),
		Status:             models.SubscriptionActive,
		CurrentPeriodStart: msToTime(event.PurchasedAtMs),
		CurrentPeriodEnd:   msToTime(event.ExpirationAtMs),
	}
	if err := s.db.Create(&sub).Error; err != nil {
		return fmt.Errorf("failed to store subscription: %w", err)
	}
	return s.setUserPlan(sub.UserID, sub.PlanID)
}

func (s *SubscriptionService) latest(externalID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.Where("external_id = ?", externalID).Order("created_at DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *SubscriptionService) handleRenewal(event *dto.BillingEvent) error {
	sub, err := s.latest(event.AppUserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Renewal for a purchase we never saw; treat it as the first one.
		return s.handlePurchase(event)
	}
	if err != nil {
		return err
	}

	planID := s.planFor(event.ProductID)
	if err := s.db.Model(sub).Updates(map[string]interface{}{
		"status":               models.SubscriptionActive,
		"product_id":           event.ProductID,
		"plan_id":              planID,
		"current_period_start": msToTime(event.PurchasedAtMs),
		"current_period_end":   msToTime(event.ExpirationAtMs),
	}).Error; err != nil {
		return err
	}
	userID := sub.UserID
	if userID == nil {
		userID = s.userID(event.AppUserID)
	}
	return s.setUserPlan(userID, planID)
}

// Cancellation keeps the plan until the period ends; EXPIRATION drops it.
func (s *SubscriptionService) handleCancellation(event *dto.BillingEvent) error {
	return s.db.Model(&models.Subscription{}).
		Where("external_id = ?", event.AppUserID).
		Update("status", models.SubscriptionCancelled).Error
}

func (s *SubscriptionService) handleExpiration(event *dto.BillingEvent) error {
	if err := s.db.Model(&models.Subscription{}).
		Where("external_id = ?", event.AppUserID).
		Update("status", models.SubscriptionExpired).Error; err != nil {
		return err
	}
	return s.setUserPlan(s.userID(event.AppUserID), plans.Free)
}

func (s *SubscriptionService) setUserPlan(userID *uuid.UUID, planID string) error {
	if userID == nil {
		return nil
	}
	if err := s.db.Model(&models.User{}).Where("id = ?", *userID).Update("plan", planID).Error; err != nil {
		return fmt.Errorf("failed to update user plan: %w", err)
	}
	if s.events != nil {
		if err := s.events.Emit(*userID, nil, models.SyncPlanChanged, map[string]string{"plan": planID}); err != nil {
			slog.Warn("failed to emit plan change", "user_id", *userID, "error", err)
		}
	}
	return nil
}

// Active returns the user's newest active subscription, if any.
func (s *SubscriptionService) Active(userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
		Order("current_period_end DESC").First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func msToTime(ms int64) time.Time {
	return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond))
}
