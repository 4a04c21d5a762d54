package logging

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"gorm.io/gorm"
)

// RetentionRule deletes rows of Model whose Column is older than now-MaxAge.
// Column values in the future are kept, so a zero MaxAge on an expiry column
// purges everything already expired.
type RetentionRule struct {
	Name   string
	Model  interface{}
	Column string
	MaxAge time.Duration
}

// DefaultRules is the daily housekeeping set.
func DefaultRules() []RetentionRule {
	return []RetentionRule{
		{Name: "system_logs", Model: &models.SystemLog{}, Column: "timestamp", MaxAge: 30 * 24 * time.Hour},
		{Name: "sync_events", Model: &models.SyncEvent{}, Column: "created_at", MaxAge: 14 * 24 * time.Hour},
		{Name: "refresh_tokens", Model: &models.RefreshToken{}, Column: "expires_at"},
		{Name: "anonymous_trials", Model: &models.AnonymousTrial{}, Column: "expires_at"},
	}
}

// RunCleanup applies each rule once and returns rows deleted per rule.
func RunCleanup(db *gorm.DB, rules []RetentionRule, now time.Time) map[string]int64 {
	deleted := make(map[string]int64, len(rules))
	for _, rule := range rules {
		cutoff := now.Add(-rule.MaxAge)
		result := db.Where(rule.Column+" < ?", cutoff).Delete(rule.Model)
		if result.Error != nil {
			slog.Error("retention cleanup failed", "rule", rule.Name, "error", result.Error)
			continue
		}
		deleted[rule.Name] = result.RowsAffected
		if result.RowsAffected > 0 {
			slog.Info("retention cleanup completed", "rule", rule.Name, "deleted", result.RowsAffected)
		}
	}
	return deleted
}

// StartCleanup runs RunCleanup daily until done is closed.
func StartCleanup(db *gorm.DB, rules []RetentionRule, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				RunCleanup(db, rules, time.Now())
			case <-done:
				return
			}
		}
	}()
}
