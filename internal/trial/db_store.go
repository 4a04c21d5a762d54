package trial

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore persists trials in yt_anonymous_trials.
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (d *DBStore) Name() string { return "database" }

func (d *DBStore) Load(ctx context.Context, fingerprint string) (*Status, error) {
	var row models.AnonymousTrial
	err := d.db.WithContext(ctx).First(&row, "fingerprint = ?", fingerprint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trial: %w", err)
	}
	return fromRow(row), nil
}

func (d *DBStore) Save(ctx context.Context, s *Status) error {
	row, err := toRow(s)
	if err != nil {
		return err
	}
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fingerprint"}},
		DoUpdates: clause.AssignmentColumns([]string{"remaining", "trial_limit", "actions", "version", "converted_user_id", "expires_at", "updated_at"}),
	}).Create(&row).Error
}

// List returns the most recently updated trials.
func (d *DBStore) List(ctx context.Context, limit int) ([]*Status, error) {
	var rows []models.AnonymousTrial
	if err := d.db.WithContext(ctx).Order("updated_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list trials: %w", err)
	}
	out := make([]*Status, len(rows))
	for i, r := range rows {
		out[i] = fromRow(r)
	}
	return out, nil
}

func toRow(s *Status) (models.AnonymousTrial, error) {
	actions, err := json.Marshal(s.Actions)
	if err != nil {
		return models.AnonymousTrial{}, fmt.Errorf("failed to encode trial actions: %w", err)
	}
	return models.AnonymousTrial{
		Fingerprint:     s.Fingerprint,
		Remaining:       s.Remaining,
		Limit:           s.Limit,
		Actions:         datatypes.JSON(actions),
		Version:         s.Version,
		ConvertedUserID: s.ConvertedUserID,
		ExpiresAt:       s.ExpiresAt,
		UpdatedAt:       s.UpdatedAt,
	}, nil
}

func fromRow(r models.AnonymousTrial) *Status {
	s := &Status{
		Fingerprint:     r.Fingerprint,
		Remaining:       r.Remaining,
		Limit:           r.Limit,
		Version:         r.Version,
		UpdatedAt:       r.UpdatedAt,
		ExpiresAt:       r.ExpiresAt,
		ConvertedUserID: r.ConvertedUserID,
	}
	if len(r.Actions) > 0 {
		if err := json.Unmarshal(r.Actions, &s.Actions); err != nil {
			slog.Warn("dropping unreadable trial action log", "fingerprint", r.Fingerprint, "error", err)
			s.Actions = nil
		}
	}
	return s
}
