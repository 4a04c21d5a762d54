package services

import (
	"encoding/json"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxSyncBatch = 100

// SyncService is the per-user change feed other devices poll.
type SyncService struct {
	db *gorm.DB
}

func NewSyncService(db *gorm.DB) *SyncService {
	return &SyncService{db: db}
}

// Emit appends an event. deviceID is the originating device; that device
// will not receive it back.
func (s *SyncService) Emit(userID uuid.UUID, deviceID *uuid.UUID, typ string, payload interface{}) error {
	if typ == "" || len(typ) > 40 {
		return fmt.Errorf("%w: event type must be 1-40 characters", ErrInvalidInput)
	}
	var raw []byte
	switch p := payload.(type) {
	case nil:
		raw = []byte("{}")
	case json.RawMessage:
		raw = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("%w: payload is not serialisable", ErrInvalidInput)
		}
		raw = b
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if !json.Valid(raw) {
		return fmt.Errorf("%w: payload must be JSON", ErrInvalidInput)
	}

	ev := models.SyncEvent{UserID: userID, DeviceID: deviceID, Type: typ, Payload: datatypes.JSON(raw)}
	return s.db.Create(&ev).Error
}

// Since returns up to limit events after cursor that did not originate from
// deviceID, oldest first, and the cursor for the next poll.
func (s *SyncService) Since(userID uuid.UUID, deviceID *uuid.UUID, cursor uint64, limit int) ([]models.SyncEvent, uint64, error) {
	if limit <= 0 || limit > maxSyncBatch {
		limit = maxSyncBatch
	}
	q := s.db.Where("user_id = ? AND id > ?", userID, cursor)
	if deviceID != nil {
		q = q.Where("device_id IS NULL OR device_id <> ?", *deviceID)
	}

	var events []models.SyncEvent
	if err := q.Order("id ASC").Limit(limit).Find(&events).Error; err != nil {
		return nil, cursor, err
	}
	next := cursor
	if len(events) > 0 {
		next = events[len(events)-1].ID
	}
	return events, next, nil
}

// Latest is the newest event id of the user, used to seed a fresh client.
func (s *SyncService) Latest(userID uuid.UUID) uint64 {
	var ev models.SyncEvent
	if err := s.db.Where("user_id = ?", userID).Order("id DESC").First(&ev).Error; err != nil {
		return 0
	}
	return ev.ID
}
