package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Translation overrides one key of an embedded locale catalog.
type Translation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Locale    string    `gorm:"size:10;not null;uniqueIndex:idx_translation_locale_key,priority:1" json:"locale"`
	Key       string    `gorm:"size:150;not null;uniqueIndex:idx_translation_locale_key,priority:2" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Translation) TableName() string { return "yt_translations" }

func (t *Translation) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
