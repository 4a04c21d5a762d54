package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/i18n"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUnsupportedLocale = errors.New("unsupported locale")
	ErrUnknownKey        = errors.New("unknown translation key")
)

type TranslationService struct {
	db      *gorm.DB
	catalog *i18n.Catalog
}

func NewTranslationService(db *gorm.DB, catalog *i18n.Catalog) *TranslationService {
	return &TranslationService{db: db, catalog: catalog}
}

func (s *TranslationService) check(locale, key string) error {
	if !s.catalog.Supported(locale) {
		return ErrUnsupportedLocale
	}
	if _, ok := s.catalog.Base(s.catalog.Default())[key]; !ok {
		return ErrUnknownKey
	}
	return nil
}

// Set stores an override and applies it to the live catalog.
func (s *TranslationService) Set(locale, key, value string) (*models.Translation, error) {
	if err := s.check(locale, key); err != nil {
		return nil, err
	}
	if strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("%w: value is required", ErrInvalidInput)
	}

	row := models.Translation{Locale: locale, Key: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "locale"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to store translation: %w", err)
	}
	s.catalog.SetOverride(locale, key, value)
	return &row, nil
}

func (s *TranslationService) Delete(locale, key string) error {
	if err := s.check(locale, key); err != nil {
		return err
	}
	if err := s.db.Where("locale = ? AND key = ?", locale, key).Delete(&models.Translation{}).Error; err != nil {
		return err
	}
	s.catalog.DeleteOverride(locale, key)
	return nil
}

func (s *TranslationService) List(locale string) ([]models.Translation, error) {
	var rows []models.Translation
	q := s.db.Order("locale, key")
	if locale != "" {
		q = q.Where("locale = ?", locale)
	}
	return rows, q.Find(&rows).Error
}
