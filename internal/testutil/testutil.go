// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/config"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/database"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "test-secret-with-enough-entropy-0123456789"

// NewDB opens a migrated in-memory SQLite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func Config() *config.Config {
	return &config.Config{
		JWTSecret:            JWTSecret,
		JWTAccessExpiry:      15 * time.Minute,
		JWTRefreshExpiry:     24 * time.Hour,
		SessionRefreshMargin: 2 * time.Minute,
		AnonTrialLimit:       3,
		AnonTrialTTL:         24 * time.Hour,
		DefaultLocale:        "en",
		CORSOrigins:          "*",
		BillingWebhookSecret: "Bearer hook-secret",
	}
}

// CreateUser inserts a user on the given plan.
func CreateUser(t testing.TB, db *gorm.DB, email, plan string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Password: "x", Plan: plan, AuthProvider: models.ProviderEmail}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Token signs an access token the way the auth service does.
func Token(t testing.TB, user *models.User, deviceID *uuid.UUID) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"plan":  user.Plan,
		"role":  user.Role,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(15 * time.Minute).Unix(),
	}
	if deviceID != nil {
		claims["did"] = deviceID.String()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(JWTSecret))
	require.NoError(t, err)
	return s
}
