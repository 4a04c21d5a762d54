package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingHandler struct{}

func (failingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("boom") }
func (f failingHandler) WithAttrs([]slog.Attr) slog.Handler      { return f }
func (f failingHandler) WithGroup(string) slog.Handler           { return f }

func TestMultiHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMultiHandler(failingHandler{}, slog.NewJSONHandler(&buf, nil)))

	logger.With("request_id", "r1").Info("channel synced", "videos", 3)

	assert.Contains(t, buf.String(), `"msg":"channel synced"`)
	assert.Contains(t, buf.String(), `"request_id":"r1"`)
}

func TestPGHandlerPersistsErrors(t *testing.T) {
	db := testutil.NewDB(t)
	h := newPGHandler(db, time.Hour)
	logger := slog.New(h).With("request_id", "req-9")

	logger.Info("ignored")
	logger.Error("sync failed", "user_id", "u-1", "error", "quota exceeded", "latency_ms", 42, "channel", "UC1")
	h.Stop()

	var logs []models.SystemLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "sync failed", logs[0].Message)
	assert.Equal(t, "req-9", logs[0].RequestID)
	assert.Equal(t, "quota exceeded", logs[0].Error)
	assert.Equal(t, 42, logs[0].LatencyMs)
	require.NotNil(t, logs[0].UserID)
	assert.Contains(t, string(logs[0].Extra), "UC1")
}

func TestRunCleanup(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now()
	user := testutil.CreateUser(t, db, "a@example.com", "free")

	require.NoError(t, db.Create(&models.SystemLog{Timestamp: now.AddDate(0, 0, -40), Level: "ERROR"}).Error)
	require.NoError(t, db.Create(&models.SystemLog{Timestamp: now.AddDate(0, 0, -1), Level: "ERROR"}).Error)
	require.NoError(t, db.Create(&models.RefreshToken{UserID: user.ID, TokenHash: uuid.NewString(), ExpiresAt: now.Add(-time.Minute)}).Error)
	require.NoError(t, db.Create(&models.RefreshToken{UserID: user.ID, TokenHash: uuid.NewString(), ExpiresAt: now.Add(time.Hour)}).Error)

	deleted := RunCleanup(db, DefaultRules(), now)

	assert.Equal(t, int64(1), deleted["system_logs"])
	assert.Equal(t, int64(1), deleted["refresh_tokens"])
	var remaining int64
	db.Model(&models.SystemLog{}).Count(&remaining)
	assert.Equal(t, int64(1), remaining)
}
