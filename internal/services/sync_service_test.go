package services

import (
	"encoding/json"
	"testing"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/plans"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncCursor(t *testing.T) {
	e := newEnv(t, nil)
	user := testutil.CreateUser(t, e.db, "cursor@example.com", plans.Free)
	laptop, phone := uuid.New(), uuid.New()

	require.NoError(t, e.events.Emit(user.ID, &laptop, "note", json.RawMessage(`{"n":1}`)))
	require.NoError(t, e.events.Emit(user.ID, &phone, "note", map[string]int{"n": 2}))
	require.NoError(t, e.events.Emit(user.ID, nil, "note", nil))

	assert.ErrorIs(t, e.events.Emit(user.ID, nil, "", nil), ErrInvalidInput)
	assert.ErrorIs(t, e.events.Emit(user.ID, nil, "note", json.RawMessage(`{oops`)), ErrInvalidInput)

	events, next, err := e.events.Since(user.ID, &laptop, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.JSONEq(t, `{"n":2}`, string(events[0].Payload))
	assert.JSONEq(t, `{}`, string(events[1].Payload))
	assert.Equal(t, e.events.Latest(user.ID), next)

	events, again, err := e.events.Since(user.ID, &laptop, next, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, next, again)

	events, _, err = e.events.Since(uuid.New(), nil, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, events, "feeds are per user")
}

func TestUpdateProfile(t *testing.T) {
	e := newEnv(t, nil)
	user := testutil.CreateUser(t, e.db, "prof@example.com", plans.Free)
	device := uuid.New()

	name, locale, tz := "Ada", "tr", "Europe/Istanbul"
	got, err := e.users.UpdateProfile(user.ID, &device, &dto.UpdateProfileRequest{
		DisplayName: &name, Locale: &locale, Timezone: &tz,
		Preferences: json.RawMessage(`{"theme":"dark"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.DisplayName)
	assert.Equal(t, "tr", got.Locale)
	assert.JSONEq(t, `{"theme":"dark"}`, string(got.Preferences))

	bad := "xx"
	_, err = e.users.UpdateProfile(user.ID, nil, &dto.UpdateProfileRequest{Locale: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)
	badTZ := "Mars/Olympus"
	_, err = e.users.UpdateProfile(user.ID, nil, &dto.UpdateProfileRequest{Timezone: &badTZ})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.users.UpdateProfile(user.ID, nil, &dto.UpdateProfileRequest{Preferences: json.RawMessage(`[1]`)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	events, _, err := e.events.Since(user.ID, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.SyncProfileUpdated, events[0].Type)
	require.NotNil(t, events[0].DeviceID)
	assert.Equal(t, device, *events[0].DeviceID)
}
