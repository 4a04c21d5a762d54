package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func register(t *testing.T, e *env, email, fingerprint string) *dto.AuthResponse {
	t.Helper()
	resp, err := e.auth.Register(&dto.RegisterRequest{
		Email:      email,
		Password:   "password123",
		DeviceInfo: dto.DeviceInfo{Fingerprint: fingerprint, Platform: "web"},
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t, nil)

	resp := register(t, e, " Ada@Example.com ", "fp-1")
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, "ada", resp.User.DisplayName)
	assert.Equal(t, "free", resp.User.Plan)
	require.NotNil(t, resp.DeviceID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	_, err := e.auth.Register(&dto.RegisterRequest{Email: "ada@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = e.auth.Register(&dto.RegisterRequest{Email: "bob@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.auth.Login(&dto.LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := e.auth.Login(&dto.LoginRequest{Email: "ADA@example.com", Password: "password123",
		DeviceInfo: dto.DeviceInfo{Fingerprint: "fp-1"}})
	require.NoError(t, err)
	assert.Equal(t, *resp.DeviceID, *login.DeviceID, "same fingerprint, same device")

	token, _, err := jwt.NewParser().ParseUnverified(login.AccessToken, jwt.MapClaims{})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, resp.User.ID.String(), claims["sub"])
	assert.Equal(t, resp.DeviceID.String(), claims["did"])
}

func TestRefreshRotates(t *testing.T) {
	e := newEnv(t, nil)
	resp := register(t, e, "rot@example.com", "fp")

	next, err := e.auth.Refresh(&dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, next.RefreshToken)

	_, err = e.auth.Refresh(&dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken, "a used refresh token is dead")

	require.NoError(t, e.auth.Logout(&dto.LogoutRequest{RefreshToken: next.RefreshToken}))
	_, err = e.auth.Refresh(&dto.RefreshRequest{RefreshToken: next.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDeviceAlertsAndEviction(t *testing.T) {
	e := newEnv(t, nil)
	first := register(t, e, "dev@example.com", "fp-1")
	userID := first.User.ID

	alerts, err := e.devices.Alerts(userID, true)
	require.NoError(t, err)
	assert.Empty(t, alerts, "first device raises nothing")

	login := func(fp string) *dto.AuthResponse {
		resp, err := e.auth.Login(&dto.LoginRequest{Email: "dev@example.com", Password: "password123",
			DeviceInfo: dto.DeviceInfo{Fingerprint: fp, Name: fp}})
		require.NoError(t, err)
		return resp
	}

	login("fp-2")
	alerts, err = e.devices.Alerts(userID, true)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertNewDevice, alerts[0].Type)

	// The free plan allows two devices; the least recently seen one goes.
	require.NoError(t, e.db.Model(&models.UserDevice{}).Where("id = ?", *first.DeviceID).
		Update("last_seen_at", time.Now().Add(-time.Hour)).Error)
	login("fp-3")

	assert.False(t, e.devices.IsActive(*first.DeviceID))
	_, err = e.auth.Refresh(&dto.RefreshRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	var evicted int64
	e.db.Model(&models.SecurityAlert{}).Where("user_id = ? AND type = ?", userID, models.AlertDeviceEvicted).Count(&evicted)
	assert.Equal(t, int64(1), evicted)

	events, _, err := e.events.Since(userID, nil, 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, models.SyncDeviceRevoked, events[len(events)-1].Type)

	// Signing in again from the evicted device brings it back.
	again := login("fp-1")
	assert.Equal(t, *first.DeviceID, *again.DeviceID)
	assert.True(t, e.devices.IsActive(*first.DeviceID))
}

func TestSignInWithoutFingerprint(t *testing.T) {
	e := newEnv(t, nil)
	first := register(t, e, "nofp@example.com", "")
	require.NotNil(t, first.DeviceID, "a device is recorded even without a fingerprint")

	login := func(ua, ip string) *dto.AuthResponse {
		resp, err := e.auth.Login(&dto.LoginRequest{Email: "nofp@example.com", Password: "password123",
			DeviceInfo: dto.DeviceInfo{UserAgent: ua, IP: ip}})
		require.NoError(t, err)
		require.NotNil(t, resp.DeviceID)
		return resp
	}

	same := login("", "")
	assert.Equal(t, *first.DeviceID, *same.DeviceID)

	login("agent-a", "10.0.0.1")
	login("agent-b", "10.0.0.2")
	login("agent-c", "10.0.0.3")

	var active int64
	e.db.Model(&models.UserDevice{}).Where("user_id = ? AND revoked_at IS NULL", first.User.ID).Count(&active)
	assert.Equal(t, int64(2), active, "free plan device limit applies")

	alerts, err := e.devices.Alerts(first.User.ID, false)
	require.NoError(t, err)
	assert.NotEmpty(t, alerts)
}

func TestRevokeDevice(t *testing.T) {
	e := newEnv(t, nil)
	a := register(t, e, "rev@example.com", "fp-a")
	b, err := e.auth.Login(&dto.LoginRequest{Email: "rev@example.com", Password: "password123",
		DeviceInfo: dto.DeviceInfo{Fingerprint: "fp-b"}})
	require.NoError(t, err)

	assert.ErrorIs(t, e.devices.Revoke(a.User.ID, *a.DeviceID, a.DeviceID), ErrCurrentDevice)
	assert.ErrorIs(t, e.devices.Revoke(uuid.New(), *b.DeviceID, a.DeviceID), ErrDeviceNotFound)
	require.NoError(t, e.devices.Revoke(a.User.ID, *b.DeviceID, a.DeviceID))

	_, err = e.auth.Session(b.User.ID, b.DeviceID, time.Now().Add(time.Minute).Unix())
	assert.ErrorIs(t, err, ErrInvalidToken)

	alerts, err := e.devices.Alerts(a.User.ID, true)
	require.NoError(t, err)
	for _, al := range alerts {
		require.NoError(t, e.devices.AckAlert(a.User.ID, al.ID))
	}
	alerts, err = e.devices.Alerts(a.User.ID, true)
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.ErrorIs(t, e.devices.AckAlert(a.User.ID, uuid.New()), ErrAlertNotFound)
}

func TestSession(t *testing.T) {
	e := newEnv(t, nil)
	resp := register(t, e, "sess@example.com", "fp")

	s, err := e.auth.Session(resp.User.ID, resp.DeviceID, time.Now().Add(10*time.Minute).Unix())
	require.NoError(t, err)
	assert.InDelta(t, 8*60, s.RefreshIn, 2)
	assert.False(t, s.ShouldRefresh)

	s, err = e.auth.Session(resp.User.ID, resp.DeviceID, time.Now().Add(time.Minute).Unix())
	require.NoError(t, err)
	assert.Zero(t, s.RefreshIn)
	assert.True(t, s.ShouldRefresh)
}

func TestLogoutAllEmitsEvent(t *testing.T) {
	e := newEnv(t, nil)
	resp := register(t, e, "all@example.com", "fp")

	require.NoError(t, e.auth.LogoutAll(resp.User.ID, nil))
	_, err := e.auth.Refresh(&dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	events, next, err := e.events.Since(resp.User.ID, nil, 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.SyncLogoutAll, events[0].Type)
	assert.Equal(t, events[0].ID, next)
}

func TestDeleteAccount(t *testing.T) {
	e := newEnv(t, nil)
	resp := register(t, e, "gone@example.com", "fp")
	userID := resp.User.ID
	seedChannel(t, e.db, userID, "UCgone", 100, 200)

	assert.ErrorIs(t, e.auth.DeleteAccount(userID, ""), ErrPasswordRequired)
	assert.ErrorIs(t, e.auth.DeleteAccount(userID, "nope-nope"), ErrInvalidCredentials)
	require.NoError(t, e.auth.DeleteAccount(userID, "password123"))

	var n int64
	e.db.Model(&models.Channel{}).Where("user_id = ?", userID).Count(&n)
	assert.Zero(t, n)
	e.db.Model(&models.Video{}).Count(&n)
	assert.Zero(t, n)
	e.db.Model(&models.UserDevice{}).Where("user_id = ?", userID).Count(&n)
	assert.Zero(t, n)

	register(t, e, "gone@example.com", "fp")
}

type googleFixture struct {
	key *rsa.PrivateKey
	srv *httptest.Server
}

func newGoogleFixture(t *testing.T) *googleFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	f := &googleFixture{key: key}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "k1",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *googleFixture) token(t *testing.T, aud, sub, email string) string {
	t.Helper()
	return f.sign(t, f.claims(aud, sub, email))
}

func (f *googleFixture) claims(aud, sub, email string) GoogleClaims {
	return GoogleClaims{
		Email:         email,
		EmailVerified: true,
		Name:          "Grace",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://accounts.google.com",
			Subject:   sub,
			Audience:  jwt.ClaimStrings{aud},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func (f *googleFixture) sign(t *testing.T, claims GoogleClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = "k1"
	s, err := tok.SignedString(f.key)
	require.NoError(t, err)
	return s
}

func TestGoogleSignIn(t *testing.T) {
	e := newEnv(t, nil)
	e.cfg.GoogleClientID = "client-1"
	e.auth = NewAuthService(e.db, e.cfg, e.devices, e.events)
	f := newGoogleFixture(t)
	e.auth.google.jwksURL = f.srv.URL
	ctx := context.Background()

	resp, err := e.auth.GoogleSignIn(ctx, &dto.GoogleSignInRequest{IDToken: f.token(t, "client-1", "g-1", "grace@example.com")})
	require.NoError(t, err)
	assert.Equal(t, models.ProviderGoogle, resp.User.AuthProvider)
	assert.Equal(t, "Grace", resp.User.DisplayName)

	again, err := e.auth.GoogleSignIn(ctx, &dto.GoogleSignInRequest{IDToken: f.token(t, "client-1", "g-1", "grace@example.com")})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, again.User.ID)

	_, err = e.auth.GoogleSignIn(ctx, &dto.GoogleSignInRequest{IDToken: f.token(t, "other-client", "g-1", "grace@example.com")})
	assert.ErrorIs(t, err, ErrGoogleToken)

	// An existing password account is linked, not duplicated.
	local := register(t, e, "linus@example.com", "")
	linked, err := e.auth.GoogleSignIn(ctx, &dto.GoogleSignInRequest{IDToken: f.token(t, "client-1", "g-2", "linus@example.com")})
	require.NoError(t, err)
	assert.Equal(t, local.User.ID, linked.User.ID)

	// Google-only accounts delete without a password.
	require.NoError(t, e.auth.DeleteAccount(resp.User.ID, ""))
}

func TestGoogleSignInUnverifiedEmail(t *testing.T) {
	e := newEnv(t, nil)
	e.cfg.GoogleClientID = "client-1"
	e.auth = NewAuthService(e.db, e.cfg, e.devices, e.events)
	f := newGoogleFixture(t)
	e.auth.google.jwksURL = f.srv.URL

	victim := register(t, e, "victim@example.com", "fp-v")

	claims := f.claims("client-1", "attacker-sub", "victim@example.com")
	claims.EmailVerified = false
	resp, err := e.auth.GoogleSignIn(context.Background(), &dto.GoogleSignInRequest{IDToken: f.sign(t, claims)})
	assert.ErrorIs(t, err, ErrGoogleToken)
	assert.Nil(t, resp)

	var user models.User
	require.NoError(t, e.db.First(&user, "id = ?", victim.User.ID).Error)
	assert.Nil(t, user.GoogleSubject, "unverified token must not link the account")
}

func TestGoogleState(t *testing.T) {
	cfg := newEnv(t, nil).cfg
	cfg.GoogleClientID = "client-1"
	g := NewGoogleAuth(cfg)

	url, state, err := g.AuthURL()
	require.NoError(t, err)
	assert.Contains(t, url, "accounts.google.com")
	assert.Contains(t, url, "client_id=client-1")
	require.NoError(t, g.VerifyState(state))

	assert.ErrorIs(t, g.VerifyState(state+"0"), ErrInvalidState)
	expired, err := g.newState(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.ErrorIs(t, g.VerifyState(expired), ErrInvalidState)

	_, _, err = NewGoogleAuth(newEnv(t, nil).cfg).AuthURL()
	assert.ErrorIs(t, err, ErrGoogleDisabled)
}
