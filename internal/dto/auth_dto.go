package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DeviceInfo is what the client reports about itself at sign-in.
type DeviceInfo struct {
	Fingerprint    string `json:"device_fingerprint"`
	Name           string `json:"device_name"`
	Platform       string `json:"platform"`
	UserAgent      string `json:"-"`
	IP             string `json:"-"`
	AcceptLanguage string `json:"-"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	DeviceInfo
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceInfo
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type DeleteAccountRequest struct {
	Password string `json:"password"`
}

type GoogleSignInRequest struct {
	IDToken string `json:"id_token"`
	DeviceInfo
}

type GoogleCallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
	DeviceInfo
}

type GoogleURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	DeviceID     *uuid.UUID   `json:"device_id,omitempty"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID           uuid.UUID       `json:"id"`
	Email        string          `json:"email"`
	DisplayName  string          `json:"display_name"`
	AvatarURL    string          `json:"avatar_url,omitempty"`
	Plan         string          `json:"plan"`
	Role         string          `json:"role"`
	AuthProvider string          `json:"auth_provider"`
	Locale       string          `json:"locale,omitempty"`
	Timezone     string          `json:"timezone,omitempty"`
	Preferences  json.RawMessage `json:"preferences,omitempty"`
}

type SessionResponse struct {
	User          UserResponse `json:"user"`
	ExpiresAt     time.Time    `json:"expires_at"`
	RefreshIn     int64        `json:"refresh_in"`
	ShouldRefresh bool         `json:"should_refresh"`
	DeviceID      *uuid.UUID   `json:"device_id,omitempty"`
}

type UpdateProfileRequest struct {
	DisplayName *string         `json:"display_name"`
	Locale      *string         `json:"locale"`
	Timezone    *string         `json:"timezone"`
	Preferences json.RawMessage `json:"preferences"`
}
