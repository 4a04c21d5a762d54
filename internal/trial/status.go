// Package trial tracks the free analyses an anonymous visitor may run before
// signing in. State is mirrored to memory, the database and a signed cookie;
// the most recently updated copy wins.
package trial

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Version is bumped whenever the trial rules change; records written under
// another version are discarded and the visitor starts fresh.
const Version = "v2"

const (
	ActionAnalyzeChannel = "analyze_channel"
	ActionGenerateReport = "generate_report"
	ActionAIInsight      = "ai_insight"
)

var (
	ErrNotFound      = errors.New("trial not found")
	ErrExhausted     = errors.New("trial limit reached")
	ErrInvalidAction = errors.New("unknown trial action")
	ErrConverted     = errors.New("trial already converted to an account")
)

func ValidAction(a string) bool {
	switch a {
	case ActionAnalyzeChannel, ActionGenerateReport, ActionAIInsight:
		return true
	}
	return false
}

type Action struct {
	Type     string    `json:"type"`
	At       time.Time `json:"at"`
	Resource string    `json:"resource,omitempty"`
}

type Status struct {
	Fingerprint     string     `json:"fingerprint"`
	Remaining       int        `json:"remaining"`
	Limit           int        `json:"limit"`
	Actions         []Action   `json:"actions"`
	Version         string     `json:"version"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ExpiresAt       time.Time  `json:"expires_at"`
	ConvertedUserID *uuid.UUID `json:"converted_user_id,omitempty"`
}

func (s *Status) Exhausted() bool { return s.Remaining <= 0 }

// Usable reports whether a stored copy may still be trusted at now.
func (s *Status) Usable(now time.Time) bool {
	return s != nil && s.Version == Version && now.Before(s.ExpiresAt)
}

func (s *Status) clone() *Status {
	c := *s
	c.Actions = append([]Action(nil), s.Actions...)
	if s.ConvertedUserID != nil {
		id := *s.ConvertedUserID
		c.ConvertedUserID = &id
	}
	return &c
}

// Fingerprint derives a stable visitor id. A client-supplied device
// fingerprint is bound to the user agent; without one the network identity
// is used.
func Fingerprint(deviceHeader, userAgent, ip, acceptLanguage string) string {
	var parts []string
	if h := strings.TrimSpace(deviceHeader); h != "" {
		parts = []string{"d", h, userAgent}
	} else {
		parts = []string{"n", ip, userAgent, acceptLanguage}
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:16])
}
