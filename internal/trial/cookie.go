package trial

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const CookieName = "yt_trial"

var ErrBadCookie = errors.New("invalid trial cookie")

// CookieCodec signs trial state so the browser copy cannot be edited.
type CookieCodec struct {
	key []byte
}

func NewCookieCodec(secret string) *CookieCodec {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("yt_trial_cookie"))
	return &CookieCodec{key: mac.Sum(nil)}
}

func (c *CookieCodec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Encode returns "<payload>.<signature>". Only the counters travel; the
// action log stays server-side to keep the cookie small.
func (c *CookieCodec) Encode(s *Status) (string, error) {
	slim := *s
	slim.Actions = nil
	data, err := json.Marshal(slim)
	if err != nil {
		return "", fmt.Errorf("failed to encode trial cookie: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(data)
	return payload + "." + c.sign(payload), nil
}

func (c *CookieCodec) Decode(value string) (*Status, error) {
	payload, sig, ok := strings.Cut(value, ".")
	if !ok || payload == "" {
		return nil, ErrBadCookie
	}
	if !hmac.Equal([]byte(sig), []byte(c.sign(payload))) {
		return nil, ErrBadCookie
	}
	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrBadCookie
	}
	var s Status
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, ErrBadCookie
	}
	return &s, nil
}
