package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
	stateTTL      = 10 * time.Minute
)

var (
	ErrGoogleDisabled = errors.New("google sign-in is not configured")
	ErrGoogleToken    = errors.New("invalid google identity token")
	ErrInvalidState   = errors.New("invalid or expired oauth state")
)

type GoogleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// GoogleAuth verifies Google ID tokens against the published JWKS and runs
// the authorization code flow.
type GoogleAuth struct {
	clientID   string
	secret     []byte
	oauth      *oauth2.Config
	httpClient *http.Client
	jwksURL    string

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
}

func NewGoogleAuth(cfg *config.Config) *GoogleAuth {
	return &GoogleAuth{
		clientID: cfg.GoogleClientID,
		secret:   []byte(cfg.JWTSecret),
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		jwksURL:    googleJWKSURL,
		keys:       make(map[string]*rsa.PublicKey),
	}
}

func (g *GoogleAuth) Enabled() bool { return g.clientID != "" }

func (g *GoogleAuth) fetchKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.jwksURL, nil)
	if err != nil {
		return err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var set struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := parseRSAPublicKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	g.mu.Lock()
	g.keys = keys
	g.expiresAt = time.Now().Add(24 * time.Hour)
	g.mu.Unlock()
	return nil
}

func parseRSAPublicKey(nStr, eStr string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	var e int
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}

func (g *GoogleAuth) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	g.mu.RLock()
	key, ok := g.keys[kid]
	fresh := time.Now().Before(g.expiresAt)
	g.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}

	if err := g.fetchKeys(ctx); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if key, ok := g.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("public key with kid %s not found", kid)
}

// VerifyIDToken checks signature, issuer, audience and expiry.
func (g *GoogleAuth) VerifyIDToken(ctx context.Context, raw string) (*GoogleClaims, error) {
	if !g.Enabled() {
		return nil, ErrGoogleDisabled
	}

	claims := &GoogleClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		return g.publicKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(g.clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGoogleToken, err)
	}

	if claims.Issuer != "accounts.google.com" && claims.Issuer != "https://accounts.google.com" {
		return nil, fmt.Errorf("%w: invalid issuer %s", ErrGoogleToken, claims.Issuer)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrGoogleToken)
	}
	if !claims.EmailVerified {
		return nil, fmt.Errorf("%w: email not verified", ErrGoogleToken)
	}
	return claims, nil
}

// AuthURL returns the consent URL and the signed state the callback must echo.
func (g *GoogleAuth) AuthURL() (string, string, error) {
	if !g.Enabled() {
		return "", "", ErrGoogleDisabled
	}
	state, err := g.newState(time.Now())
	if err != nil {
		return "", "", err
	}
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), state, nil
}

// Exchange trades an authorization code for tokens and verifies the
// returned ID token.
func (g *GoogleAuth) Exchange(ctx context.Context, code string) (*GoogleClaims, error) {
	if !g.Enabled() {
		return nil, ErrGoogleDisabled
	}
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", ErrInvalidInput)
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGoogleToken, err)
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return nil, fmt.Errorf("%w: token response has no id_token", ErrGoogleToken)
	}
	return g.VerifyIDToken(ctx, idToken)
}

// State format: nonce.expiry.hmac
func (g *GoogleAuth) newState(now time.Time) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(nonce) + "." + strconv.FormatInt(now.Add(stateTTL).Unix(), 10)
	return payload + "." + g.sign(payload), nil
}

func (g *GoogleAuth) sign(payload string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte("google-state:" + payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *GoogleAuth) VerifyState(state string) error {
	i := strings.LastIndexByte(state, '.')
	if i < 0 {
		return ErrInvalidState
	}
	payload, sig := state[:i], state[i+1:]
	if !hmac.Equal([]byte(sig), []byte(g.sign(payload))) {
		return ErrInvalidState
	}
	parts := strings.Split(payload, ".")
	if len(parts) != 2 {
		return ErrInvalidState
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().Unix() > exp {
		return ErrInvalidState
	}
	return nil
}
