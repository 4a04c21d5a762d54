package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/config"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordRequired   = errors.New("password is required")
	ErrInvalidInput       = errors.New("invalid input")
)

type AuthService struct {
	db      *gorm.DB
	cfg     *config.Config
	devices *DeviceService
	events  *SyncService
	google  *GoogleAuth
}

func NewAuthService(db *gorm.DB, cfg *config.Config, devices *DeviceService, events *SyncService) *AuthService {
	return &AuthService{
		db:      db,
		cfg:     cfg,
		devices: devices,
		events:  events,
		google:  NewGoogleAuth(cfg),
	}
}

func (s *AuthService) Google() *GoogleAuth { return s.google }

func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}

	var existing models.User
	if err := s.db.Unscoped().Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	user := models.User{
		Email:        email,
		Password:     string(hash),
		DisplayName:  name,
		AuthProvider: models.ProviderEmail,
		Locale:       s.cfg.DefaultLocale,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.signIn(&user, req.DeviceInfo)
}

func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.signIn(&user, req.DeviceInfo)
}

// Refresh rotates a refresh token. Tokens bound to a revoked device are
// rejected.
func (s *AuthService) Refresh(req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ? AND revoked = ?", hashToken(req.RefreshToken), false).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	s.db.Model(&stored).Update("revoked", true)
	if time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, ErrInvalidToken
	}

	var device *models.UserDevice
	if stored.DeviceID != nil {
		var d models.UserDevice
		if err := s.db.First(&d, "id = ?", *stored.DeviceID).Error; err != nil || !d.Active() {
			return nil, ErrInvalidToken
		}
		s.devices.Touch(&d.ID)
		device = &d
	}

	return s.issue(&user, device)
}

func (s *AuthService) Logout(req *dto.LogoutRequest) error {
	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ?", hashToken(req.RefreshToken)).
		Update("revoked", true).Error
}

// LogoutAll revokes every refresh token of the user and tells the other
// devices to drop their session.
func (s *AuthService) LogoutAll(userID uuid.UUID, deviceID *uuid.UUID) error {
	if err := s.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error; err != nil {
		return err
	}
	return s.events.Emit(userID, deviceID, models.SyncLogoutAll, nil)
}

func (s *AuthService) DeleteAccount(userID uuid.UUID, password string) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return ErrUserNotFound
	}

	if user.Password != "" {
		if password == "" {
			return ErrPasswordRequired
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
			return ErrInvalidCredentials
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		owned := tx.Session(&gorm.Session{NewDB: true}).Model(&models.Channel{}).Select("id").Where("user_id = ?", userID)
		videos := tx.Session(&gorm.Session{NewDB: true}).Model(&models.Video{}).Select("id").Where("channel_id IN (?)", owned)
		ownedTeams := tx.Session(&gorm.Session{NewDB: true}).Model(&models.Team{}).Select("id").Where("owner_id = ?", userID)

		steps := []*gorm.DB{
			tx.Where("video_id IN (?)", videos).Delete(&models.Comment{}),
			tx.Where("channel_id IN (?)", owned).Delete(&models.Video{}),
			tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Report{}),
			tx.Where("user_id = ?", userID).Delete(&models.AIInsight{}),
			tx.Where("user_id = ?", userID).Delete(&models.Channel{}),
			tx.Where("user_id = ?", userID).Delete(&models.Dashboard{}),
			tx.Model(&models.Channel{}).Where("team_id IN (?)", ownedTeams).Update("team_id", nil),
			tx.Where("team_id IN (?) OR user_id = ?", ownedTeams, userID).Delete(&models.TeamMember{}),
			tx.Where("owner_id = ?", userID).Delete(&models.Team{}),
			tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{}),
			tx.Where("user_id = ?", userID).Delete(&models.UserDevice{}),
			tx.Where("user_id = ?", userID).Delete(&models.SecurityAlert{}),
			tx.Where("user_id = ?", userID).Delete(&models.SyncEvent{}),
			tx.Where("user_id = ?", userID).Delete(&models.Subscription{}),
		}
		for _, step := range steps {
			if step.Error != nil {
				return step.Error
			}
		}
		return tx.Unscoped().Delete(&user).Error
	})
}

// Session answers the client's polling loop: when the access token expires
// and how long until it should be refreshed.
func (s *AuthService) Session(userID uuid.UUID, deviceID *uuid.UUID, exp int64) (*dto.SessionResponse, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	if deviceID != nil {
		if !s.devices.IsActive(*deviceID) {
			return nil, ErrInvalidToken
		}
		s.devices.Touch(deviceID)
	}

	expiresAt := time.Unix(exp, 0).UTC()
	refreshIn := int64(time.Until(expiresAt.Add(-s.cfg.SessionRefreshMargin)).Seconds())
	if refreshIn < 0 {
		refreshIn = 0
	}

	return &dto.SessionResponse{
		User:          UserResponse(&user),
		ExpiresAt:     expiresAt,
		RefreshIn:     refreshIn,
		ShouldRefresh: refreshIn == 0,
		DeviceID:      deviceID,
	}, nil
}

func (s *AuthService) GoogleSignIn(ctx context.Context, req *dto.GoogleSignInRequest) (*dto.AuthResponse, error) {
	if req.IDToken == "" {
		return nil, fmt.Errorf("%w: id_token is required", ErrInvalidInput)
	}
	claims, err := s.google.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		slog.Warn("google token verification failed", "error", err)
		return nil, err
	}
	return s.googleUser(claims, req.DeviceInfo)
}

// GoogleCallback finishes the authorization code flow started by
// GoogleAuth.AuthURL.
func (s *AuthService) GoogleCallback(ctx context.Context, req *dto.GoogleCallbackRequest) (*dto.AuthResponse, error) {
	if err := s.google.VerifyState(req.State); err != nil {
		return nil, err
	}
	claims, err := s.google.Exchange(ctx, req.Code)
	if err != nil {
		slog.Warn("google code exchange failed", "error", err)
		return nil, err
	}
	return s.googleUser(claims, req.DeviceInfo)
}

func (s *AuthService) googleUser(claims *GoogleClaims, info dto.DeviceInfo) (*dto.AuthResponse, error) {
	subject := claims.Subject
	email := normalizeEmail(claims.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: google account has no email", ErrGoogleToken)
	}

	var user models.User
	err := s.db.Where("google_subject = ? OR email = ?", subject, email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		name := claims.Name
		if name == "" {
			name = strings.Split(email, "@")[0]
		}
		user = models.User{
			Email:         email,
			DisplayName:   name,
			AvatarURL:     claims.Picture,
			GoogleSubject: &subject,
			AuthProvider:  models.ProviderGoogle,
			Locale:        s.cfg.DefaultLocale,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create Google user: %w", err)
		}
	} else if err != nil {
		return nil, err
	} else if user.GoogleSubject == nil {
		updates := map[string]interface{}{"google_subject": subject}
		if user.AvatarURL == "" && claims.Picture != "" {
			updates["avatar_url"] = claims.Picture
		}
		s.db.Model(&user).Updates(updates)
		user.GoogleSubject = &subject
	}

	return s.signIn(&user, info)
}

func (s *AuthService) signIn(user *models.User, info dto.DeviceInfo) (*dto.AuthResponse, error) {
	device, err := s.devices.RegisterLogin(user, info)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s.db.Model(user).Update("last_login_at", now)
	user.LastLoginAt = &now
	return s.issue(user, device)
}

func (s *AuthService) issue(user *models.User, device *models.UserDevice) (*dto.AuthResponse, error) {
	var deviceID *uuid.UUID
	if device != nil {
		deviceID = &device.ID
	}

	expiresAt := time.Now().Add(s.cfg.JWTAccessExpiry)
	accessToken, err := s.generateAccessToken(user, deviceID, expiresAt)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(user, deviceID)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt.UTC(),
		DeviceID:     deviceID,
		User:         UserResponse(user),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User, deviceID *uuid.UUID, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"plan":  user.Plan,
		"role":  user.Role,
		"iat":   time.Now().Unix(),
		"exp":   expiresAt.Unix(),
	}
	if deviceID != nil {
		claims["did"] = deviceID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(user *models.User, deviceID *uuid.UUID) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	record := models.RefreshToken{
		UserID:    user.ID,
		DeviceID:  deviceID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

// UserResponse is the public view of a user.
func UserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		AvatarURL:    u.AvatarURL,
		Plan:         u.Plan,
		Role:         u.Role,
		AuthProvider: u.AuthProvider,
		Locale:       u.Locale,
		Timezone:     u.Timezone,
		Preferences:  []byte(u.Preferences),
	}
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
