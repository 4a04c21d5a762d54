package tenant

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForUser returns a GORM scope that filters by user_id.
func ForUser(userID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// AccessibleChannels limits yt_channels to channels the user owns or that are
// shared with one of the user's teams.
func AccessibleChannels(userID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		teams := db.Session(&gorm.Session{NewDB: true}).
			Table("yt_team_members").Select("team_id").Where("user_id = ?", userID)
		return db.Where("yt_channels.user_id = ? OR yt_channels.team_id IN (?)", userID, teams)
	}
}

// Paginate applies page/limit with sane bounds.
func Paginate(page, limit int) func(db *gorm.DB) *gorm.DB {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(limit).Offset((page - 1) * limit)
	}
}
