package services

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamForbidden    = errors.New("insufficient team permissions")
	ErrMemberNotFound   = errors.New("team member not found")
	ErrAlreadyMember    = errors.New("user is already a team member")
	ErrInvalidRole      = errors.New("invalid team role")
	ErrOwnerCannotLeave = errors.New("the team owner cannot leave or be removed")
)

const (
	PermView          = "view"
	PermEdit          = "edit"
	PermManageMembers = "manage_members"
	PermManageTeam    = "manage_team"
)

var defaultPermissions = map[string]map[string]bool{
	models.TeamRoleOwner:  {PermView: true, PermEdit: true, PermManageMembers: true, PermManageTeam: true},
	models.TeamRoleAdmin:  {PermView: true, PermEdit: true, PermManageMembers: true, PermManageTeam: true},
	models.TeamRoleEditor: {PermView: true, PermEdit: true},
	models.TeamRoleViewer: {PermView: true},
}

// Permissions resolves a member's effective permissions: role defaults,
// overridden by any explicit entries.
func Permissions(m *models.TeamMember) map[string]bool {
	out := map[string]bool{}
	for k, v := range defaultPermissions[m.Role] {
		out[k] = v
	}
	if len(m.Permissions) > 0 {
		var explicit map[string]bool
		if err := json.Unmarshal(m.Permissions, &explicit); err == nil {
			for k, v := range explicit {
				out[k] = v
			}
		}
	}
	if m.Role == models.TeamRoleOwner {
		for k := range defaultPermissions[models.TeamRoleOwner] {
			out[k] = true
		}
	}
	return out
}

type TeamService struct {
	db *gorm.DB
}

func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{db: db}
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	s := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if len(s) > 120 {
		s = s[:120]
	}
	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	if s == "" {
		s = "team"
	}
	return s + "-" + hex.EncodeToString(suffix)
}

func (s *TeamService) Create(userID uuid.UUID, req *dto.TeamRequest) (*models.Team, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 120 {
		return nil, fmt.Errorf("%w: team name must be 1-120 characters", ErrInvalidInput)
	}

	team := models.Team{OwnerID: userID, Name: name, Slug: slugify(name)}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		return tx.Create(&models.TeamMember{TeamID: team.ID, UserID: userID, Role: models.TeamRoleOwner}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return s.Get(userID, team.ID)
}

func (s *TeamService) ListMine(userID uuid.UUID) ([]models.Team, error) {
	var teams []models.Team
	err := s.db.Where("id IN (?)", s.db.Model(&models.TeamMember{}).Select("team_id").Where("user_id = ?", userID)).
		Order("name ASC").Find(&teams).Error
	return teams, err
}

func (s *TeamService) membership(teamID, userID uuid.UUID) (*models.TeamMember, error) {
	var m models.TeamMember
	if err := s.db.Where("team_id = ? AND user_id = ?", teamID, userID).First(&m).Error; err != nil {
		return nil, ErrTeamNotFound
	}
	return &m, nil
}

// Can reports whether userID holds perm in teamID.
func (s *TeamService) Can(teamID, userID uuid.UUID, perm string) bool {
	m, err := s.membership(teamID, userID)
	if err != nil {
		return false
	}
	return Permissions(m)[perm]
}

func (s *TeamService) require(teamID, userID uuid.UUID, perm string) (*models.TeamMember, error) {
	m, err := s.membership(teamID, userID)
	if err != nil {
		return nil, err
	}
	if !Permissions(m)[perm] {
		return nil, ErrTeamForbidden
	}
	return m, nil
}

func (s *TeamService) Get(userID, teamID uuid.UUID) (*models.Team, error) {
	if _, err := s.membership(teamID, userID); err != nil {
		return nil, err
	}
	var team models.Team
	if err := s.db.Preload("Members.User").First(&team, "id = ?", teamID).Error; err != nil {
		return nil, ErrTeamNotFound
	}
	return &team, nil
}

func (s *TeamService) Rename(userID, teamID uuid.UUID, req *dto.TeamRequest) (*models.Team, error) {
	if _, err := s.require(teamID, userID, PermManageTeam); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 120 {
		return nil, fmt.Errorf("%w: team name must be 1-120 characters", ErrInvalidInput)
	}
	if err := s.db.Model(&models.Team{}).Where("id = ?", teamID).Update("name", name).Error; err != nil {
		return nil, err
	}
	return s.Get(userID, teamID)
}

// Delete removes the team. Shared channels fall back to their owners.
func (s *TeamService) Delete(userID, teamID uuid.UUID) error {
	m, err := s.membership(teamID, userID)
	if err != nil {
		return err
	}
	if m.Role != models.TeamRoleOwner {
		return ErrTeamForbidden
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Channel{}).Where("team_id = ?", teamID).Update("team_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", teamID).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Team{}, "id = ?", teamID).Error
	})
}

func validMemberRole(role string) bool {
	switch role {
	case models.TeamRoleAdmin, models.TeamRoleEditor, models.TeamRoleViewer:
		return true
	}
	return false
}

func (s *TeamService) AddMember(userID, teamID uuid.UUID, req *dto.AddMemberRequest) (*models.TeamMember, error) {
	if _, err := s.require(teamID, userID, PermManageMembers); err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = models.TeamRoleViewer
	}
	if !validMemberRole(role) {
		return nil, ErrInvalidRole
	}

	var invitee models.User
	if err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&invitee).Error; err != nil {
		return nil, ErrUserNotFound
	}
	if _, err := s.membership(teamID, invitee.ID); err == nil {
		return nil, ErrAlreadyMember
	}

	member := models.TeamMember{TeamID: teamID, UserID: invitee.ID, Role: role}
	if err := s.db.Create(&member).Error; err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	member.User = &invitee
	return &member, nil
}

func (s *TeamService) UpdateMember(userID, teamID, memberID uuid.UUID, req *dto.UpdateMemberRequest) (*models.TeamMember, error) {
	if _, err := s.require(teamID, userID, PermManageMembers); err != nil {
		return nil, err
	}
	target, err := s.membership(teamID, memberID)
	if err != nil {
		return nil, ErrMemberNotFound
	}
	if target.Role == models.TeamRoleOwner {
		return nil, ErrOwnerCannotLeave
	}

	updates := map[string]interface{}{}
	if req.Role != "" {
		if !validMemberRole(req.Role) {
			return nil, ErrInvalidRole
		}
		updates["role"] = req.Role
	}
	if len(req.Permissions) > 0 {
		var perms map[string]bool
		if err := json.Unmarshal(req.Permissions, &perms); err != nil {
			return nil, fmt.Errorf("%w: permissions must map names to booleans", ErrInvalidInput)
		}
		updates["permissions"] = datatypes.JSON(req.Permissions)
	}
	if len(updates) > 0 {
		if err := s.db.Model(target).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.membership(teamID, memberID)
}

func (s *TeamService) RemoveMember(userID, teamID, memberID uuid.UUID) error {
	if _, err := s.require(teamID, userID, PermManageMembers); err != nil {
		return err
	}
	target, err := s.membership(teamID, memberID)
	if err != nil {
		return ErrMemberNotFound
	}
	if target.Role == models.TeamRoleOwner {
		return ErrOwnerCannotLeave
	}
	return s.db.Delete(target).Error
}

func (s *TeamService) Leave(userID, teamID uuid.UUID) error {
	m, err := s.membership(teamID, userID)
	if err != nil {
		return err
	}
	if m.Role == models.TeamRoleOwner {
		return ErrOwnerCannotLeave
	}
	return s.db.Delete(m).Error
}
