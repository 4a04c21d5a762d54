package services

import (
	"encoding/json"
	"testing"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/plans"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestPermissions(t *testing.T) {
	tests := []struct {
		name   string
		member models.TeamMember
		perm   string
		want   bool
	}{
		{"viewer views", models.TeamMember{Role: models.TeamRoleViewer}, PermView, true},
		{"viewer cannot edit", models.TeamMember{Role: models.TeamRoleViewer}, PermEdit, false},
		{"editor edits", models.TeamMember{Role: models.TeamRoleEditor}, PermEdit, true},
		{"editor cannot manage", models.TeamMember{Role: models.TeamRoleEditor}, PermManageMembers, false},
		{"explicit grant", models.TeamMember{Role: models.TeamRoleViewer,
			Permissions: datatypes.JSON(`{"edit":true}`)}, PermEdit, true},
		{"explicit revoke", models.TeamMember{Role: models.TeamRoleAdmin,
			Permissions: datatypes.JSON(`{"manage_members":false}`)}, PermManageMembers, false},
		{"owner keeps everything", models.TeamMember{Role: models.TeamRoleOwner,
			Permissions: datatypes.JSON(`{"manage_team":false}`)}, PermManageTeam, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Permissions(&tt.member)[tt.perm])
		})
	}
}

func TestTeamLifecycle(t *testing.T) {
	e := newEnv(t, nil)
	owner := testutil.CreateUser(t, e.db, "own@example.com", plans.Team)
	member := testutil.CreateUser(t, e.db, "mem@example.com", plans.Free)

	team, err := e.teams.Create(owner.ID, &dto.TeamRequest{Name: "My Studio!"})
	require.NoError(t, err)
	assert.Regexp(t, `^my-studio-[0-9a-f]{6}$`, team.Slug)
	require.Len(t, team.Members, 1)
	assert.Equal(t, models.TeamRoleOwner, team.Members[0].Role)

	_, err = e.teams.AddMember(owner.ID, team.ID, &dto.AddMemberRequest{Email: "nobody@example.com"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = e.teams.AddMember(owner.ID, team.ID, &dto.AddMemberRequest{Email: member.Email, Role: "owner"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	m, err := e.teams.AddMember(owner.ID, team.ID, &dto.AddMemberRequest{Email: "MEM@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.TeamRoleViewer, m.Role)
	_, err = e.teams.AddMember(owner.ID, team.ID, &dto.AddMemberRequest{Email: member.Email})
	assert.ErrorIs(t, err, ErrAlreadyMember)

	_, err = e.teams.Rename(member.ID, team.ID, &dto.TeamRequest{Name: "Mine now"})
	assert.ErrorIs(t, err, ErrTeamForbidden)

	perms, _ := json.Marshal(map[string]bool{PermManageTeam: true})
	updated, err := e.teams.UpdateMember(owner.ID, team.ID, member.ID, &dto.UpdateMemberRequest{Permissions: perms})
	require.NoError(t, err)
	assert.True(t, Permissions(updated)[PermManageTeam])

	renamed, err := e.teams.Rename(member.ID, team.ID, &dto.TeamRequest{Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Name)

	_, err = e.teams.UpdateMember(owner.ID, team.ID, owner.ID, &dto.UpdateMemberRequest{Role: models.TeamRoleViewer})
	assert.ErrorIs(t, err, ErrOwnerCannotLeave)
	assert.ErrorIs(t, e.teams.Leave(owner.ID, team.ID), ErrOwnerCannotLeave)
	assert.ErrorIs(t, e.teams.Delete(member.ID, team.ID), ErrTeamForbidden)

	mine, err := e.teams.ListMine(member.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, e.teams.Leave(member.ID, team.ID))
	_, err = e.teams.Get(member.ID, team.ID)
	assert.ErrorIs(t, err, ErrTeamNotFound)

	ch, _ := seedChannel(t, e.db, owner.ID, "UCshared", 1)
	require.NoError(t, e.db.Model(ch).Update("team_id", team.ID).Error)
	require.NoError(t, e.teams.Delete(owner.ID, team.ID))

	var stored models.Channel
	require.NoError(t, e.db.First(&stored, "id = ?", ch.ID).Error)
	assert.Nil(t, stored.TeamID, "channels return to their owner")
}
