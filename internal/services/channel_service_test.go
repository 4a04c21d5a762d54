package services

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/plans"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChannelWithoutYouTube(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	user := testutil.CreateUser(t, e.db, "free@example.com", plans.Free)

	ch, err := e.channels.Create(ctx, user.ID, &dto.CreateChannelRequest{YouTubeChannelID: "UCabc"})
	require.NoError(t, err)
	assert.Equal(t, "UCabc", ch.Title, "title falls back to the channel id")

	_, err = e.channels.Create(ctx, user.ID, &dto.CreateChannelRequest{YouTubeChannelID: "UCdef"})
	assert.ErrorIs(t, err, ErrPlanLimit)

	_, err = e.channels.Create(ctx, user.ID, &dto.CreateChannelRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	pro := testutil.CreateUser(t, e.db, "pro@example.com", plans.Pro)
	_, err = e.channels.Create(ctx, pro.ID, &dto.CreateChannelRequest{YouTubeChannelID: "UCabc", Title: "Mine"})
	require.NoError(t, err, "uniqueness is per user")
	_, err = e.channels.Create(ctx, pro.ID, &dto.CreateChannelRequest{YouTubeChannelID: "UCabc"})
	assert.ErrorIs(t, err, ErrChannelExists)
}

func TestCreateChannelFromSnapshot(t *testing.T) {
	yt := newFakeYouTube(t)
	e := newEnv(t, yt.client())
	ctx := context.Background()
	user := testutil.CreateUser(t, e.db, "snap@example.com", plans.Pro)

	ch, err := e.channels.Create(ctx, user.ID, &dto.CreateChannelRequest{YouTubeChannelID: "@fake", Title: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "UCfake", ch.YouTubeChannelID)
	assert.Equal(t, "Fake Channel", ch.Title)
	assert.Equal(t, int64(1200), ch.SubscriberCount)

	_, err = e.channels.Create(ctx, user.ID, &dto.CreateChannelRequest{YouTubeChannelID: "UCmissing"})
	assert.ErrorIs(t, err, ErrChannelNotFound)

	yt.fail.Store(true)
	stale, err := e.channels.Create(ctx, user.ID, &dto.CreateChannelRequest{YouTubeChannelID: "UCother", Title: "Offline"})
	require.NoError(t, err)
	assert.Equal(t, "Offline", stale.Title)
	assert.NotEmpty(t, stale.SyncError)
}

func TestChannelTeamSharing(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, e.db, "owner@example.com", plans.Team)
	viewer := testutil.CreateUser(t, e.db, "viewer@example.com", plans.Free)
	editor := testutil.CreateUser(t, e.db, "editor@example.com", plans.Free)
	stranger := testutil.CreateUser(t, e.db, "stranger@example.com", plans.Free)

	team, err := e.teams.Create(owner.ID, &dto.TeamRequest{Name: "Studio"})
	require.NoError(t, err)
	_, err = e.teams.AddMember(owner.ID, team.ID, &dto.AddMemberRequest{Email: viewer.Email})
	require.NoError(t, err)
	_, err = e.teams.AddMember(owner.ID, team.ID, &dto.AddMemberRequest{Email: editor.Email, Role: models.TeamRoleEditor})
	require.NoError(t, err)

	ch, err := e.channels.Create(ctx, owner.ID, &dto.CreateChannelRequest{YouTubeChannelID: "UCteam", TeamID: &team.ID})
	require.NoError(t, err)

	list, total, err := e.channels.List(viewer.ID, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, ch.ID, list[0].ID)

	_, err = e.channels.Editable(viewer.ID, ch.ID)
	assert.ErrorIs(t, err, ErrChannelForbidden)
	_, err = e.channels.Editable(editor.ID, ch.ID)
	assert.NoError(t, err)
	_, err = e.channels.Get(stranger.ID, ch.ID)
	assert.ErrorIs(t, err, ErrChannelNotFound)

	assert.ErrorIs(t, e.channels.Delete(editor.ID, ch.ID), ErrChannelForbidden)

	// Free plans cannot share.
	own, err := e.channels.Create(ctx, viewer.ID, &dto.CreateChannelRequest{YouTubeChannelID: "UCviewer"})
	require.NoError(t, err)
	_, err = e.channels.Share(viewer.ID, own.ID, &team.ID)
	assert.ErrorIs(t, err, ErrFeatureUnavailable)

	unshared, err := e.channels.Share(owner.ID, ch.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, unshared.TeamID)
	_, err = e.channels.Get(viewer.ID, ch.ID)
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestChannelSearchAndDelete(t *testing.T) {
	e := newEnv(t, nil)
	user := testutil.CreateUser(t, e.db, "search@example.com", plans.Pro)
	a, videos := seedChannel(t, e.db, user.ID, "UCa", 10, 20)
	seedChannel(t, e.db, user.ID, "UCb", 30)

	list, total, err := e.channels.List(user.ID, "channel uca", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, a.ID, list[0].ID)

	_, err = e.comments.Create(user.ID, videos[0].ID, &dto.CreateCommentRequest{Text: "nice"})
	require.NoError(t, err)

	require.NoError(t, e.channels.Delete(user.ID, a.ID))
	var n int64
	e.db.Model(&models.Video{}).Where("channel_id = ?", a.ID).Count(&n)
	assert.Zero(t, n)
	e.db.Model(&models.Comment{}).Count(&n)
	assert.Zero(t, n)
	assert.ErrorIs(t, e.channels.Delete(user.ID, uuid.New()), ErrChannelNotFound)
}

func TestVideosAndComments(t *testing.T) {
	e := newEnv(t, nil)
	user := testutil.CreateUser(t, e.db, "vid@example.com", plans.Pro)
	other := testutil.CreateUser(t, e.db, "other@example.com", plans.Pro)
	ch, _ := seedChannel(t, e.db, user.ID, "UCvid", 100, 900, 400)

	videos, total, err := e.videos.List(user.ID, ch.ID, "views", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []int64{900, 400, 100}, []int64{videos[0].ViewCount, videos[1].ViewCount, videos[2].ViewCount})

	v, err := e.videos.Create(user.ID, ch.ID, &dto.CreateVideoRequest{YouTubeVideoID: "manual", Title: "Manual", ViewCount: 5})
	require.NoError(t, err)
	assert.False(t, v.PublishedAt.IsZero())
	_, err = e.videos.Create(user.ID, ch.ID, &dto.CreateVideoRequest{YouTubeVideoID: "manual", Title: "Again"})
	assert.ErrorIs(t, err, ErrVideoExists)
	_, err = e.videos.Create(user.ID, ch.ID, &dto.CreateVideoRequest{YouTubeVideoID: "neg", Title: "Neg", ViewCount: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	views := int64(50)
	updated, err := e.videos.Update(user.ID, v.ID, &dto.UpdateVideoRequest{ViewCount: &views})
	require.NoError(t, err)
	assert.Equal(t, int64(50), updated.ViewCount)

	_, err = e.videos.Get(other.ID, v.ID)
	assert.ErrorIs(t, err, ErrVideoNotFound)

	question, err := e.comments.Create(user.ID, v.ID, &dto.CreateCommentRequest{Text: "What camera is this?"})
	require.NoError(t, err)
	assert.Equal(t, models.CommentQuestion, question.Classification)
	assert.Equal(t, "anonymous", question.Author)
	spam, err := e.comments.Create(user.ID, v.ID, &dto.CreateCommentRequest{Text: "visit https://spam.example now"})
	require.NoError(t, err)
	assert.Equal(t, models.CommentSpam, spam.Classification)

	list, total, err := e.comments.List(user.ID, v.ID, models.CommentSpam, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, spam.ID, list[0].ID)

	assert.ErrorIs(t, e.comments.Delete(other.ID, spam.ID), ErrCommentNotFound)
	require.NoError(t, e.comments.Delete(user.ID, spam.ID))

	require.NoError(t, e.videos.Delete(user.ID, v.ID))
	var n int64
	e.db.Model(&models.Comment{}).Where("video_id = ?", v.ID).Count(&n)
	assert.Zero(t, n)
}

func TestTruncateKeepsRunes(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc", truncate("abcdef", 3))

	msg := strings.Repeat("a", 499) + "ğğğ"
	out := truncate(msg, 500)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, strings.Repeat("a", 499), out)

	assert.Equal(t, "日本", truncate("日本語", 7))
}
