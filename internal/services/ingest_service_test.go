package services

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/plans"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/testutil"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/youtube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSync(t *testing.T) {
	yt := newFakeYouTube(t)
	e := newEnv(t, yt.client())
	ctx := context.Background()
	user := testutil.CreateUser(t, e.db, "sync@example.com", plans.Pro)
	ch := &models.Channel{UserID: user.ID, YouTubeChannelID: "UCfake", Title: "Before"}
	require.NoError(t, e.db.Create(ch).Error)

	res, err := e.ingest.Sync(ctx, user.ID, ch.ID)
	require.NoError(t, err)
	assert.False(t, res.Stale)
	assert.Equal(t, 3, res.Videos)
	assert.Equal(t, 9, res.Comments)

	var stored models.Channel
	require.NoError(t, e.db.First(&stored, "id = ?", ch.ID).Error)
	assert.Equal(t, "Fake Channel", stored.Title)
	assert.NotNil(t, stored.LastSyncedAt)

	var spam, questions int64
	e.db.Model(&models.Comment{}).Where("classification = ?", models.CommentSpam).Count(&spam)
	e.db.Model(&models.Comment{}).Where("classification = ?", models.CommentQuestion).Count(&questions)
	assert.Equal(t, int64(3), spam)
	assert.Equal(t, int64(3), questions)

	// A second sync upserts instead of duplicating.
	res, err = e.ingest.Sync(ctx, user.ID, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Videos)
	var videos, comments int64
	e.db.Model(&models.Video{}).Where("channel_id = ?", ch.ID).Count(&videos)
	e.db.Model(&models.Comment{}).Count(&comments)
	assert.Equal(t, int64(3), videos)
	assert.Equal(t, int64(9), comments)
}

func TestSyncFailureKeepsSnapshot(t *testing.T) {
	yt := newFakeYouTube(t)
	e := newEnv(t, yt.client())
	user := testutil.CreateUser(t, e.db, "stale@example.com", plans.Pro)
	ch, _ := seedChannel(t, e.db, user.ID, "UCstale", 100, 200)

	yt.fail.Store(true)
	res, err := e.ingest.Sync(context.Background(), user.ID, ch.ID)
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Contains(t, res.Error, "quota")

	var stored models.Channel
	require.NoError(t, e.db.First(&stored, "id = ?", ch.ID).Error)
	assert.Equal(t, res.Error, stored.SyncError)
	assert.Equal(t, "Channel UCstale", stored.Title)

	var n int64
	e.db.Model(&models.Video{}).Where("channel_id = ?", ch.ID).Count(&n)
	assert.Equal(t, int64(2), n)
}

func TestSyncWithoutAPIKey(t *testing.T) {
	e := newEnv(t, nil)
	user := testutil.CreateUser(t, e.db, "nokey@example.com", plans.Pro)
	ch, _ := seedChannel(t, e.db, user.ID, "UCnokey", 1)

	res, err := e.ingest.Sync(context.Background(), user.ID, ch.ID)
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Equal(t, ErrYouTubeUnavailable.Error(), res.Error)

	_, err = e.ingest.Preview(context.Background(), "UCnokey")
	assert.ErrorIs(t, err, ErrYouTubeUnavailable)
}

func TestPreview(t *testing.T) {
	yt := newFakeYouTube(t)
	e := newEnv(t, yt.client())

	p, err := e.ingest.Preview(context.Background(), "@fake")
	require.NoError(t, err)
	assert.Equal(t, "Fake Channel", p.Channel.Title)
	assert.Equal(t, 3, p.Summary.VideoCount)
	assert.Equal(t, int64(9000), p.Summary.TotalViews)

	_, err = e.ingest.Preview(context.Background(), "UCmissing")
	assert.ErrorIs(t, err, ErrChannelNotFound)

	var n int64
	e.db.Model(&models.Channel{}).Count(&n)
	assert.Zero(t, n, "previews are never stored")
}

func TestSortNewest(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	videos := []youtube.Video{
		{ID: "mid", PublishedAt: base.Add(24 * time.Hour)},
		{ID: "old", PublishedAt: base},
		{ID: "new", PublishedAt: base.Add(48 * time.Hour)},
		{ID: "tie", PublishedAt: base.Add(24 * time.Hour)},
	}
	sortNewest(videos)

	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}
	assert.Equal(t, []string{"new", "mid", "tie", "old"}, ids)
}
