package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/analytics"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/youtube"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	syncVideoLimit    = 50
	syncCommentVideos = 5
	syncCommentLimit  = 50
	syncConcurrency   = 4
)

var ErrYouTubeUnavailable = errors.New("youtube data api is not configured")

// IngestService pulls channel data from the YouTube Data API into the
// yt_* tables.
type IngestService struct {
	db         *gorm.DB
	yt         *youtube.Client
	channels   *ChannelService
	classifier *CommentClassifier
}

func NewIngestService(db *gorm.DB, yt *youtube.Client, channels *ChannelService, classifier *CommentClassifier) *IngestService {
	return &IngestService{db: db, yt: yt, channels: channels, classifier: classifier}
}

type fetched struct {
	channel  *youtube.Channel
	videos   []youtube.Video
	comments map[string][]youtube.Comment
}

// uploadsPlaylist derives the uploads playlist of a "UC..." channel id.
func uploadsPlaylist(ch *models.Channel) string {
	if ch.UploadsPlaylist != "" {
		return ch.UploadsPlaylist
	}
	if strings.HasPrefix(ch.YouTubeChannelID, "UC") {
		return "UU" + ch.YouTubeChannelID[2:]
	}
	return ""
}

func (s *IngestService) fetch(ctx context.Context, channelID, playlist string) (*fetched, error) {
	out := &fetched{comments: map[string][]youtube.Comment{}}

	var ids []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, err := s.yt.GetChannel(gctx, channelID)
		if err != nil {
			return fmt.Errorf("channel: %w", err)
		}
		out.channel = snap
		return nil
	})
	if playlist != "" {
		g.Go(func() error {
			var err error
			ids, err = s.yt.ListUploadIDs(gctx, playlist, syncVideoLimit)
			if err != nil {
				return fmt.Errorf("uploads: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if playlist == "" && out.channel.UploadsPlaylist != "" {
		var err error
		ids, err = s.yt.ListUploadIDs(ctx, out.channel.UploadsPlaylist, syncVideoLimit)
		if err != nil {
			return nil, fmt.Errorf("uploads: %w", err)
		}
	}

	videos, err := s.yt.GetVideos(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("videos: %w", err)
	}
	out.videos = videos

	newest := make([]youtube.Video, len(videos))
	copy(newest, videos)
	sortNewest(newest)
	if len(newest) > syncCommentVideos {
		newest = newest[:syncCommentVideos]
	}

	results := make([][]youtube.Comment, len(newest))
	cg, cctx := errgroup.WithContext(ctx)
	cg.SetLimit(syncConcurrency)
	for i, v := range newest {
		cg.Go(func() error {
			comments, err := s.yt.ListComments(cctx, v.ID, syncCommentLimit)
			if err != nil {
				return fmt.Errorf("comments of %s: %w", v.ID, err)
			}
			results[i] = comments
			return nil
		})
	}
	if err := cg.Wait(); err != nil {
		return nil, err
	}
	for i, v := range newest {
		out.comments[v.ID] = results[i]
	}
	return out, nil
}

func sortNewest(videos []youtube.Video) {
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].PublishedAt.After(videos[j].PublishedAt)
	})
}

// Sync refreshes a channel. When the API call fails the stored snapshot is
// returned marked stale and the failure is recorded on the channel.
func (s *IngestService) Sync(ctx context.Context, userID, channelID uuid.UUID) (*dto.SyncResult, error) {
	ch, err := s.channels.Editable(userID, channelID)
	if err != nil {
		return nil, err
	}

	if !s.yt.Configured() {
		return &dto.SyncResult{Channel: ch, Stale: true, Error: ErrYouTubeUnavailable.Error()}, nil
	}

	data, err := s.fetch(ctx, ch.YouTubeChannelID, uploadsPlaylist(ch))
	if err != nil {
		msg := truncate(err.Error(), 500)
		slog.Warn("channel sync failed", "channel_id", ch.ID, "youtube_channel_id", ch.YouTubeChannelID, "error", err)
		s.db.Model(ch).Update("sync_error", msg)
		ch.SyncError = msg
		return &dto.SyncResult{Channel: ch, Stale: true, Error: msg}, nil
	}

	commentCount := 0
	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		applySnapshot(ch, data.channel)
		ch.LastSyncedAt = &now
		if err := tx.Save(ch).Error; err != nil {
			return err
		}

		if len(data.videos) > 0 {
			rows := make([]models.Video, 0, len(data.videos))
			for _, v := range data.videos {
				rows = append(rows, models.Video{
					ChannelID:       ch.ID,
					YouTubeVideoID:  v.ID,
					Title:           v.Title,
					Description:     v.Description,
					ThumbnailURL:    v.ThumbnailURL,
					PublishedAt:     v.PublishedAt,
					DurationSeconds: v.DurationSeconds,
					ViewCount:       v.ViewCount,
					LikeCount:       v.LikeCount,
					CommentCount:    v.CommentCount,
				})
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "channel_id"}, {Name: "youtube_video_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"title", "description", "thumbnail_url", "published_at", "duration_seconds",
					"view_count", "like_count", "comment_count", "updated_at",
				}),
			}).Create(&rows).Error; err != nil {
				return fmt.Errorf("upsert videos: %w", err)
			}
		}

		for ytVideoID, comments := range data.comments {
			var video models.Video
			if err := tx.Where("channel_id = ? AND youtube_video_id = ?", ch.ID, ytVideoID).First(&video).Error; err != nil {
				return err
			}
			if err := tx.Where("video_id = ?", video.ID).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if len(comments) == 0 {
				continue
			}
			rows := make([]models.Comment, 0, len(comments))
			for _, c := range comments {
				class, reason := s.classifier.Classify(c.Text)
				rows = append(rows, models.Comment{
					VideoID:          video.ID,
					YouTubeCommentID: c.ID,
					Author:           c.Author,
					Text:             c.Text,
					LikeCount:        c.LikeCount,
					Classification:   class,
					ClassifyReason:   reason,
					PublishedAt:      c.PublishedAt,
				})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("store comments: %w", err)
			}
			commentCount += len(rows)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store sync: %w", err)
	}

	slog.Info("channel synced", "channel_id", ch.ID, "videos", len(data.videos), "comments", commentCount)
	return &dto.SyncResult{Channel: ch, Videos: len(data.videos), Comments: commentCount}, nil
}

// Preview is an unsaved channel analysis for anonymous trial visitors.
type Preview struct {
	Channel struct {
		ID              string `json:"id"`
		Title           string `json:"title"`
		ThumbnailURL    string `json:"thumbnail_url"`
		SubscriberCount int64  `json:"subscriber_count"`
		VideoCount      int64  `json:"video_count"`
	} `json:"channel"`
	Summary analytics.Summary `json:"summary"`
}

func (s *IngestService) Preview(ctx context.Context, idOrHandle string) (*Preview, error) {
	if !s.yt.Configured() {
		return nil, ErrYouTubeUnavailable
	}
	idOrHandle = strings.TrimSpace(idOrHandle)
	if idOrHandle == "" {
		return nil, fmt.Errorf("%w: channel_id is required", ErrInvalidInput)
	}

	snap, err := s.yt.GetChannel(ctx, idOrHandle)
	if errors.Is(err, youtube.ErrNotFound) {
		return nil, ErrChannelNotFound
	}
	if err != nil {
		return nil, err
	}
	var videos []youtube.Video
	if snap.UploadsPlaylist != "" {
		ids, err := s.yt.ListUploadIDs(ctx, snap.UploadsPlaylist, 25)
		if err != nil {
			return nil, err
		}
		if videos, err = s.yt.GetVideos(ctx, ids); err != nil {
			return nil, err
		}
	}

	rows := make([]models.Video, len(videos))
	for i, v := range videos {
		rows[i] = models.Video{
			YouTubeVideoID: v.ID, Title: v.Title, PublishedAt: v.PublishedAt,
			DurationSeconds: v.DurationSeconds, ViewCount: v.ViewCount,
			LikeCount: v.LikeCount, CommentCount: v.CommentCount,
		}
	}

	p := &Preview{Summary: analytics.Summarize(rows, 5)}
	p.Channel.ID = snap.ID
	p.Channel.Title = snap.Title
	p.Channel.ThumbnailURL = snap.ThumbnailURL
	p.Channel.SubscriberCount = snap.SubscriberCount
	p.Channel.VideoCount = snap.VideoCount
	return p, nil
}
