package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/analytics"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/i18n"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrInsightNotFound = errors.New("insight not found")

const (
	InsightSourceRules = "rules"
	InsightSourceAI    = "ai"

	lowCadencePerWeek  = 1.0
	lowEngagementRate  = 0.02
	highSpamRatio      = 0.2
	outlierFactor      = 3.0
	insightWindowVideo = 50
)

type Finding struct {
	Kind     string  `json:"kind"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
	Value    float64 `json:"value,omitempty"`
	VideoID  string  `json:"video_id,omitempty"`
}

type InsightService struct {
	db       *gorm.DB
	channels *ChannelService
	videos   *VideoService
	comments *CommentService
	catalog  *i18n.Catalog
	narrator Narrator
}

func NewInsightService(db *gorm.DB, channels *ChannelService, videos *VideoService, comments *CommentService,
	catalog *i18n.Catalog, narrator Narrator) *InsightService {
	return &InsightService{
		db:       db,
		channels: channels,
		videos:   videos,
		comments: comments,
		catalog:  catalog,
		narrator: narrator,
	}
}

func percent(f float64) string {
	return strconv.FormatFloat(f*100, 'f', 1, 64) + "%"
}

// Findings derives rule-based observations from a channel's recent videos
// and comments.
func (s *InsightService) Findings(locale string, videos []models.Video, comments []models.Comment) []Finding {
	t := func(key string, args ...interface{}) string { return s.catalog.T(locale, key, args...) }
	var out []Finding
	if len(videos) == 0 {
		return out
	}

	summary := analytics.Summarize(videos, 0)
	perWeek := strconv.FormatFloat(summary.UploadsPerWeek, 'f', 1, 64)
	if summary.UploadsPerWeek < lowCadencePerWeek {
		out = append(out, Finding{Kind: "cadence", Severity: "warning", Value: summary.UploadsPerWeek,
			Message: t("insight.cadence_low", "per_week", perWeek)})
	} else {
		out = append(out, Finding{Kind: "cadence", Severity: "info", Value: summary.UploadsPerWeek,
			Message: t("insight.cadence_good", "per_week", perWeek)})
	}

	if summary.BestWeekday != "" && len(videos) >= 3 {
		out = append(out, Finding{Kind: "best_weekday", Severity: "info",
			Message: t("insight.best_weekday", "weekday", summary.BestWeekday)})
	}

	if summary.TotalViews > 0 && summary.EngagementRate < lowEngagementRate {
		out = append(out, Finding{Kind: "engagement", Severity: "warning", Value: summary.EngagementRate,
			Message: t("insight.engagement_low")})
	}

	for _, v := range analytics.Outliers(videos, outlierFactor) {
		out = append(out, Finding{Kind: "outlier", Severity: "positive", Value: float64(v.Views), VideoID: v.ID,
			Message: t("insight.outlier", "title", v.Title, "views", v.Views)})
	}

	if len(comments) > 0 {
		b := analytics.BreakdownComments(comments)
		if b.SpamRatio >= highSpamRatio {
			out = append(out, Finding{Kind: "comment_health", Severity: "warning", Value: b.SpamRatio,
				Message: t("insight.spam_high", "ratio", percent(b.SpamRatio))})
		}
	}
	return out
}

func (s *InsightService) Generate(ctx context.Context, userID, channelID uuid.UUID, locale string) (*models.AIInsight, error) {
	ch, err := s.channels.Get(userID, channelID)
	if err != nil {
		return nil, err
	}
	all, err := s.videos.ForChannels([]uuid.UUID{ch.ID})
	if err != nil {
		return nil, err
	}
	videos := analytics.SortVideos(all, analytics.ByPublished)
	if len(videos) > insightWindowVideo {
		videos = videos[:insightWindowVideo]
	}
	ids := make([]uuid.UUID, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}
	comments, err := s.comments.ForVideos(ids)
	if err != nil {
		return nil, err
	}

	findings := s.Findings(locale, videos, comments)
	summary := analytics.Summarize(videos, 0)
	text := s.catalog.T(locale, "insight.summary",
		"channel", ch.Title,
		"avg_views", strconv.FormatFloat(summary.AvgViews, 'f', 0, 64),
		"engagement", percent(summary.EngagementRate))

	insight := models.AIInsight{UserID: userID, ChannelID: ch.ID, Summary: text, Source: InsightSourceRules}
	if s.narrator != nil && len(findings) > 0 {
		narrative, err := s.narrator.Narrate(ctx, buildPrompt(ch, locale, summary, findings))
		if err != nil {
			slog.Warn("ai narrative failed, using template", "channel_id", ch.ID, "error", err)
		} else {
			insight.Summary = narrative
			insight.Source = InsightSourceAI
			insight.Model = s.narrator.Model()
		}
	}

	if findings == nil {
		findings = []Finding{}
	}
	raw, err := json.Marshal(findings)
	if err != nil {
		return nil, err
	}
	insight.Findings = datatypes.JSON(raw)
	if err := s.db.Create(&insight).Error; err != nil {
		return nil, fmt.Errorf("failed to store insight: %w", err)
	}
	return &insight, nil
}

func buildPrompt(ch *models.Channel, locale string, summary analytics.Summary, findings []Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a YouTube growth analyst. Write a short, friendly summary (max 4 sentences) in locale %q for the channel %q.\n", locale, ch.Title)
	fmt.Fprintf(&b, "Videos analysed: %d. Average views: %.0f. Median views: %.0f. Engagement rate: %s. Uploads per week: %.1f.\n",
		summary.VideoCount, summary.AvgViews, summary.MedianViews, percent(summary.EngagementRate), summary.UploadsPerWeek)
	b.WriteString("Findings:\n")
	for _, f := range findings {
		fmt.Fprintf(&b, "- [%s] %s\n", f.Severity, f.Message)
	}
	b.WriteString("Do not invent numbers that are not listed above.")
	return b.String()
}

func (s *InsightService) List(userID uuid.UUID, channelID *uuid.UUID, page, limit int) ([]models.AIInsight, int64, error) {
	q := s.db.Model(&models.AIInsight{}).Scopes(tenant.ForUser(userID))
	if channelID != nil {
		q = q.Where("channel_id = ?", *channelID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var insights []models.AIInsight
	err := q.Order("created_at DESC").Scopes(tenant.Paginate(page, limit)).Find(&insights).Error
	return insights, total, err
}

func (s *InsightService) Delete(userID, id uuid.UUID) error {
	res := s.db.Scopes(tenant.ForUser(userID)).Where("id = ?", id).Delete(&models.AIInsight{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsightNotFound
	}
	return nil
}
