package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/analytics"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/i18n"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/plans"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/storage"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrReportNotFound    = errors.New("report not found")
	ErrInvalidReportType = errors.New("invalid report type")
	ErrInvalidFormat     = errors.New("format must be csv or json")
)

const (
	defaultPeriodDays = 30
	maxPeriodDays     = 365
)

type ReportService struct {
	db       *gorm.DB
	plans    *plans.Registry
	channels *ChannelService
	videos   *VideoService
	comments *CommentService
	catalog  *i18n.Catalog
	uploader storage.Uploader
	linkTTL  time.Duration
}

func NewReportService(db *gorm.DB, registry *plans.Registry, channels *ChannelService, videos *VideoService,
	comments *CommentService, catalog *i18n.Catalog) *ReportService {
	return &ReportService{
		db:       db,
		plans:    registry,
		channels: channels,
		videos:   videos,
		comments: comments,
		catalog:  catalog,
	}
}

// WithStorage makes exports upload to object storage and return a link.
func (s *ReportService) WithStorage(u storage.Uploader, linkTTL time.Duration) *ReportService {
	s.uploader = u
	s.linkTTL = linkTTL
	return s
}

func ValidReportType(t string) bool {
	switch t {
	case models.ReportChannelSummary, models.ReportTopVideos, models.ReportEngagement, models.ReportCommentHealth:
		return true
	}
	return false
}

func monthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// UsedThisMonth counts reports the user generated in the current calendar
// month (UTC), deleted ones included.
func (s *ReportService) UsedThisMonth(userID uuid.UUID) int64 {
	var n int64
	s.db.Unscoped().Model(&models.Report{}).Where("user_id = ? AND created_at >= ?", userID, monthStart(time.Now())).Count(&n)
	return n
}

func (s *ReportService) Create(userID uuid.UUID, locale string, req *dto.CreateReportRequest) (*models.Report, error) {
	if !ValidReportType(req.Type) {
		return nil, ErrInvalidReportType
	}
	period := req.PeriodDays
	if period <= 0 {
		period = defaultPeriodDays
	}
	if period > maxPeriodDays {
		return nil, fmt.Errorf("%w: period_days cannot exceed %d", ErrInvalidInput, maxPeriodDays)
	}

	ch, err := s.channels.Get(userID, req.ChannelID)
	if err != nil {
		return nil, err
	}

	plan := planOf(s.db, s.plans, userID)
	if !plans.Within(plan.MaxReportsPerMonth, s.UsedThisMonth(userID)) {
		return nil, fmt.Errorf("%w: %s allows %d reports per month", ErrPlanLimit, plan.Name, plan.MaxReportsPerMonth)
	}

	content, err := s.build(ch, req.Type, period)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	title := req.Title
	if title == "" {
		title = s.catalog.T(locale, "report."+req.Type) + " - " + ch.Title
	}
	report := models.Report{
		UserID:     userID,
		ChannelID:  ch.ID,
		Type:       req.Type,
		Title:      title,
		PeriodDays: period,
		Content:    datatypes.JSON(raw),
	}
	if err := s.db.Create(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return &report, nil
}

func (s *ReportService) build(ch *models.Channel, typ string, period int) (map[string]interface{}, error) {
	all, err := s.videos.ForChannels([]uuid.UUID{ch.ID})
	if err != nil {
		return nil, err
	}
	since := time.Now().AddDate(0, 0, -period)
	videos := analytics.FilterSince(all, since)

	content := map[string]interface{}{
		"channel": map[string]interface{}{
			"id":               ch.ID,
			"title":            ch.Title,
			"subscriber_count": ch.SubscriberCount,
			"view_count":       ch.ViewCount,
			"video_count":      ch.VideoCount,
		},
		"period_days":  period,
		"since":        since.UTC().Format(time.RFC3339),
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	}

	switch typ {
	case models.ReportChannelSummary:
		content["summary"] = analytics.Summarize(videos, 10)
	case models.ReportTopVideos:
		content["by_views"] = analytics.TopVideos(videos, 20, analytics.ByViews)
		content["by_likes"] = analytics.TopVideos(videos, 10, analytics.ByLikes)
		content["by_engagement"] = analytics.TopVideos(videos, 10, analytics.ByEngagement)
	case models.ReportEngagement:
		summary := analytics.Summarize(videos, 0)
		content["engagement_rate"] = summary.EngagementRate
		content["avg_likes"] = summary.AvgLikes
		content["uploads_per_week"] = summary.UploadsPerWeek
		content["videos"] = analytics.TopVideos(videos, 0, analytics.ByEngagement)
		outliers := analytics.Outliers(videos, 3)
		if outliers == nil {
			outliers = []analytics.VideoStat{}
		}
		content["outliers"] = outliers
	case models.ReportCommentHealth:
		ids := make([]uuid.UUID, len(videos))
		for i, v := range videos {
			ids[i] = v.ID
		}
		comments, err := s.comments.ForVideos(ids)
		if err != nil {
			return nil, err
		}
		content["breakdown"] = analytics.BreakdownComments(comments)
		content["questions"] = topQuestions(comments, 10)
	}
	return content, nil
}

func topQuestions(comments []models.Comment, n int) []map[string]interface{} {
	var qs []models.Comment
	for _, c := range comments {
		if c.Classification == models.CommentQuestion {
			qs = append(qs, c)
		}
	}
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].LikeCount > qs[j].LikeCount })
	if len(qs) > n {
		qs = qs[:n]
	}
	out := make([]map[string]interface{}, len(qs))
	for i, c := range qs {
		out[i] = map[string]interface{}{"author": c.Author, "text": c.Text, "likes": c.LikeCount}
	}
	return out
}

func (s *ReportService) List(userID uuid.UUID, channelID *uuid.UUID, page, limit int) ([]models.Report, int64, error) {
	q := s.db.Model(&models.Report{}).Scopes(tenant.ForUser(userID))
	if channelID != nil {
		q = q.Where("channel_id = ?", *channelID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reports []models.Report
	err := q.Omit("content").Order("created_at DESC").Scopes(tenant.Paginate(page, limit)).Find(&reports).Error
	return reports, total, err
}

func (s *ReportService) Get(userID, id uuid.UUID) (*models.Report, error) {
	var r models.Report
	if err := s.db.Scopes(tenant.ForUser(userID)).First(&r, "id = ?", id).Error; err != nil {
		return nil, ErrReportNotFound
	}
	return &r, nil
}

func (s *ReportService) Delete(userID, id uuid.UUID) error {
	res := s.db.Scopes(tenant.ForUser(userID)).Where("id = ?", id).Delete(&models.Report{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

// Export is a rendered report file. URL is set when the file was uploaded
// to object storage; otherwise Data should be streamed to the client.
type Export struct {
	Format      string
	ContentType string
	Filename    string
	Data        []byte
	URL         string
	Key         string
	ExpiresAt   time.Time
}

func (s *ReportService) Export(ctx context.Context, userID, id uuid.UUID, format string) (*Export, error) {
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		return nil, ErrInvalidFormat
	}
	r, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	out := &Export{Format: format, Filename: fmt.Sprintf("%s-%s.%s", r.Type, r.ID, format)}
	switch format {
	case "json":
		out.ContentType = "application/json"
		var buf bytes.Buffer
		if err := json.Indent(&buf, r.Content, "", "  "); err != nil {
			return nil, fmt.Errorf("failed to render report: %w", err)
		}
		out.Data = buf.Bytes()
	default:
		out.ContentType = "text/csv"
		data, err := RenderCSV(r.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to render report: %w", err)
		}
		out.Data = data
	}

	if s.uploader == nil {
		return out, nil
	}

	now := time.Now()
	out.Key = fmt.Sprintf("%s/%s-%d.%s", userID, r.ID, now.Unix(), format)
	url, err := s.uploader.Upload(ctx, out.Key, out.ContentType, out.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}
	out.URL = url
	out.ExpiresAt = now.Add(s.linkTTL).UTC()
	s.db.Model(r).Update("export_key", out.Key)
	return out, nil
}

// RenderCSV writes report content as a metric/value sheet followed by one
// table per list of objects.
func RenderCSV(content []byte) ([]byte, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	scalars := map[string]string{}
	tables := map[string][]map[string]interface{}{}
	flattenReport("", doc, scalars, tables)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"metric", "value"})
	for _, k := range sortedKeys(scalars) {
		_ = w.Write([]string{k, scalars[k]})
	}

	for _, name := range sortedKeys(tables) {
		rows := tables[name]
		cols := map[string]bool{}
		for _, row := range rows {
			for k := range row {
				cols[k] = true
			}
		}
		header := sortedKeys(cols)
		_ = w.Write([]string{})
		_ = w.Write([]string{name})
		_ = w.Write(header)
		for _, row := range rows {
			record := make([]string, len(header))
			for i, col := range header {
				record[i] = csvValue(row[col])
			}
			_ = w.Write(record)
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func flattenReport(prefix string, in map[string]interface{}, scalars map[string]string, tables map[string][]map[string]interface{}) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flattenReport(key, val, scalars, tables)
		case []interface{}:
			rows := make([]map[string]interface{}, 0, len(val))
			for _, item := range val {
				if m, ok := item.(map[string]interface{}); ok {
					rows = append(rows, m)
				}
			}
			if len(rows) == len(val) && len(rows) > 0 {
				tables[key] = rows
			} else if len(rows) == 0 {
				parts := make([]string, len(val))
				for i, item := range val {
					parts[i] = csvValue(item)
				}
				scalars[key] = strings.Join(parts, "; ")
			}
		default:
			scalars[key] = csvValue(val)
		}
	}
}

func csvValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
