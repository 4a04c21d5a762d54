package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/config"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/i18n"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/plans"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/testutil"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/youtube"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	db         *gorm.DB
	cfg        *config.Config
	plans      *plans.Registry
	catalog    *i18n.Catalog
	events     *SyncService
	devices    *DeviceService
	auth       *AuthService
	users      *UserService
	teams      *TeamService
	channels   *ChannelService
	videos     *VideoService
	comments   *CommentService
	classifier *CommentClassifier
	ingest     *IngestService
	reports    *ReportService
	dashboards *DashboardService
	insights   *InsightService
}

func newEnv(t *testing.T, yt *youtube.Client) *env {
	t.Helper()
	db := testutil.NewDB(t)
	catalog, err := i18n.Load(i18n.DefaultLocale)
	require.NoError(t, err)
	if yt == nil {
		yt = youtube.NewClient("", "", 0)
	}

	e := &env{db: db, cfg: testutil.Config(), plans: plans.Default(), catalog: catalog}
	e.events = NewSyncService(db)
	e.devices = NewDeviceService(db, e.plans, e.events)
	e.auth = NewAuthService(db, e.cfg, e.devices, e.events)
	e.users = NewUserService(db, catalog, e.events)
	e.teams = NewTeamService(db)
	e.channels = NewChannelService(db, e.plans, yt, e.teams)
	e.videos = NewVideoService(db, e.channels)
	e.classifier = NewCommentClassifier()
	e.comments = NewCommentService(db, e.videos, e.classifier)
	e.ingest = NewIngestService(db, yt, e.channels, e.classifier)
	e.reports = NewReportService(db, e.plans, e.channels, e.videos, e.comments, catalog)
	e.dashboards = NewDashboardService(db, e.channels, e.videos, e.events)
	e.insights = NewInsightService(db, e.channels, e.videos, e.comments, catalog, nil)
	return e
}

// seedChannel stores a channel with one video per entry of views, published
// a week apart, newest last.
func seedChannel(t *testing.T, db *gorm.DB, owner uuid.UUID, ytID string, views ...int64) (*models.Channel, []models.Video) {
	t.Helper()
	ch := &models.Channel{UserID: owner, YouTubeChannelID: ytID, Title: "Channel " + ytID, SubscriberCount: 1000}
	require.NoError(t, db.Create(ch).Error)

	start := time.Now().AddDate(0, 0, -7*len(views))
	videos := make([]models.Video, len(views))
	for i, v := range views {
		videos[i] = models.Video{
			ChannelID:       ch.ID,
			YouTubeVideoID:  ytID + "-v" + string(rune('a'+i)),
			Title:           "Video " + string(rune('A'+i)),
			PublishedAt:     start.AddDate(0, 0, 7*i),
			DurationSeconds: 300,
			ViewCount:       v,
			LikeCount:       v / 20,
			CommentCount:    v / 100,
		}
		require.NoError(t, db.Create(&videos[i]).Error)
	}
	return ch, videos
}

type fakeYouTube struct {
	*httptest.Server
	fail     atomic.Bool
	requests atomic.Int32
}

// newFakeYouTube serves channel UCfake with uploads v1..v3 and a few
// comments per video.
func newFakeYouTube(t *testing.T) *fakeYouTube {
	t.Helper()
	f := &fakeYouTube{}
	write := func(w http.ResponseWriter, body any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			id = r.URL.Query().Get("forHandle")
		}
		if id == "UCmissing" {
			write(w, map[string]any{"items": []any{}})
			return
		}
		write(w, map[string]any{"items": []map[string]any{{
			"id":             "UCfake",
			"snippet":        map[string]any{"title": "Fake Channel", "publishedAt": "2020-01-01T00:00:00Z"},
			"statistics":     map[string]any{"viewCount": "9000", "subscriberCount": "1200", "videoCount": "3"},
			"contentDetails": map[string]any{"relatedPlaylists": map[string]any{"uploads": "UUfake"}},
		}}})
	})
	mux.HandleFunc("/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{"items": []map[string]any{
			{"contentDetails": map[string]any{"videoId": "v1"}},
			{"contentDetails": map[string]any{"videoId": "v2"}},
			{"contentDetails": map[string]any{"videoId": "v3"}},
		}})
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		var items []map[string]any
		for i, id := range strings.Split(r.URL.Query().Get("id"), ",") {
			items = append(items, map[string]any{
				"id": id,
				"snippet": map[string]any{
					"title":       "Video " + id,
					"publishedAt": time.Date(2024, 3, 1+i, 10, 0, 0, 0, time.UTC).Format(time.RFC3339),
				},
				"statistics":     map[string]any{"viewCount": "3000", "likeCount": "120", "commentCount": "30"},
				"contentDetails": map[string]any{"duration": "PT10M"},
			})
		}
		write(w, map[string]any{"items": items})
	})
	mux.HandleFunc("/commentThreads", func(w http.ResponseWriter, r *http.Request) {
		vid := r.URL.Query().Get("videoId")
		comment := func(id, text string) map[string]any {
			return map[string]any{"id": id, "snippet": map[string]any{"topLevelComment": map[string]any{
				"snippet": map[string]any{"authorDisplayName": "viewer", "textDisplay": text, "likeCount": 1,
					"publishedAt": "2024-03-05T10:00:00Z"},
			}}}
		}
		write(w, map[string]any{"items": []map[string]any{
			comment(vid+"-c1", "Great video, thanks"),
			comment(vid+"-c2", "How did you edit this?"),
			comment(vid+"-c3", "sub4sub anyone"),
		}})
	})

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if f.fail.Load() {
			w.WriteHeader(http.StatusForbidden)
			write(w, map[string]any{"error": map[string]any{
				"message": "quota", "errors": []map[string]any{{"reason": "quotaExceeded"}},
			}})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeYouTube) client() *youtube.Client {
	return youtube.NewClient(f.URL, "test-key", 100)
}
