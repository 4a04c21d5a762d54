// Package youtube is a small YouTube Data API v3 client covering the
// read-only endpoints the analytics pipeline needs.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"
	maxBatch       = 50
)

var (
	ErrNotConfigured = errors.New("youtube api key not configured")
	ErrNotFound      = errors.New("youtube resource not found")
	ErrQuotaExceeded = errors.New("youtube quota exceeded")
)

// APIError is a non-2xx answer from the Data API.
type APIError struct {
	Status  int
	Reason  string
	Message string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("youtube api error (status %d, %s): %s", e.Status, e.Reason, e.Message)
	}
	return fmt.Sprintf("youtube api error (status %d): %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Reason == "quotaExceeded" || e.Reason == "dailyLimitExceeded" {
		return ErrQuotaExceeded
	}
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client allowing rps requests per second.
func NewClient(baseURL, apiKey string, rps int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), rps),
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	params.Set("key", c.apiKey)
	apiURL := c.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
				Errors  []struct {
					Reason string `json:"reason"`
				} `json:"errors"`
			} `json:"error"`
		}
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			if errResp.Error.Message != "" {
				apiErr.Message = errResp.Error.Message
			}
			if len(errResp.Error.Errors) > 0 {
				apiErr.Reason = errResp.Error.Errors[0].Reason
			}
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetChannel fetches a channel by id ("UC...") or by handle ("@name").
func (c *Client) GetChannel(ctx context.Context, idOrHandle string) (*Channel, error) {
	params := url.Values{"part": {"snippet,statistics,contentDetails"}}
	switch {
	case strings.HasPrefix(idOrHandle, "@"):
		params.Set("forHandle", idOrHandle)
	default:
		params.Set("id", idOrHandle)
	}

	var resp channelListResponse
	if err := c.doRequest(ctx, "/channels", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, ErrNotFound
	}
	ch := resp.Items[0].toChannel()
	return &ch, nil
}

// ListUploadIDs returns up to max video ids from an uploads playlist, newest first.
func (c *Client) ListUploadIDs(ctx context.Context, playlistID string, max int) ([]string, error) {
	var ids []string
	pageToken := ""
	for len(ids) < max {
		params := url.Values{
			"part":       {"contentDetails"},
			"playlistId": {playlistID},
			"maxResults": {strconv.Itoa(min(maxBatch, max-len(ids)))},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		var resp playlistItemsResponse
		if err := c.doRequest(ctx, "/playlistItems", params, &resp); err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			ids = append(ids, item.ContentDetails.VideoID)
		}
		if resp.NextPageToken == "" || len(resp.Items) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}
	return ids, nil
}

// GetVideos fetches statistics for ids in batches of 50.
func (c *Client) GetVideos(ctx context.Context, ids []string) ([]Video, error) {
	videos := make([]Video, 0, len(ids))
	for start := 0; start < len(ids); start += maxBatch {
		end := min(start+maxBatch, len(ids))
		params := url.Values{
			"part": {"snippet,statistics,contentDetails"},
			"id":   {strings.Join(ids[start:end], ",")},
		}
		var resp videoListResponse
		if err := c.doRequest(ctx, "/videos", params, &resp); err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			videos = append(videos, item.toVideo())
		}
	}
	return videos, nil
}

// ListComments returns up to max top-level comments of a video, by relevance.
// Videos with comments disabled yield an empty list.
func (c *Client) ListComments(ctx context.Context, videoID string, max int) ([]Comment, error) {
	params := url.Values{
		"part":       {"snippet"},
		"videoId":    {videoID},
		"order":      {"relevance"},
		"textFormat": {"plainText"},
		"maxResults": {strconv.Itoa(min(100, max))},
	}
	var resp commentThreadsResponse
	if err := c.doRequest(ctx, "/commentThreads", params, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Reason == "commentsDisabled" {
			return nil, nil
		}
		return nil, err
	}
	comments := make([]Comment, 0, len(resp.Items))
	for _, item := range resp.Items {
		comments = append(comments, item.toComment())
		if len(comments) >= max {
			break
		}
	}
	return comments, nil
}
