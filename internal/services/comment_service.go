package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrCommentNotFound = errors.New("comment not found")

type CommentService struct {
	db         *gorm.DB
	videos     *VideoService
	classifier *CommentClassifier
}

func NewCommentService(db *gorm.DB, videos *VideoService, classifier *CommentClassifier) *CommentService {
	return &CommentService{db: db, videos: videos, classifier: classifier}
}

func (s *CommentService) List(userID, videoID uuid.UUID, class string, page, limit int) ([]models.Comment, int64, error) {
	if _, err := s.videos.Get(userID, videoID); err != nil {
		return nil, 0, err
	}
	q := s.db.Model(&models.Comment{}).Where("video_id = ?", videoID)
	if class != "" {
		q = q.Where("classification = ?", class)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var comments []models.Comment
	err := q.Order("like_count DESC, published_at DESC").Scopes(tenant.Paginate(page, limit)).Find(&comments).Error
	return comments, total, err
}

func (s *CommentService) Create(userID, videoID uuid.UUID, req *dto.CreateCommentRequest) (*models.Comment, error) {
	if _, err := s.videos.editable(userID, videoID); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	author := strings.TrimSpace(req.Author)
	if author == "" {
		author = "anonymous"
	}

	class, reason := s.classifier.Classify(text)
	c := models.Comment{
		VideoID:        videoID,
		Author:         author,
		Text:           text,
		LikeCount:      req.LikeCount,
		Classification: class,
		ClassifyReason: reason,
		PublishedAt:    time.Now(),
	}
	if err := s.db.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return &c, nil
}

func (s *CommentService) Delete(userID, id uuid.UUID) error {
	var c models.Comment
	if err := s.db.First(&c, "id = ?", id).Error; err != nil {
		return ErrCommentNotFound
	}
	if _, err := s.videos.editable(userID, c.VideoID); err != nil {
		if errors.Is(err, ErrVideoNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	return s.db.Delete(&c).Error
}

// ForVideos loads every comment of the given videos.
func (s *CommentService) ForVideos(videoIDs []uuid.UUID) ([]models.Comment, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}
	var comments []models.Comment
	err := s.db.Where("video_id IN ?", videoIDs).Find(&comments).Error
	return comments, err
}
