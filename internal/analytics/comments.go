package analytics

import "github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"

type CommentBreakdown struct {
	Total         int            `json:"total"`
	ByClass       map[string]int `json:"by_class"`
	SpamRatio     float64        `json:"spam_ratio"`
	ToxicRatio    float64        `json:"toxic_ratio"`
	QuestionRatio float64        `json:"question_ratio"`
	AvgLikes      float64        `json:"avg_likes"`
}

func BreakdownComments(comments []models.Comment) CommentBreakdown {
	b := CommentBreakdown{
		Total: len(comments),
		ByClass: map[string]int{
			models.CommentClean:    0,
			models.CommentQuestion: 0,
			models.CommentSpam:     0,
			models.CommentToxic:    0,
		},
	}
	if len(comments) == 0 {
		return b
	}
	var likes int64
	for _, c := range comments {
		class := c.Classification
		if class == "" {
			class = models.CommentClean
		}
		b.ByClass[class]++
		likes += c.LikeCount
	}
	n := float64(len(comments))
	b.SpamRatio = round(float64(b.ByClass[models.CommentSpam])/n, 4)
	b.ToxicRatio = round(float64(b.ByClass[models.CommentToxic])/n, 4)
	b.QuestionRatio = round(float64(b.ByClass[models.CommentQuestion])/n, 4)
	b.AvgLikes = round(float64(likes)/n, 2)
	return b
}
