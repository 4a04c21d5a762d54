package services

import (
	"regexp"
	"strings"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
)

var toxicWords = []string{
	"fuck", "fucking", "fucker", "shit", "shitty", "bullshit",
	"asshole", "bastard", "bitch", "cunt", "idiot", "stupid", "moron",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny", "kill yourself", "kys",
}

var spamPhrases = []string{
	"sub4sub", "sub 4 sub", "subscribe to my channel", "check out my channel",
	"check my channel", "free giveaway", "click the link", "whatsapp me",
	"telegram me", "earn money", "make money fast", "crypto signals",
	"dm me", "promo code",
}

var questionOpeners = []string{
	"how", "what", "why", "when", "where", "who", "which",
	"can", "could", "does", "do", "is", "are", "will", "would", "should", "did",
}

// CommentClassifier labels comments as toxic, spam, question or clean.
// Toxic wins over spam, spam over question.
type CommentClassifier struct {
	toxic          []*regexp.Regexp
	urlPattern     *regexp.Regexp
	emailPattern   *regexp.Regexp
	phonePattern   *regexp.Regexp
	allCapsPattern *regexp.Regexp
}

func NewCommentClassifier() *CommentClassifier {
	c := &CommentClassifier{
		urlPattern:     regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+|\b\S+\.(com|net|xyz|ru|io|ly)/\S*)`),
		emailPattern:   regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		phonePattern:   regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}|\(\d{3}\)\s*\d{3}[-.\s]?\d{4}`),
		allCapsPattern: regexp.MustCompile(`\b[A-Z]{5,}\b`),
	}
	c.toxic = make([]*regexp.Regexp, 0, len(toxicWords))
	for _, w := range toxicWords {
		c.toxic = append(c.toxic, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return c
}

// Classify returns the class and a short machine-readable reason.
func (c *CommentClassifier) Classify(text string) (string, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.CommentClean, ""
	}

	for _, re := range c.toxic {
		if re.MatchString(text) {
			return models.CommentToxic, "abusive_language"
		}
	}

	lower := strings.ToLower(text)
	for _, p := range spamPhrases {
		if strings.Contains(lower, p) {
			return models.CommentSpam, "promotion"
		}
	}
	if c.urlPattern.MatchString(text) {
		return models.CommentSpam, "link"
	}
	if c.emailPattern.MatchString(text) || c.phonePattern.MatchString(text) {
		return models.CommentSpam, "contact_info"
	}
	if longestRun(text) >= 8 {
		return models.CommentSpam, "repeated_characters"
	}
	if len(c.allCapsPattern.FindAllString(text, -1)) > 2 {
		return models.CommentSpam, "excessive_caps"
	}

	if strings.Contains(text, "?") {
		return models.CommentQuestion, "question_mark"
	}
	first := strings.Fields(lower)[0]
	first = strings.Trim(first, ",.!:;")
	for _, q := range questionOpeners {
		if first == q {
			return models.CommentQuestion, "question_word"
		}
	}
	return models.CommentClean, ""
}

// longestRun is the longest stretch of one repeated non-space rune.
func longestRun(text string) int {
	best, run := 0, 0
	var prev rune
	for i, r := range text {
		if i > 0 && r == prev && r != ' ' {
			run++
		} else {
			run = 1
		}
		prev = r
		if run > best {
			best = run
		}
	}
	return best
}
