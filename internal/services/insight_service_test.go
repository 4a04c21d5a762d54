package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/plans"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNarrator struct {
	prompt string
	text   string
	err    error
}

func (n *stubNarrator) Narrate(_ context.Context, prompt string) (string, error) {
	n.prompt = prompt
	return n.text, n.err
}

func (n *stubNarrator) Model() string { return "stub-model" }

func kinds(findings []Finding) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = f.Kind
	}
	return out
}

func TestFindings(t *testing.T) {
	e := newEnv(t, nil)
	user := testutil.CreateUser(t, e.db, "find@example.com", plans.Pro)
	_, videos := seedChannel(t, e.db, user.ID, "UCfind", 100, 120, 110, 5000)

	got := e.insights.Findings("en", videos, nil)
	assert.Equal(t, []string{"cadence", "best_weekday", "outlier"}, kinds(got))
	assert.Equal(t, "info", got[0].Severity)
	assert.Contains(t, got[2].Message, "Video D")

	// No likes and a spammy comment section.
	for i := range videos {
		videos[i].LikeCount, videos[i].CommentCount = 0, 0
	}
	comments := []models.Comment{
		{Classification: models.CommentSpam}, {Classification: models.CommentClean},
	}
	got = e.insights.Findings("de", videos, comments)
	assert.Contains(t, kinds(got), "engagement")
	assert.Contains(t, kinds(got), "comment_health")

	assert.Empty(t, e.insights.Findings("en", nil, nil))
}

func TestGenerateInsight(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	user := testutil.CreateUser(t, e.db, "ins@example.com", plans.Pro)
	ch, _ := seedChannel(t, e.db, user.ID, "UCins", 100, 120, 110, 5000)

	rules, err := e.insights.Generate(ctx, user.ID, ch.ID, "en")
	require.NoError(t, err)
	assert.Equal(t, InsightSourceRules, rules.Source)
	assert.True(t, strings.HasPrefix(rules.Summary, "Channel UCins averaged"))
	var findings []Finding
	require.NoError(t, json.Unmarshal(rules.Findings, &findings))
	assert.NotEmpty(t, findings)

	narrator := &stubNarrator{text: "Your channel is growing."}
	e.insights.narrator = narrator
	ai, err := e.insights.Generate(ctx, user.ID, ch.ID, "en")
	require.NoError(t, err)
	assert.Equal(t, InsightSourceAI, ai.Source)
	assert.Equal(t, "stub-model", ai.Model)
	assert.Equal(t, "Your channel is growing.", ai.Summary)
	assert.Contains(t, narrator.prompt, "Channel UCins")

	e.insights.narrator = &stubNarrator{err: errors.New("deadline exceeded")}
	fallback, err := e.insights.Generate(ctx, user.ID, ch.ID, "en")
	require.NoError(t, err)
	assert.Equal(t, InsightSourceRules, fallback.Source)

	list, total, err := e.insights.List(user.ID, &ch.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 3)

	_, err = e.insights.Generate(ctx, uuid.New(), ch.ID, "en")
	assert.ErrorIs(t, err, ErrChannelNotFound)

	require.NoError(t, e.insights.Delete(user.ID, ai.ID))
	assert.ErrorIs(t, e.insights.Delete(user.ID, ai.ID), ErrInsightNotFound)
}
