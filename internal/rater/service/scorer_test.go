package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang-stock-rater/internal/rater/config"
	"golang-stock-rater/internal/rater/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validResponse = `{"technical_score":8,"fundamental_score":7,"growth_score":6,"sentiment_score":5,"industry_risk_score":4,"reason":"ok"}`

// fakeAIRepository scripts Generate behavior per call.
type fakeAIRepository struct {
	calls     atomic.Int32
	responses []func(ctx context.Context) (string, error)
}

func (f *fakeAIRepository) Generate(ctx context.Context, messages []dto.Message) (string, error) {
	n := int(f.calls.Add(1)) - 1
	if n >= len(f.responses) {
		n = len(f.responses) - 1
	}
	return f.responses[n](ctx)
}

func testScorerConfig() *config.Config {
	return &config.Config{
		Rater: config.Rater{
			MaxAttempts:       3,
			Timeout:           150 * time.Millisecond,
			PollInterval:      5 * time.Millisecond,
			HeartbeatInterval: 50 * time.Millisecond,
		},
	}
}

func newTestScorer(t *testing.T, repo *fakeAIRepository, cfg *config.Config) Scorer {
	t.Helper()
	log := newTestLogger(t)
	return NewScorer(cfg, log, repo)
}

func TestScoreOneSuccessFirstAttempt(t *testing.T) {
	repo := &fakeAIRepository{responses: []func(ctx context.Context) (string, error){
		func(ctx context.Context) (string, error) { return validResponse, nil },
	}}
	s := newTestScorer(t, repo, testScorerConfig())

	res, err := s.ScoreOne(context.Background(), "NVDA.US", &dto.Quote{Symbol: "NVDA.US", Name: "NVIDIA"})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "NVDA.US", res.StockCode)
	assert.Equal(t, "NVIDIA", res.Name)
	assert.InDelta(t, 6.80, res.OverallScore, 1e-9)
	assert.Equal(t, int32(1), repo.calls.Load())
}

func TestScoreOneRetriesProviderErrors(t *testing.T) {
	repo := &fakeAIRepository{responses: []func(ctx context.Context) (string, error){
		func(ctx context.Context) (string, error) { return "", errors.New("connection refused") },
		func(ctx context.Context) (string, error) { return "", errors.New("connection refused") },
		func(ctx context.Context) (string, error) { return validResponse, nil },
	}}
	s := newTestScorer(t, repo, testScorerConfig())

	res, err := s.ScoreOne(context.Background(), "X", &dto.Quote{Symbol: "X"})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, int32(3), repo.calls.Load())
}

func TestScoreOneExhaustsRetriesWithParseError(t *testing.T) {
	repo := &fakeAIRepository{responses: []func(ctx context.Context) (string, error){
		func(ctx context.Context) (string, error) { return "no braces here", nil },
	}}
	s := newTestScorer(t, repo, testScorerConfig())

	res, err := s.ScoreOne(context.Background(), "X", &dto.Quote{Symbol: "X"})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, dto.ScoreErrorParse, dto.ScoreErrorKindOf(err))
	assert.ErrorIs(t, err, ErrJSONNotFound)
	assert.Equal(t, int32(3), repo.calls.Load())
}

func TestScoreOneTimeoutIsBounded(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	cfg := testScorerConfig()
	cfg.Rater.MaxAttempts = 1
	repo := &fakeAIRepository{responses: []func(ctx context.Context) (string, error){
		func(ctx context.Context) (string, error) { <-block; return validResponse, nil },
	}}
	s := newTestScorer(t, repo, cfg)

	start := time.Now()
	res, err := s.ScoreOne(context.Background(), "X", &dto.Quote{Symbol: "X"})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, dto.ScoreErrorTimeout, dto.ScoreErrorKindOf(err))
	// budget plus a small epsilon, never an unbounded hang
	assert.Less(t, elapsed, cfg.Rater.Timeout+500*time.Millisecond)
}

func TestScoreOneLateResultNeverCrossesAttempts(t *testing.T) {
	cfg := testScorerConfig()
	cfg.Rater.MaxAttempts = 2

	// First attempt outlives the budget and eventually "succeeds" with a
	// poisoned payload; the second attempt answers promptly. The late
	// result must be discarded, not attributed to the second attempt.
	late := `{"technical_score":0,"fundamental_score":0,"growth_score":0,"sentiment_score":0,"industry_risk_score":0,"reason":"stale"}`
	repo := &fakeAIRepository{responses: []func(ctx context.Context) (string, error){
		func(ctx context.Context) (string, error) {
			time.Sleep(400 * time.Millisecond)
			return late, nil
		},
		func(ctx context.Context) (string, error) { return validResponse, nil },
	}}
	s := newTestScorer(t, repo, cfg)

	res, err := s.ScoreOne(context.Background(), "X", &dto.Quote{Symbol: "X"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Reason)
	assert.InDelta(t, 6.80, res.OverallScore, 1e-9)
}

func TestScoreOneStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := &fakeAIRepository{responses: []func(ctx context.Context) (string, error){
		func(ctx context.Context) (string, error) { return validResponse, nil },
	}}
	s := newTestScorer(t, repo, testScorerConfig())

	_, err := s.ScoreOne(ctx, "X", &dto.Quote{Symbol: "X"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScoreOneHeartbeatDoesNotAffectOutcome(t *testing.T) {
	cfg := testScorerConfig()
	cfg.Rater.Timeout = 300 * time.Millisecond
	cfg.Rater.HeartbeatInterval = 20 * time.Millisecond

	repo := &fakeAIRepository{responses: []func(ctx context.Context) (string, error){
		func(ctx context.Context) (string, error) {
			time.Sleep(100 * time.Millisecond)
			return validResponse, nil
		},
	}}
	s := newTestScorer(t, repo, cfg)

	res, err := s.ScoreOne(context.Background(), "X", &dto.Quote{Symbol: "X"})
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func TestScoreOnePropagatesLastError(t *testing.T) {
	repo := &fakeAIRepository{responses: []func(ctx context.Context) (string, error){
		func(ctx context.Context) (string, error) { return "", fmt.Errorf("boom 1") },
		func(ctx context.Context) (string, error) { return "", fmt.Errorf("boom 2") },
		func(ctx context.Context) (string, error) { return "", fmt.Errorf("boom 3") },
	}}
	s := newTestScorer(t, repo, testScorerConfig())

	_, err := s.ScoreOne(context.Background(), "X", &dto.Quote{Symbol: "X"})
	require.Error(t, err)
	assert.Equal(t, dto.ScoreErrorProvider, dto.ScoreErrorKindOf(err))
	assert.Contains(t, err.Error(), "boom 3")
}
