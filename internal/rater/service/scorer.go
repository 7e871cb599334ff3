package service

import (
	"context"
	"fmt"
	"time"

	"golang-stock-rater/internal/rater/config"
	"golang-stock-rater/internal/rater/dto"
	"golang-stock-rater/internal/rater/repository"
	"golang-stock-rater/pkg/logger"
)

// Scorer rates a single stock through the model service.
type Scorer interface {
	ScoreOne(ctx context.Context, symbol string, quote *dto.Quote) (*dto.ScoreResult, error)
}

type scorer struct {
	cfg    *config.Config
	log    *logger.Logger
	aiRepo repository.AIRepository
}

// NewScorer creates a new Scorer backed by the given model repository.
func NewScorer(cfg *config.Config, log *logger.Logger, aiRepo repository.AIRepository) Scorer {
	return &scorer{
		cfg:    cfg,
		log:    log,
		aiRepo: aiRepo,
	}
}

// ScoreOne builds the rating request for one stock, invokes the model
// with a bounded wait, and parses/normalizes the response. Up to
// MaxAttempts independent attempts are made; the last error is returned
// once they are exhausted.
func (s *scorer) ScoreOne(ctx context.Context, symbol string, quote *dto.Quote) (*dto.ScoreResult, error) {
	messages := repository.BuildRatingMessages(symbol, quote.DisplayName(), quote)

	var lastErr error
	for attempt := 1; attempt <= s.cfg.Rater.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s.log.Debug("Scoring attempt",
			logger.StringField("symbol", symbol),
			logger.IntField("attempt", attempt),
			logger.IntField("max_attempts", s.cfg.Rater.MaxAttempts),
		)

		raw, err := s.invokeBounded(ctx, symbol, messages)
		if err != nil {
			lastErr = err
			s.log.Warn("Scoring attempt failed",
				logger.StringField("symbol", symbol),
				logger.IntField("attempt", attempt),
				logger.ErrorField(err),
			)
			continue
		}

		parsed, err := ExtractJSONObject(raw)
		if err != nil {
			lastErr = dto.NewScoreError(dto.ScoreErrorParse, err)
			s.log.Warn("Failed to parse model response",
				logger.StringField("symbol", symbol),
				logger.IntField("attempt", attempt),
				logger.ErrorField(err),
			)
			continue
		}

		return NormalizeScore(parsed, symbol, quote.DisplayName(), quote), nil
	}

	return nil, lastErr
}

type generateResult struct {
	text string
	err  error
}

// invokeBounded dispatches one model call onto a single-use background
// slot and polls it instead of blocking. A heartbeat line is logged
// while waiting. When the time budget runs out the attempt is abandoned:
// the slot channel is buffered, so a late result parks there and is
// collected with the goroutine. It can never be read by a later
// attempt, which always gets a fresh slot.
func (s *scorer) invokeBounded(ctx context.Context, symbol string, messages []dto.Message) (string, error) {
	slot := make(chan generateResult, 1)
	go func() {
		text, err := s.aiRepo.Generate(ctx, messages)
		slot <- generateResult{text: text, err: err}
	}()

	poll := time.NewTicker(s.cfg.Rater.PollInterval)
	defer poll.Stop()

	start := time.Now()
	lastBeat := start
	budget := s.cfg.Rater.Timeout

	for {
		select {
		case res := <-slot:
			if res.err != nil {
				return "", dto.NewScoreError(dto.ScoreErrorProvider, res.err)
			}
			return res.text, nil

		case <-ctx.Done():
			return "", ctx.Err()

		case <-poll.C:
			elapsed := time.Since(start)
			if budget > 0 && elapsed >= budget {
				return "", dto.NewScoreError(dto.ScoreErrorTimeout,
					fmt.Errorf("model call exceeded %s budget for %s", budget, symbol))
			}
			if time.Since(lastBeat) >= s.cfg.Rater.HeartbeatInterval {
				lastBeat = time.Now()
				if budget > 0 {
					s.log.Info("Still waiting for model response",
						logger.StringField("symbol", symbol),
						logger.DurationField("elapsed", elapsed.Round(time.Second)),
						logger.DurationField("remaining", (budget - elapsed).Round(time.Second)),
					)
				} else {
					s.log.Info("Still waiting for model response",
						logger.StringField("symbol", symbol),
						logger.DurationField("elapsed", elapsed.Round(time.Second)),
					)
				}
			}
		}
	}
}
