package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang-stock-rater/internal/entity"
	"golang-stock-rater/internal/rater/config"
	"golang-stock-rater/internal/rater/dto"
	"golang-stock-rater/internal/rater/repository"
	"golang-stock-rater/pkg/logger"
	"golang-stock-rater/pkg/telegram"
	"golang-stock-rater/pkg/utils"
)

// BatchRaterService drives one scoring run over an ordered stock list.
type BatchRaterService interface {
	Run(ctx context.Context, symbols []string, quotes map[string]*dto.Quote) (*dto.BatchRun, error)
}

type batchRaterService struct {
	cfg         *config.Config
	log         *logger.Logger
	scorer      Scorer
	reportRepo  repository.ReportRepository
	historyRepo repository.StockRatingRepository
	notifier    telegram.Notifier
}

// NewBatchRaterService creates a new BatchRaterService. historyRepo and
// notifier may be nil; both are optional.
func NewBatchRaterService(
	cfg *config.Config,
	log *logger.Logger,
	scorer Scorer,
	reportRepo repository.ReportRepository,
	historyRepo repository.StockRatingRepository,
	notifier telegram.Notifier,
) BatchRaterService {
	return &batchRaterService{
		cfg:         cfg,
		log:         log,
		scorer:      scorer,
		reportRepo:  reportRepo,
		historyRepo: historyRepo,
		notifier:    notifier,
	}
}

// Run scores every requested symbol in input order, persisting a
// progress snapshot after each one. A single stock's failure never
// aborts the run; only run-level preconditions (output destination) do.
func (s *batchRaterService) Run(ctx context.Context, symbols []string, quotes map[string]*dto.Quote) (*dto.BatchRun, error) {
	if err := s.reportRepo.EnsureOutputDir(); err != nil {
		return nil, fmt.Errorf("batch run precondition failed: %w", err)
	}

	runID := time.Now().Format("20060102_150405")
	run := dto.NewBatchRun(runID, symbols)

	s.log.Info("Starting rating run",
		logger.StringField("run_id", runID),
		logger.IntField("requested", len(symbols)),
	)

	for _, symbol := range run.Symbols {
		if err := ctx.Err(); err != nil {
			s.log.Warn("Rating run cancelled",
				logger.StringField("run_id", runID),
				logger.IntField("processed", len(run.Results)),
			)
			return run, err
		}

		run.Results[symbol] = s.scoreOne(ctx, symbol, quotes[symbol])

		if err := s.reportRepo.SavePartial(runID, run.Symbols, run.Results); err != nil {
			s.log.Error("Failed to persist progress snapshot",
				logger.StringField("run_id", runID),
				logger.StringField("symbol", symbol),
				logger.ErrorField(err),
			)
		}
	}

	run.CompletedAt = time.Now()

	reportPath, err := s.reportRepo.SaveFinal(run)
	if err != nil {
		s.log.Error("Failed to write final report", logger.ErrorField(err))
	} else {
		run.ReportPath = reportPath
	}

	s.persistHistory(ctx, run)
	s.notify(run)

	s.log.Info("Rating run completed",
		logger.StringField("run_id", runID),
		logger.IntField("succeeded", run.Succeeded()),
		logger.IntField("requested", len(run.Symbols)),
		logger.Float64Field("coverage", run.Coverage()),
		logger.StringField("report", run.ReportPath),
	)

	return run, nil
}

// scoreOne converts every per-stock failure into a failed placeholder
// result so the batch keeps its shape.
func (s *batchRaterService) scoreOne(ctx context.Context, symbol string, quote *dto.Quote) *dto.ScoreResult {
	if quote == nil {
		s.log.Warn("Missing quote data for symbol", logger.StringField("symbol", symbol))
		err := dto.NewScoreError(dto.ScoreErrorMissingData, fmt.Errorf("missing data for %s", symbol))
		return dto.NewFailedScoreResult(symbol, symbol, err.Error())
	}

	result, err := s.scorer.ScoreOne(ctx, symbol, quote)
	if err != nil {
		s.log.Error("Failed to score stock",
			logger.StringField("symbol", symbol),
			logger.StringField("kind", string(dto.ScoreErrorKindOf(err))),
			logger.ErrorField(err),
		)
		return dto.NewFailedScoreResult(symbol, quote.DisplayName(), err.Error())
	}
	return result
}

func (s *batchRaterService) persistHistory(ctx context.Context, run *dto.BatchRun) {
	if s.historyRepo == nil {
		return
	}
	for _, symbol := range run.Symbols {
		res := run.Results[symbol]
		if res == nil || !res.OK {
			continue
		}
		data, err := json.Marshal(res)
		if err != nil {
			s.log.Error("Failed to marshal rating result", logger.ErrorField(err), logger.StringField("symbol", symbol))
			continue
		}
		record := &entity.StockRating{
			RunID:             run.RunID,
			StockCode:         res.StockCode,
			Price:             res.Price,
			ChangePct:         res.ChangePct,
			TechnicalScore:    res.TechnicalScore,
			FundamentalScore:  res.FundamentalScore,
			GrowthScore:       res.GrowthScore,
			SentimentScore:    res.SentimentScore,
			IndustryRiskScore: res.IndustryRiskScore,
			OverallScore:      res.OverallScore,
			Rating:            res.Rating,
			Signal:            res.Signal,
			Data:              data,
		}
		if err := s.historyRepo.Create(ctx, record); err != nil {
			s.log.Error("Failed to persist rating history",
				logger.StringField("symbol", symbol),
				logger.ErrorField(err),
			)
		}
	}
}

func (s *batchRaterService) notify(run *dto.BatchRun) {
	if s.notifier == nil {
		return
	}
	msg := telegram.FormatBatchSummaryMessage(utils.TimeNowWIB(), run.RunID, run.Succeeded(), len(run.Symbols), run.ReportPath)
	if err := s.notifier.SendMessage(msg); err != nil {
		s.log.Error("Failed to send completion notification", logger.ErrorField(err))
	}
}
