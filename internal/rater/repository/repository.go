package repository

import (
	"context"

	"golang-stock-rater/internal/rater/dto"
)

// AIRepository is the text-generation service consumed by the scorer.
// Model identifier and temperature are fixed at construction and must
// not change while a call is outstanding.
type AIRepository interface {
	Generate(ctx context.Context, messages []dto.Message) (string, error)
}

// QuoteRepository provides market quotes for requested symbols. Symbols
// the provider cannot resolve are absent from the returned map; that is
// an expected, non-fatal state.
type QuoteRepository interface {
	GetQuotes(ctx context.Context, symbols []string) (map[string]*dto.Quote, error)
}

// ReportRepository persists batch progress and the final report.
type ReportRepository interface {
	// EnsureOutputDir creates the report destination. Failure here is
	// fatal for the whole run.
	EnsureOutputDir() error
	// SavePartial rewrites the progress snapshot in requested order,
	// marking unprocessed stocks as pending and failed ones as N/A.
	// Safe to call repeatedly with the same results.
	SavePartial(runID string, symbols []string, results map[string]*dto.ScoreResult) error
	// SaveFinal writes the full report with narrative details and the
	// failure list, refreshes the report index, and returns the report
	// path.
	SaveFinal(run *dto.BatchRun) (string, error)
}
