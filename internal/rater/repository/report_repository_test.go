package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang-stock-rater/internal/rater/config"
	"golang-stock-rater/internal/rater/dto"
	"golang-stock-rater/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReportRepository(t *testing.T) (ReportRepository, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Rater.OutputDir = dir
	cfg.AI.Provider = "ollama"
	cfg.Ollama.Model = "deepseek-r1:8b"
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return NewFileReportRepository(cfg, log), dir
}

func sampleResult(symbol string, overall float64) *dto.ScoreResult {
	rating, signal := dto.RatingForScore(overall)
	return &dto.ScoreResult{
		StockCode:        symbol,
		Name:             symbol + " Inc",
		Price:            120.55,
		TechnicalScore:   8.0,
		FundamentalScore: 7.5,
		GrowthScore:      6.0,
		OverallScore:     overall,
		Rating:           rating,
		Signal:           signal,
		Reason:           "steady earnings growth",
		Risks:            []string{"rate sensitivity"},
		Opportunities:    []string{"new product cycle"},
		Suggestion:       "hold current position",
		OK:               true,
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// stripUpdatedLines drops timestamp lines so two snapshots of the same
// state can be compared byte for byte.
func stripUpdatedLines(content string) string {
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "**Updated**") || strings.Contains(line, "**Generated**") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func TestSavePartialMarkers(t *testing.T) {
	repo, dir := newTestReportRepository(t)
	require.NoError(t, repo.EnsureOutputDir())

	symbols := []string{"AAPL.US", "MSFT.US", "TSLA.US"}
	results := map[string]*dto.ScoreResult{
		"AAPL.US": sampleResult("AAPL.US", 7.8),
		"MSFT.US": dto.NewFailedScoreResult("MSFT.US", "MSFT.US", "model response exceeded budget"),
	}
	require.NoError(t, repo.SavePartial("run1", symbols, results))

	content := readFile(t, filepath.Join(dir, "rating_progress_run1.md"))

	assert.Contains(t, content, "**Processed**: 2/3")
	assert.Contains(t, content, "**Succeeded**: 1/3")

	// one row per requested symbol, in requested order
	aapl := strings.Index(content, "AAPL.US")
	msft := strings.Index(content, "MSFT.US")
	tsla := strings.Index(content, "TSLA.US")
	require.True(t, aapl >= 0 && msft >= 0 && tsla >= 0)
	assert.Less(t, aapl, msft)
	assert.Less(t, msft, tsla)

	assert.Contains(t, content, "120.55")
	assert.Contains(t, content, dto.RatingBuy)
	assert.Contains(t, content, "N/A")
	assert.Contains(t, content, "failed")
	assert.Contains(t, content, "...")
	assert.Contains(t, content, "pending")
}

func TestSavePartialIsIdempotent(t *testing.T) {
	repo, dir := newTestReportRepository(t)
	require.NoError(t, repo.EnsureOutputDir())

	symbols := []string{"A", "B"}
	results := map[string]*dto.ScoreResult{"A": sampleResult("A", 6.5)}

	require.NoError(t, repo.SavePartial("run1", symbols, results))
	first := readFile(t, filepath.Join(dir, "rating_progress_run1.md"))

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.SavePartial("run1", symbols, results))
	second := readFile(t, filepath.Join(dir, "rating_progress_run1.md"))

	assert.Equal(t, stripUpdatedLines(first), stripUpdatedLines(second))
}

func TestSavePartialLeavesNoTempFiles(t *testing.T) {
	repo, dir := newTestReportRepository(t)
	require.NoError(t, repo.EnsureOutputDir())

	require.NoError(t, repo.SavePartial("run1", []string{"A"}, nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestSaveFinalReportContent(t *testing.T) {
	repo, dir := newTestReportRepository(t)
	require.NoError(t, repo.EnsureOutputDir())

	run := dto.NewBatchRun("run1", []string{"AAPL.US", "MSFT.US"})
	run.Results["AAPL.US"] = sampleResult("AAPL.US", 9.2)
	run.Results["MSFT.US"] = dto.NewFailedScoreResult("MSFT.US", "MSFT.US", "no JSON object found in model response")

	path, err := repo.SaveFinal(run)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rating_report_run1.md"), path)

	content := readFile(t, path)
	assert.Contains(t, content, "# Stock Rating Report")
	assert.Contains(t, content, "**AI Engine**: ollama (deepseek-r1:8b)")
	assert.Contains(t, content, "**Coverage**: 1/2")
	assert.Contains(t, content, "### AAPL.US Inc (AAPL.US)")
	assert.Contains(t, content, dto.RatingStrongBuy)
	assert.Contains(t, content, "steady earnings growth")
	assert.Contains(t, content, "rate sensitivity")
	assert.Contains(t, content, "new product cycle")
	assert.Contains(t, content, "hold current position")
	assert.Contains(t, content, "## Failed Stocks")
	assert.Contains(t, content, "no JSON object found")
	assert.Contains(t, content, "## Disclaimer")
	assert.NotContains(t, content, "### MSFT.US", "failed stocks get no narrative section")
}

func TestSaveFinalUpdatesReportIndex(t *testing.T) {
	repo, dir := newTestReportRepository(t)
	require.NoError(t, repo.EnsureOutputDir())

	for _, runID := range []string{"20260101_090000", "20260102_090000"} {
		run := dto.NewBatchRun(runID, []string{"A"})
		run.Results["A"] = sampleResult("A", 7.0)
		_, err := repo.SaveFinal(run)
		require.NoError(t, err)
	}

	index := readFile(t, filepath.Join(dir, "README.md"))
	assert.Contains(t, index, "**Reports**: 2")

	// newest first
	newer := strings.Index(index, "20260102_090000")
	older := strings.Index(index, "20260101_090000")
	require.True(t, newer >= 0 && older >= 0)
	assert.Less(t, newer, older)
	assert.Contains(t, index, "(rating_report_20260102_090000.md)")
}

func TestEnsureOutputDirCreatesNestedPath(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Rater.OutputDir = filepath.Join(dir, "nested", "report")
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	repo := NewFileReportRepository(cfg, log)

	require.NoError(t, repo.EnsureOutputDir())
	info, err := os.Stat(cfg.Rater.OutputDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
