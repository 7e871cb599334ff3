package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang-stock-rater/internal/rater/config"
	"golang-stock-rater/internal/rater/dto"
	"golang-stock-rater/pkg/logger"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Placeholder markers used in progress snapshots.
const (
	markerPending = "..."
	markerWaiting = "pending"
	markerNA      = "N/A"
	markerFailed  = "failed"
)

// fileReportRepository writes progress snapshots and the final report
// as markdown files under the configured output directory.
type fileReportRepository struct {
	cfg    *config.Config
	logger *logger.Logger
}

// NewFileReportRepository creates a new instance of fileReportRepository.
func NewFileReportRepository(cfg *config.Config, log *logger.Logger) ReportRepository {
	return &fileReportRepository{cfg: cfg, logger: log}
}

func (r *fileReportRepository) outputDir() string {
	return r.cfg.Rater.OutputDir
}

// EnsureOutputDir creates the report destination directory.
func (r *fileReportRepository) EnsureOutputDir() error {
	if err := os.MkdirAll(r.outputDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", r.outputDir(), err)
	}
	return nil
}

// SavePartial rewrites the progress snapshot for the run. The table
// always contains one row per requested symbol, in requested order;
// calling it again with the same results produces the same table.
func (r *fileReportRepository) SavePartial(runID string, symbols []string, results map[string]*dto.ScoreResult) error {
	var b strings.Builder
	b.WriteString("# Rating Progress\n\n")
	b.WriteString(fmt.Sprintf("- **Run**: %s\n", runID))
	b.WriteString(fmt.Sprintf("- **Updated**: %s\n", time.Now().Format("2006-01-02 15:04:05")))

	done := 0
	ok := 0
	for _, s := range symbols {
		if res, found := results[s]; found && res != nil {
			done++
			if res.OK {
				ok++
			}
		}
	}
	b.WriteString(fmt.Sprintf("- **Processed**: %d/%d\n", done, len(symbols)))
	b.WriteString(fmt.Sprintf("- **Succeeded**: %d/%d\n\n", ok, len(symbols)))

	b.WriteString(renderScoreTable(symbols, results))
	b.WriteString("\n")

	path := filepath.Join(r.outputDir(), fmt.Sprintf("rating_progress_%s.md", runID))
	return writeFileAtomic(path, b.String())
}

// SaveFinal writes the full report with narratives and a failure list,
// then refreshes the report index.
func (r *fileReportRepository) SaveFinal(run *dto.BatchRun) (string, error) {
	var b strings.Builder
	b.WriteString("# Stock Rating Report\n\n---\n\n")
	b.WriteString("## Report Info\n\n")
	b.WriteString(fmt.Sprintf("- **Generated**: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("- **Run**: %s\n", run.RunID))
	b.WriteString(fmt.Sprintf("- **Symbols**: %s\n", strings.Join(run.Symbols, ", ")))
	b.WriteString(fmt.Sprintf("- **AI Engine**: %s (%s)\n", r.cfg.AI.Provider, r.modelName()))
	b.WriteString(fmt.Sprintf("- **Coverage**: %d/%d\n\n---\n\n", run.Succeeded(), len(run.Symbols)))

	b.WriteString("## Score Summary\n\n")
	b.WriteString(renderScoreTable(run.Symbols, run.Results))
	b.WriteString("\n---\n\n")

	b.WriteString("## Detailed Analysis\n\n")
	for _, symbol := range run.Symbols {
		res := run.Results[symbol]
		if res == nil || !res.OK {
			continue
		}
		b.WriteString(fmt.Sprintf("### %s (%s)\n\n", res.Name, res.StockCode))
		b.WriteString(fmt.Sprintf("- **Overall**: %.2f — %s (%s)\n", res.OverallScore, res.Rating, res.Signal))
		b.WriteString(fmt.Sprintf("- **Reason**: %s\n", res.Reason))
		if len(res.Risks) > 0 {
			b.WriteString("- **Risks**:\n")
			for _, risk := range res.Risks {
				b.WriteString(fmt.Sprintf("  - %s\n", risk))
			}
		}
		if len(res.Opportunities) > 0 {
			b.WriteString("- **Opportunities**:\n")
			for _, opp := range res.Opportunities {
				b.WriteString(fmt.Sprintf("  - %s\n", opp))
			}
		}
		if res.Suggestion != "" {
			b.WriteString(fmt.Sprintf("- **Suggestion**: %s\n", res.Suggestion))
		}
		b.WriteString("\n")
	}

	var failed []*dto.ScoreResult
	for _, symbol := range run.Symbols {
		if res := run.Results[symbol]; res != nil && !res.OK {
			failed = append(failed, res)
		}
	}
	if len(failed) > 0 {
		b.WriteString("## Failed Stocks\n\n")
		for _, res := range failed {
			b.WriteString(fmt.Sprintf("- **%s**: %s\n", res.StockCode, res.Error))
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	b.WriteString(disclaimer)
	b.WriteString(fmt.Sprintf(footer, r.cfg.AI.Provider, r.modelName()))

	path := filepath.Join(r.outputDir(), fmt.Sprintf("rating_report_%s.md", run.RunID))
	if err := writeFileAtomic(path, b.String()); err != nil {
		return "", err
	}

	if err := r.updateReportIndex(); err != nil {
		r.logger.Warn("Failed to update report index", logger.ErrorField(err))
	}

	return path, nil
}

func (r *fileReportRepository) modelName() string {
	if r.cfg.AI.Provider == "gemini" {
		return r.cfg.Gemini.Model
	}
	return r.cfg.Ollama.Model
}

// renderScoreTable renders the markdown score table with one row per
// requested symbol, in requested order.
func renderScoreTable(symbols []string, results map[string]*dto.ScoreResult) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"code", "price", "technical", "fundamental", "growth", "overall", "rating", "signal"})

	for _, symbol := range symbols {
		res, found := results[symbol]
		switch {
		case !found || res == nil:
			tw.AppendRow(table.Row{symbol, markerPending, markerPending, markerPending, markerPending, markerPending, markerWaiting, markerWaiting})
		case !res.OK:
			tw.AppendRow(table.Row{symbol, markerNA, markerNA, markerNA, markerNA, markerNA, markerFailed, markerFailed})
		default:
			tw.AppendRow(table.Row{
				symbol,
				fmt.Sprintf("%.2f", res.Price),
				fmt.Sprintf("%.1f", res.TechnicalScore),
				fmt.Sprintf("%.1f", res.FundamentalScore),
				fmt.Sprintf("%.1f", res.GrowthScore),
				fmt.Sprintf("%.2f", res.OverallScore),
				res.Rating,
				res.Signal,
			})
		}
	}

	return tw.RenderMarkdown()
}

// updateReportIndex rewrites README.md in the output directory with a
// list of all final reports, newest first.
func (r *fileReportRepository) updateReportIndex() error {
	entries, err := os.ReadDir(r.outputDir())
	if err != nil {
		return err
	}

	var reports []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "rating_report_") && strings.HasSuffix(name, ".md") {
			reports = append(reports, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(reports)))

	var b strings.Builder
	b.WriteString("# Stock Rating Report Index\n\n")
	b.WriteString(fmt.Sprintf("**Updated**: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("**Reports**: %d\n\n---\n\n", len(reports)))
	if len(reports) == 0 {
		b.WriteString("*No reports yet*\n")
	}
	for _, report := range reports {
		runID := strings.TrimSuffix(strings.TrimPrefix(report, "rating_report_"), ".md")
		b.WriteString(fmt.Sprintf("- [%s](%s)\n", runID, report))
	}

	return writeFileAtomic(filepath.Join(r.outputDir(), "README.md"), b.String())
}

// writeFileAtomic writes content to a temp file in the same directory
// and renames it into place, so an interrupted run never leaves a torn
// snapshot behind.
func writeFileAtomic(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

const disclaimer = `## Disclaimer

This report is generated automatically by an AI system and is for
reference only. It is not investment advice. Scores are derived from
delayed market data and model inference, both of which can be wrong.
Consult a professional advisor before making investment decisions.

`

const footer = `---

*Generated by golang-stock-rater — AI engine: %s (%s)*
`
