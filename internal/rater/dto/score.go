package dto

import "time"

// Rating tiers derived from the overall score.
const (
	RatingStrongBuy = "Strong Buy"
	RatingBuy       = "Buy"
	RatingHold      = "Hold"
	RatingReduce    = "Reduce"
	RatingSell      = "Sell"
)

// Signal markers paired with each rating tier.
const (
	SignalGreen  = "green"
	SignalYellow = "yellow"
	SignalOrange = "orange"
	SignalRed    = "red"
	SignalBlack  = "black"
)

// RatingForScore maps an overall score in [0,10] to its rating tier and
// signal marker. Bounds are inclusive lower bounds.
func RatingForScore(overall float64) (rating, signal string) {
	switch {
	case overall >= 9.0:
		return RatingStrongBuy, SignalGreen
	case overall >= 7.5:
		return RatingBuy, SignalYellow
	case overall >= 6.0:
		return RatingHold, SignalOrange
	case overall >= 4.0:
		return RatingReduce, SignalRed
	default:
		return RatingSell, SignalBlack
	}
}

// ScoreResult is the normalized rating outcome for a single stock.
type ScoreResult struct {
	StockCode string `json:"stock_code"`
	Name      string `json:"name"`

	Price     float64 `json:"price"`
	ChangePct float64 `json:"change_pct"`

	TechnicalScore    float64 `json:"technical_score"`
	FundamentalScore  float64 `json:"fundamental_score"`
	GrowthScore       float64 `json:"growth_score"`
	SentimentScore    float64 `json:"sentiment_score"`
	IndustryRiskScore float64 `json:"industry_risk_score"`
	OverallScore      float64 `json:"overall_score"`

	Rating string `json:"rating"`
	Signal string `json:"signal"`

	Reason        string   `json:"reason"`
	Risks         []string `json:"risks"`
	Opportunities []string `json:"opportunities"`
	Suggestion    string   `json:"suggestion"`

	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NewFailedScoreResult creates a placeholder result for a stock that
// could not be scored.
func NewFailedScoreResult(symbol, name, errMsg string) *ScoreResult {
	return &ScoreResult{
		StockCode: symbol,
		Name:      name,
		OK:        false,
		Error:     errMsg,
	}
}

// BatchRun holds one execution of the rating pipeline over a fixed,
// ordered stock list. Results accumulate one at a time as each stock
// completes.
type BatchRun struct {
	RunID       string                  `json:"run_id"`
	Symbols     []string                `json:"symbols"`
	Results     map[string]*ScoreResult `json:"results"`
	StartedAt   time.Time               `json:"started_at"`
	CompletedAt time.Time               `json:"completed_at"`
	ReportPath  string                  `json:"report_path,omitempty"`
}

// NewBatchRun creates a run over the given symbols, preserving order.
func NewBatchRun(runID string, symbols []string) *BatchRun {
	return &BatchRun{
		RunID:     runID,
		Symbols:   append([]string(nil), symbols...),
		Results:   make(map[string]*ScoreResult, len(symbols)),
		StartedAt: time.Now(),
	}
}

// Ordered returns results in requested order; stocks not yet processed
// yield a nil entry so callers always see the full requested list.
func (b *BatchRun) Ordered() []*ScoreResult {
	out := make([]*ScoreResult, 0, len(b.Symbols))
	for _, s := range b.Symbols {
		out = append(out, b.Results[s])
	}
	return out
}

// Succeeded counts results with OK set.
func (b *BatchRun) Succeeded() int {
	n := 0
	for _, r := range b.Results {
		if r != nil && r.OK {
			n++
		}
	}
	return n
}

// Coverage is succeeded over requested, in [0,1].
func (b *BatchRun) Coverage() float64 {
	if len(b.Symbols) == 0 {
		return 0
	}
	return float64(b.Succeeded()) / float64(len(b.Symbols))
}
