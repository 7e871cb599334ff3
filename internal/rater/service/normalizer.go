package service

import (
	"strconv"

	"golang-stock-rater/internal/rater/dto"
	"golang-stock-rater/pkg/utils"
)

// Dimension weights of the composite score.
const (
	weightFundamental  = 0.4
	weightTechnical    = 0.3
	weightGrowth       = 0.15
	weightSentiment    = 0.1
	weightIndustryRisk = 0.05
)

// neutralScore is the fallback when the model omits or mangles a
// dimension.
const neutralScore = 5.0

// NormalizeScore validates and completes a parsed model response into a
// ScoreResult. Dimension scores are defaulted, clamped to [0,10] and
// rounded to one decimal before the weighted overall score is computed.
// A model-supplied rating/signal overrides the derived tier.
func NormalizeScore(parsed map[string]interface{}, symbol, name string, quote *dto.Quote) *dto.ScoreResult {
	technical := readScore(parsed, "technical_score")
	fundamental := readScore(parsed, "fundamental_score")
	growth := readScore(parsed, "growth_score")
	sentiment := readScore(parsed, "sentiment_score")
	industryRisk := readScore(parsed, "industry_risk_score")

	overall := utils.RoundFloat(
		fundamental*weightFundamental+
			technical*weightTechnical+
			growth*weightGrowth+
			sentiment*weightSentiment+
			industryRisk*weightIndustryRisk, 2)

	rating, signal := dto.RatingForScore(overall)
	if s := readString(parsed, "rating"); s != "" {
		rating = s
	}
	if s := readString(parsed, "signal"); s != "" {
		signal = s
	}

	price, priceOK := readNumber(parsed, "price")
	changePct, changeOK := readNumber(parsed, "change_pct")
	if quote != nil {
		if !priceOK {
			price = quote.LastDone
		}
		if !changeOK {
			changePct = quote.ChangePct
		}
	}

	return &dto.ScoreResult{
		StockCode:         symbol,
		Name:              name,
		Price:             price,
		ChangePct:         changePct,
		TechnicalScore:    technical,
		FundamentalScore:  fundamental,
		GrowthScore:       growth,
		SentimentScore:    sentiment,
		IndustryRiskScore: industryRisk,
		OverallScore:      overall,
		Rating:            rating,
		Signal:            signal,
		Reason:            readString(parsed, "reason"),
		Risks:             readStringList(parsed, "risks"),
		Opportunities:     readStringList(parsed, "opportunities"),
		Suggestion:        readString(parsed, "suggestion"),
		OK:                true,
	}
}

// readScore reads a dimension score, defaulting to the neutral midpoint
// and normalizing to one decimal inside [0,10].
func readScore(parsed map[string]interface{}, key string) float64 {
	v, ok := readNumber(parsed, key)
	if !ok {
		v = neutralScore
	}
	return utils.RoundFloat(utils.Clamp(v, 0, 10), 1)
}

// readNumber reads a numeric field, tolerating numbers encoded as
// strings.
func readNumber(parsed map[string]interface{}, key string) (float64, bool) {
	raw, ok := parsed[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func readString(parsed map[string]interface{}, key string) string {
	if s, ok := parsed[key].(string); ok {
		return s
	}
	return ""
}

// readStringList reads a list of strings; anything that is not a list
// of strings is discarded.
func readStringList(parsed map[string]interface{}, key string) []string {
	raw, ok := parsed[key].([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
