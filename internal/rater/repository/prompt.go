package repository

import (
	"fmt"

	"golang-stock-rater/internal/rater/dto"
)

const ratingSystemPrompt = `You are a professional equity analyst specialized in quantitative multi-factor scoring.
You rate one stock at a time against a fixed five-dimension rubric and respond with machine-readable JSON only.

Rules:
- Score every dimension on a 0-10 scale using the provided market data.
- Where a dimension cannot be observed directly, infer it from price action, change percent and volume.
- "reason" is mandatory and must not be empty.
- Respond with a single JSON object and no surrounding prose, no markdown fences.`

// BuildRatingMessages builds the system and user messages for scoring a
// single stock against the fixed rubric.
func BuildRatingMessages(symbol, name string, quote *dto.Quote) []dto.Message {
	quoteBlock := fmt.Sprintf(`Symbol: %s
Name: %s
Last Price: %.2f
Open: %.2f
High: %.2f
Low: %.2f
Previous Close: %.2f
Change Percent: %+.2f%%
Volume: %d
Turnover: %.2f`,
		symbol, name,
		quote.LastDone, quote.Open, quote.High, quote.Low,
		quote.PrevClose, quote.ChangePct, quote.Volume, quote.Turnover)

	userPrompt := fmt.Sprintf(`# Rating Task

## Market Data
%s

## Scoring Rubric
Rate the stock on five dimensions, each 0.0 - 10.0. The overall score is a fixed weighted combination:
- fundamental_score: weight 40%%
- technical_score: weight 30%%
- growth_score: weight 15%%
- sentiment_score: weight 10%%
- industry_risk_score: weight 5%% (10 = lowest risk)

## Output
Return exactly one JSON object with this structure:

{
  "technical_score": <float 0.0-10.0>,
  "fundamental_score": <float 0.0-10.0>,
  "growth_score": <float 0.0-10.0>,
  "sentiment_score": <float 0.0-10.0>,
  "industry_risk_score": <float 0.0-10.0>,
  "price": <float, last price>,
  "change_pct": <float>,
  "rating": "Strong Buy | Buy | Hold | Reduce | Sell",
  "signal": "green | yellow | orange | red | black",
  "reason": "<string - mandatory>",
  "risks": ["<string>", "<string>"],
  "opportunities": ["<string>", "<string>"],
  "suggestion": "<string>"
}

Respond with the JSON object only.`, quoteBlock)

	return []dto.Message{
		dto.SystemMessage(ratingSystemPrompt),
		dto.UserMessage(userPrompt),
	}
}
