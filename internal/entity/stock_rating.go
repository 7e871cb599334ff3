package entity

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type StockRating struct {
	ID                int64          `json:"id"`
	RunID             string         `json:"run_id"`
	StockCode         string         `json:"stock_code"`
	Price             float64        `json:"price"`
	ChangePct         float64        `json:"change_pct"`
	TechnicalScore    float64        `json:"technical_score"`
	FundamentalScore  float64        `json:"fundamental_score"`
	GrowthScore       float64        `json:"growth_score"`
	SentimentScore    float64        `json:"sentiment_score"`
	IndustryRiskScore float64        `json:"industry_risk_score"`
	OverallScore      float64        `json:"overall_score"`
	Rating            string         `json:"rating"`
	Signal            string         `json:"signal"`
	Data              datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"deleted_at"`
}

func (StockRating) TableName() string {
	return "stock_ratings"
}
