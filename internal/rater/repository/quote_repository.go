package repository

import (
	"context"

	"golang-stock-rater/internal/rater/config"
	"golang-stock-rater/internal/rater/dto"
	"golang-stock-rater/pkg/logger"
	"golang-stock-rater/pkg/utils"

	gocache "github.com/patrickmn/go-cache"
	"github.com/piquette/finance-go/quote"
)

// quoteRepository fetches market quotes from Yahoo Finance with a short
// TTL cache so repeated runs do not hammer the provider.
type quoteRepository struct {
	cfg    *config.Config
	logger *logger.Logger
	cache  *gocache.Cache
}

// NewQuoteRepository creates a new instance of quoteRepository.
func NewQuoteRepository(cfg *config.Config, log *logger.Logger) QuoteRepository {
	return &quoteRepository{
		cfg:    cfg,
		logger: log,
		cache:  gocache.New(cfg.Quotes.CacheTTL, 2*cfg.Quotes.CacheTTL),
	}
}

// GetQuotes fetches quotes for the requested symbols. Symbols the
// provider cannot resolve are left out of the result; the batch treats
// them as missing data rather than failing.
func (r *quoteRepository) GetQuotes(ctx context.Context, symbols []string) (map[string]*dto.Quote, error) {
	quotes := make(map[string]*dto.Quote, len(symbols))

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return quotes, err
		}

		if cached, ok := r.cache.Get(symbol); ok {
			quotes[symbol] = cached.(*dto.Quote)
			continue
		}

		q, err := quote.Get(symbol)
		if err != nil || q == nil {
			r.logger.Warn("No quote data returned for symbol",
				logger.StringField("symbol", symbol),
				logger.ErrorField(err),
			)
			continue
		}

		changePct := q.RegularMarketChangePercent
		if changePct == 0 && q.RegularMarketPreviousClose > 0 {
			changePct = utils.RoundFloat((q.RegularMarketPrice-q.RegularMarketPreviousClose)/q.RegularMarketPreviousClose*100, 2)
		}

		dq := &dto.Quote{
			Symbol:    symbol,
			Name:      q.ShortName,
			LastDone:  q.RegularMarketPrice,
			Open:      q.RegularMarketOpen,
			High:      q.RegularMarketDayHigh,
			Low:       q.RegularMarketDayLow,
			PrevClose: q.RegularMarketPreviousClose,
			ChangePct: changePct,
			Volume:    int64(q.RegularMarketVolume),
			// Yahoo gives no turnover; approximate from price and volume.
			Turnover: q.RegularMarketPrice * float64(q.RegularMarketVolume),
		}

		r.cache.Set(symbol, dq, gocache.DefaultExpiration)
		quotes[symbol] = dq

		r.logger.Debug("Fetched quote",
			logger.StringField("symbol", symbol),
			logger.Float64Field("last_done", dq.LastDone),
			logger.Float64Field("change_pct", dq.ChangePct),
		)
	}

	return quotes, nil
}
