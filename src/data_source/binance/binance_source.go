package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"quote-observer/src/helpers"
	"quote-observer/src/interfaces"
	"quote-observer/src/logger"
	"quote-observer/src/models"
	"quote-observer/src/normalize"
)

const tickerPath = "/api/v3/ticker/24hr"

// BinanceSource reads 24h ticker statistics from a Binance-compatible REST API.
type BinanceSource struct {
	BaseURL string
	Markets map[string]string // symbol -> market tag
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewBinanceSource(cfg *models.MConfig, netMgr interfaces.INetworkManager) *BinanceSource {
	markets := make(map[string]string, len(cfg.DataSource.Symbols))
	for _, s := range cfg.DataSource.Symbols {
		markets[normalize.Symbol(s.Symbol)] = s.Market
	}

	return &BinanceSource{
		BaseURL: strings.TrimRight(cfg.DataSource.BaseURL, "/"),
		Markets: markets,
		Network: netMgr,
		Logger:  logger.NewLogger("BinanceSource"),
	}
}

// -----------------------------------------------------------------------------

func (s *BinanceSource) Name() string {
	return "binance"
}

// -----------------------------------------------------------------------------

// FetchQuote requests the ticker of symbol and maps it onto a quote.
func (s *BinanceSource) FetchQuote(ctx context.Context, symbol string) (models.MQuote, error) {
	symbol = normalize.Symbol(symbol)
	if symbol == "" {
		return models.MQuote{}, helpers.NewValidationError("empty symbol")
	}

	params := map[string]string{
		"symbol": strings.ToUpper(symbol),
	}

	respBytes, err := s.Network.Get(ctx, s.BaseURL+tickerPath, params)
	if err != nil {
		return models.MQuote{}, fmt.Errorf("network error for %s: %w", symbol, err)
	}

	return s.parseTickerResponse(symbol, respBytes)
}

// -----------------------------------------------------------------------------

// TickerResponse is the subset of /api/v3/ticker/24hr we read. Binance encodes
// decimals as strings; compatible mirrors sometimes send plain numbers.
type TickerResponse struct {
	Symbol      string      `json:"symbol"`
	LastPrice   interface{} `json:"lastPrice"`
	OpenPrice   interface{} `json:"openPrice"`
	HighPrice   interface{} `json:"highPrice"`
	LowPrice    interface{} `json:"lowPrice"`
	Volume      interface{} `json:"volume"`
	QuoteVolume interface{} `json:"quoteVolume"`
	CloseTime   interface{} `json:"closeTime"`

	Code *int   `json:"code"`
	Msg  string `json:"msg"`
}

// -----------------------------------------------------------------------------

func (s *BinanceSource) parseTickerResponse(symbol string, data []byte) (models.MQuote, error) {
	var resp TickerResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return models.MQuote{}, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if resp.Code != nil {
		return models.MQuote{}, fmt.Errorf("binance api error: %d - %s", *resp.Code, resp.Msg)
	}

	last := normalize.Number(resp.LastPrice)
	if last == nil {
		return models.MQuote{}, fmt.Errorf("%s: %w", symbol, helpers.ErrNoData)
	}

	// Zero lets the normalizer stamp the quote with the local clock.
	updateTime, _ := normalize.Timestamp(resp.CloseTime)

	market := s.Markets[symbol]
	if market == "" {
		market = "crypto"
	}

	return models.MQuote{
		Symbol:     symbol,
		Market:     market,
		Price:      last,
		Open:       normalize.Number(resp.OpenPrice),
		Close:      models.CloneFloat(last),
		High:       normalize.Number(resp.HighPrice),
		Low:        normalize.Number(resp.LowPrice),
		Volume:     normalize.Number(resp.Volume),
		Amount:     normalize.Number(resp.QuoteVolume),
		UpdateTime: updateTime,
	}, nil
}
