package binance

import (
	"context"
	"errors"
	"testing"

	"quote-observer/src/config"
	"quote-observer/src/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetwork struct {
	body   string
	err    error
	url    string
	params map[string]string
}

func (f *fakeNetwork) Get(ctx context.Context, url string, params map[string]string) ([]byte, error) {
	f.url = url
	f.params = params
	return []byte(f.body), f.err
}

func newSource(net *fakeNetwork) *BinanceSource {
	cfg := config.Default()
	cfg.DataSource.BaseURL = "https://api.example.com/"
	return NewBinanceSource(cfg, net)
}

func TestFetchQuote(t *testing.T) {
	net := &fakeNetwork{body: `{
		"symbol": "BTCUSDT",
		"lastPrice": "65000.50",
		"openPrice": "64000.00",
		"highPrice": "66000.00",
		"lowPrice": "63000.25",
		"volume": "1234.5",
		"quoteVolume": "80000000.1",
		"closeTime": 1700000000000
	}`}
	src := newSource(net)

	q, err := src.FetchQuote(context.Background(), " BTCUSDT")
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/api/v3/ticker/24hr", net.url)
	assert.Equal(t, "BTCUSDT", net.params["symbol"])

	assert.Equal(t, "btcusdt", q.Symbol)
	assert.Equal(t, "crypto", q.Market)
	assert.Equal(t, 65000.50, *q.Price)
	assert.Equal(t, 65000.50, *q.Close)
	assert.NotSame(t, q.Price, q.Close)
	assert.Equal(t, 64000.0, *q.Open)
	assert.Equal(t, 66000.0, *q.High)
	assert.Equal(t, 63000.25, *q.Low)
	assert.Equal(t, 1234.5, *q.Volume)
	assert.Equal(t, 80000000.1, *q.Amount)
	assert.Equal(t, int64(1700000000000), q.UpdateTime)
}

func TestFetchQuoteNoData(t *testing.T) {
	src := newSource(&fakeNetwork{body: `{"symbol":"BTCUSDT","lastPrice":"","closeTime":1}`})

	_, err := src.FetchQuote(context.Background(), "btcusdt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, helpers.ErrNoData))
}

func TestFetchQuoteErrors(t *testing.T) {
	_, err := newSource(&fakeNetwork{body: `{"code":-1121,"msg":"Invalid symbol."}`}).FetchQuote(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid symbol")

	_, err = newSource(&fakeNetwork{body: `not json`}).FetchQuote(context.Background(), "btcusdt")
	require.Error(t, err)

	_, err = newSource(&fakeNetwork{err: errors.New("boom")}).FetchQuote(context.Background(), "btcusdt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	_, err = newSource(&fakeNetwork{}).FetchQuote(context.Background(), "  ")
	var vErr *helpers.ValidationError
	assert.True(t, errors.As(err, &vErr))
}
