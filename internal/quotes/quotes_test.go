package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrices struct {
	price    float64
	currency string
	err      error
	calls    int
}

func (f *fakePrices) LastPrice(ctx context.Context, ticker string) (float64, string, error) {
	f.calls++
	return f.price, f.currency, f.err
}

type fakeRates struct {
	rate float64
	err  error
}

func (f *fakeRates) ConversionRate(ctx context.Context, from, to string) (float64, error) {
	return f.rate, f.err
}

func TestProvider_QuoteCachesWithinTTL(t *testing.T) {
	prices := &fakePrices{price: 150, currency: "usd"}
	logger, _ := test.NewNullLogger()
	p := NewProvider(prices, &fakeRates{rate: 83}, time.Hour, logger)
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	q, err := p.Quote(context.Background(), "acme", "inr")
	require.NoError(t, err)
	assert.Equal(t, Quote{Ticker: "ACME", Price: 150, Currency: "USD", TargetCurrency: "INR", ConversionRate: 83, FetchedAt: now}, q)

	now = now.Add(30 * time.Minute)
	_, err = p.Quote(context.Background(), "ACME", "INR")
	require.NoError(t, err)
	assert.Equal(t, 1, prices.calls)

	now = now.Add(time.Hour)
	_, err = p.Quote(context.Background(), "ACME", "INR")
	require.NoError(t, err)
	assert.Equal(t, 2, prices.calls)
}

func TestProvider_StaleFallback(t *testing.T) {
	prices := &fakePrices{price: 150, currency: "USD"}
	rates := &fakeRates{rate: 83}
	logger, hook := test.NewNullLogger()
	p := NewProvider(prices, rates, time.Minute, logger)
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	first, err := p.Quote(context.Background(), "ACME", "INR")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	rates.err = errors.New("cbr down")
	q, err := p.Quote(context.Background(), "ACME", "INR")
	require.NoError(t, err)
	assert.Equal(t, first, q)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestProvider_NoQuote(t *testing.T) {
	logger, _ := test.NewNullLogger()
	p := NewProvider(&fakePrices{err: errors.New("unknown ticker")}, &fakeRates{}, time.Minute, logger)

	_, err := p.Quote(context.Background(), "NOPE", "INR")
	assert.ErrorIs(t, err, ErrNoRate)
}

func TestProvider_ConversionRateWithoutPrice(t *testing.T) {
	logger, _ := test.NewNullLogger()
	p := NewProvider(&fakePrices{err: errors.New("unknown ticker")}, &fakeRates{rate: 20}, time.Minute, logger)

	rate, err := p.ConversionRate(context.Background(), "usd", "INR")
	require.NoError(t, err)
	assert.Equal(t, 20.0, rate)

	rate, err = p.ConversionRate(context.Background(), "INR", "inr")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)

	p = NewProvider(&fakePrices{}, &fakeRates{err: errors.New("cbr down")}, time.Minute, logger)
	_, err = p.ConversionRate(context.Background(), "USD", "INR")
	assert.ErrorIs(t, err, ErrNoRate)
}

func TestProvider_Forget(t *testing.T) {
	prices := &fakePrices{price: 150, currency: "USD"}
	logger, _ := test.NewNullLogger()
	p := NewProvider(prices, &fakeRates{rate: 83}, time.Hour, logger)

	_, err := p.Quote(context.Background(), "ACME", "INR")
	require.NoError(t, err)
	prices.price = 160
	p.Forget("acme")

	q, err := p.Quote(context.Background(), "ACME", "INR")
	require.NoError(t, err)
	assert.Equal(t, 160.0, q.Price)
	assert.Equal(t, 2, prices.calls)
}
