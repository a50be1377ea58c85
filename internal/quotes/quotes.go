// Package quotes prices RSU shares in a user's currency.
// Lookups are cached; when a refresh fails a stale cached quote is still returned.
package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNoRate is returned when no quote could be fetched and none is cached
var ErrNoRate = errors.New("no quote available")

// Quote is a share price with the rate converting it into the target currency
type Quote struct {
	Ticker         string    `json:"ticker"`
	Price          float64   `json:"price"`
	Currency       string    `json:"currency"`
	TargetCurrency string    `json:"target_currency"`
	ConversionRate float64   `json:"conversion_rate"`
	FetchedAt      time.Time `json:"fetched_at"`
}

// PriceSource returns the last known price of a ticker
type PriceSource interface {
	LastPrice(ctx context.Context, ticker string) (float64, string, error)
}

// RateSource converts between currencies
type RateSource interface {
	ConversionRate(ctx context.Context, from, to string) (float64, error)
}

// Provider looks up quotes with an in-memory cache
type Provider struct {
	prices PriceSource
	rates  RateSource
	ttl    time.Duration
	log    *logrus.Logger
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]Quote
}

// NewProvider creates a quote provider
func NewProvider(prices PriceSource, rates RateSource, ttl time.Duration, log *logrus.Logger) *Provider {
	return &Provider{
		prices: prices,
		rates:  rates,
		ttl:    ttl,
		log:    log,
		now:    time.Now,
		cache:  make(map[string]Quote),
	}
}

// Quote returns the price of ticker and its conversion rate into target
func (p *Provider) Quote(ctx context.Context, ticker, target string) (Quote, error) {
	ticker, target = strings.ToUpper(ticker), strings.ToUpper(target)
	key := ticker + ":" + target

	p.mu.Lock()
	cached, ok := p.cache[key]
	p.mu.Unlock()
	if ok && p.now().Sub(cached.FetchedAt) < p.ttl {
		return cached, nil
	}

	q, err := p.fetch(ctx, ticker, target)
	if err != nil {
		if ok {
			p.log.WithFields(logrus.Fields{
				"ticker": ticker,
				"target": target,
				"age":    p.now().Sub(cached.FetchedAt).String(),
			}).Warnf("Quote refresh failed, using stale quote: %v", err)
			return cached, nil
		}
		return Quote{}, fmt.Errorf("%w for %s in %s: %v", ErrNoRate, ticker, target, err)
	}

	p.mu.Lock()
	p.cache[key] = q
	p.mu.Unlock()
	return q, nil
}

// ConversionRate converts from into target without needing a share price.
// Used when a ticker has no stored price but the grant knows its currency.
func (p *Provider) ConversionRate(ctx context.Context, from, target string) (float64, error) {
	from, target = strings.ToUpper(from), strings.ToUpper(target)
	if from == target {
		return 1, nil
	}
	rate, err := p.rates.ConversionRate(ctx, from, target)
	if err != nil {
		return 0, fmt.Errorf("%w for %s in %s: %v", ErrNoRate, from, target, err)
	}
	return rate, nil
}

// Forget drops every cached quote for ticker
func (p *Provider) Forget(ticker string) {
	prefix := strings.ToUpper(ticker) + ":"
	p.mu.Lock()
	defer p.mu.Unlock()
	for key := range p.cache {
		if strings.HasPrefix(key, prefix) {
			delete(p.cache, key)
		}
	}
}

func (p *Provider) fetch(ctx context.Context, ticker, target string) (Quote, error) {
	price, currency, err := p.prices.LastPrice(ctx, ticker)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to get price: %w", err)
	}
	rate, err := p.rates.ConversionRate(ctx, currency, target)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to get conversion rate: %w", err)
	}
	return Quote{
		Ticker:         ticker,
		Price:          price,
		Currency:       strings.ToUpper(currency),
		TargetCurrency: target,
		ConversionRate: rate,
		FetchedAt:      p.now(),
	}, nil
}
