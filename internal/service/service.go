package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Dan9191/finhealth/internal/config"
	"github.com/Dan9191/finhealth/internal/defusal"
	"github.com/Dan9191/finhealth/internal/health"
	"github.com/Dan9191/finhealth/internal/metrics"
	"github.com/Dan9191/finhealth/internal/models"
	"github.com/Dan9191/finhealth/internal/quotes"
	"github.com/Dan9191/finhealth/internal/records"
	"github.com/Dan9191/finhealth/internal/repository"
	"github.com/sirupsen/logrus"
)

var (
	// ErrBombNotFound is returned when a bomb does not exist or is already fully saved
	ErrBombNotFound = errors.New("future bomb not found")
	// ErrInvalidRecord is returned for records of an unknown kind or without an id
	ErrInvalidRecord = errors.New("invalid record")
	// ErrInvalidPrice is returned for non-positive prices or malformed currency codes
	ErrInvalidPrice = errors.New("invalid price")
)

// Store is the persistence the service reads records and publishes aggregates through
type Store interface {
	FindUserByID(ctx context.Context, userID string) (*models.User, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	LoadSnapshot(ctx context.Context, userID string) (records.RawSnapshot, error)
	SaveRecord(ctx context.Context, userID, kind, id string, raw records.Raw) error
	SharedAggregates(ctx context.Context, userID string) ([]models.SharedAggregate, error)
	PublishAggregate(ctx context.Context, agg models.SharedAggregate) error
	Thresholds(ctx context.Context, userID string) (health.Thresholds, error)
	SaveThresholds(ctx context.Context, userID string, t health.Thresholds) error
	SavePrice(ctx context.Context, ticker string, price float64, currency string) error
}

// QuoteProvider prices RSU shares
type QuoteProvider interface {
	Quote(ctx context.Context, ticker, target string) (quotes.Quote, error)
	ConversionRate(ctx context.Context, from, target string) (float64, error)
	Forget(ticker string)
}

// Service handles business logic
type Service struct {
	store   Store
	quotes  QuoteProvider
	metrics *metrics.Metrics
	log     *logrus.Logger
	config  *config.Config
	now     func() time.Time
}

// NewService initializes a new service
func NewService(store Store, quotes QuoteProvider, m *metrics.Metrics, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		store:   store,
		quotes:  quotes,
		metrics: m,
		log:     log,
		config:  cfg,
		now:     time.Now,
	}
}

// evaluation is one health computation together with the records it ran on
type evaluation struct {
	user     *models.User
	snapshot models.Snapshot
	report   health.Report
	today    time.Time
}

// Health computes the caller's health report for the given view
func (s *Service) Health(ctx context.Context, userID string, view health.ViewMode) (health.Report, error) {
	ev, err := s.evaluate(ctx, userID, view)
	if err != nil {
		return health.Report{}, err
	}
	return ev.report, nil
}

// PlanBombs proposes a defusal plan for each of the caller's bombs still being saved for
func (s *Service) PlanBombs(ctx context.Context, userID string) ([]defusal.Plan, error) {
	ev, err := s.evaluate(ctx, userID, health.Self())
	if err != nil {
		return nil, err
	}
	plans := s.plan(ev)
	for _, p := range plans {
		s.metrics.DefusalPlans.WithLabelValues(string(p.Severity)).Inc()
	}
	return plans, nil
}

// CustomMix scores the caller's own selection of pauses and share sales for one bomb
func (s *Service) CustomMix(ctx context.Context, userID, bombID string, sel defusal.MixSelection) (defusal.MixResult, error) {
	ev, err := s.evaluate(ctx, userID, health.Self())
	if err != nil {
		return defusal.MixResult{}, err
	}
	for _, p := range s.plan(ev) {
		if p.BombID == bombID {
			own := ev.snapshot.OwnedBy(userID)
			return defusal.CustomMix(p.Shortfall, own.Investments, defusal.SellableAssets(own.Incomes), sel), nil
		}
	}
	return defusal.MixResult{}, fmt.Errorf("bomb %s: %w", bombID, ErrBombNotFound)
}

// PublishAggregates recomputes the caller's own totals and stores them for sharing members
func (s *Service) PublishAggregates(ctx context.Context, userID string) (models.SharedAggregate, error) {
	ev, err := s.evaluate(ctx, userID, health.Self())
	if err != nil {
		return models.SharedAggregate{}, err
	}
	agg := ev.report.OwnAggregates
	if err := s.store.PublishAggregate(ctx, agg); err != nil {
		return models.SharedAggregate{}, err
	}
	s.metrics.AggregatesPublished.Inc()
	s.log.WithField("user_id", userID).Infof("Aggregates published: income %.2f, fixed %.2f", agg.TotalIncomeMonthly, agg.TotalFixedMonthly)
	return agg, nil
}

// SaveRecord stores one of the caller's records. Ownership is always the caller.
func (s *Service) SaveRecord(ctx context.Context, userID, kind, id string, raw records.Raw) error {
	if !repository.ValidKind(kind) {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRecord, kind)
	}
	if id == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if raw == nil {
		raw = records.Raw{}
	}
	raw["id"] = id
	delete(raw, "ownerId")
	delete(raw, "owner_id")
	delete(raw, "userId")
	delete(raw, "user_id")
	if err := s.store.SaveRecord(ctx, userID, kind, id, raw); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"kind":    kind,
		"id":      id,
	}).Info("Record saved")
	return nil
}

// Thresholds returns the caller's health thresholds
func (s *Service) Thresholds(ctx context.Context, userID string) (health.Thresholds, error) {
	return s.store.Thresholds(ctx, userID)
}

// UpdateThresholds validates and stores new health thresholds
func (s *Service) UpdateThresholds(ctx context.Context, userID string, t health.Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.store.SaveThresholds(ctx, userID, t); err != nil {
		return err
	}
	s.log.WithField("user_id", userID).Infof("Thresholds updated: good >= %.2f, ok %.2f-%.2f, not well <= %.2f", t.GoodMin, t.OkMin, t.OkMax, t.NotWellMax)
	return nil
}

// Quote prices a ticker in currency, or in the caller's currency when empty
func (s *Service) Quote(ctx context.Context, userID, ticker, currency string) (quotes.Quote, error) {
	if currency == "" {
		user, err := s.store.FindUserByID(ctx, userID)
		if err != nil {
			return quotes.Quote{}, err
		}
		currency = s.currency(user)
	}
	return s.quotes.Quote(ctx, ticker, currency)
}

// UpdatePrice stores the last known price of a ticker and drops cached quotes for it
func (s *Service) UpdatePrice(ctx context.Context, ticker string, price float64, currency string) error {
	ticker, currency = strings.ToUpper(strings.TrimSpace(ticker)), strings.ToUpper(strings.TrimSpace(currency))
	if ticker == "" || len(currency) != 3 || !(price > 0) || math.IsInf(price, 0) {
		return fmt.Errorf("%w: %s %v %s", ErrInvalidPrice, ticker, price, currency)
	}
	if err := s.store.SavePrice(ctx, ticker, price, currency); err != nil {
		return err
	}
	s.quotes.Forget(ticker)
	s.log.WithField("ticker", ticker).Infof("Price updated: %.4f %s", price, currency)
	return nil
}

func (s *Service) evaluate(ctx context.Context, userID string, view health.ViewMode) (evaluation, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return evaluation{}, err
	}
	raw, err := s.store.LoadSnapshot(ctx, userID)
	if err != nil {
		return evaluation{}, err
	}
	snapshot := records.Normalize(raw)
	s.refreshQuotes(ctx, &snapshot, s.currency(user))

	var shared []models.SharedAggregate
	if view.Kind != health.ViewSelf {
		shared, err = s.store.SharedAggregates(ctx, userID)
		if err != nil {
			return evaluation{}, err
		}
	}
	thresholds, err := s.store.Thresholds(ctx, userID)
	if err != nil {
		return evaluation{}, err
	}

	today := s.now()
	report := health.Compute(health.Input{
		UserID:     userID,
		Records:    snapshot,
		Shared:     shared,
		Thresholds: thresholds,
		View:       view,
		Today:      today,
	})
	s.metrics.HealthComputations.WithLabelValues(string(view.Kind), string(report.Category)).Inc()
	s.log.WithFields(logrus.Fields{
		"user_id":  userID,
		"view":     report.View,
		"category": report.Category,
	}).Debug("Health computed")

	return evaluation{user: user, snapshot: snapshot, report: report, today: today}, nil
}

func (s *Service) plan(ev evaluation) []defusal.Plan {
	own := ev.snapshot.OwnedBy(ev.user.ID)
	return defusal.PlanAll(
		own.FutureBombs,
		ev.today,
		ev.report.FundsBeforeBombs(),
		own.Investments,
		defusal.SellableAssets(own.Incomes),
	)
}

// refreshQuotes reprices RSU incomes. When a quote cannot be had the last
// known price on the record stays in use.
func (s *Service) refreshQuotes(ctx context.Context, snapshot *models.Snapshot, currency string) {
	for i, inc := range snapshot.Incomes {
		if inc.RSU == nil || inc.RSU.Ticker == "" {
			continue
		}
		grant := *inc.RSU
		q, err := s.quotes.Quote(ctx, grant.Ticker, currency)
		if err != nil {
			s.metrics.QuoteFailures.Inc()
			log := s.log.WithFields(logrus.Fields{
				"income_id": inc.ID,
				"ticker":    grant.Ticker,
			})
			if grant.Currency == "" {
				log.Warnf("Using last known RSU price: %v", err)
				continue
			}
			// The stored price is still in the grant's currency
			rate, rateErr := s.quotes.ConversionRate(ctx, grant.Currency, currency)
			if rateErr != nil {
				log.Warnf("Using last known RSU price and rate: %v, %v", err, rateErr)
				continue
			}
			log.Warnf("Using last known RSU price at current rate: %v", err)
			grant.ConversionRate = rate
		} else {
			grant.StockPrice = q.Price
			grant.Currency = q.Currency
			grant.ConversionRate = q.ConversionRate
		}
		snapshot.Incomes[i].RSU = &grant
		snapshot.Incomes[i].Amount = grant.MaxMonthlyIncome()
	}
}

func (s *Service) currency(user *models.User) string {
	if user != nil && user.Currency != "" {
		return user.Currency
	}
	return s.config.BaseCurrency
}

// IsNotFound reports whether err means a missing user or bomb
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrBombNotFound)
}
