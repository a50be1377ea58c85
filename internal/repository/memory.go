package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Dan9191/finhealth/internal/health"
	"github.com/Dan9191/finhealth/internal/models"
	"github.com/Dan9191/finhealth/internal/records"
)

// InMemoryRepository keeps everything in process memory. Records are held
// already decrypted. Used for local runs without Postgres and in tests.
type InMemoryRepository struct {
	mu         sync.RWMutex
	users      map[string]*models.User
	snapshots  map[string]records.RawSnapshot
	aggregates map[string]models.SharedAggregate
	sharing    map[string][]string // owner -> members
	thresholds map[string]health.Thresholds
	prices     map[string]price
}

type price struct {
	value    float64
	currency string
}

// NewInMemoryRepository creates an empty in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users:      make(map[string]*models.User),
		snapshots:  make(map[string]records.RawSnapshot),
		aggregates: make(map[string]models.SharedAggregate),
		sharing:    make(map[string][]string),
		thresholds: make(map[string]health.Thresholds),
		prices:     make(map[string]price),
	}
}

// AddUser stores a user
func (r *InMemoryRepository) AddUser(u models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = &u
}

// SetSnapshot replaces a user's records
func (r *InMemoryRepository) SetSnapshot(userID string, snap records.RawSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[userID] = snap
}

// Share lets owner see member's published aggregates
func (r *InMemoryRepository) Share(ownerID, memberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sharing[ownerID] = append(r.sharing[ownerID], memberID)
}

// SetPrice stores the last known price of a ticker
func (r *InMemoryRepository) SetPrice(ticker string, value float64, currency string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prices[ticker] = price{value: value, currency: currency}
}

// FindUserByID retrieves a user by id
func (r *InMemoryRepository) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

// ListUserIDs returns every user id in order
func (r *InMemoryRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadSnapshot returns the user's records with the owner forced to userID
func (r *InMemoryRepository) LoadSnapshot(ctx context.Context, userID string) (records.RawSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := r.snapshots[userID]
	return records.RawSnapshot{
		Incomes:       owned(snap.Incomes, userID),
		FixedExpenses: owned(snap.FixedExpenses, userID),
		VariablePlans: owned(snap.VariablePlans, userID),
		Investments:   owned(snap.Investments, userID),
		CreditCards:   owned(snap.CreditCards, userID),
		FutureBombs:   owned(snap.FutureBombs, userID),
	}, nil
}

// SaveRecord upserts a record of the given kind by id
func (r *InMemoryRepository) SaveRecord(ctx context.Context, userID, kind, id string, raw records.Raw) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := r.snapshots[userID]
	// an id lives under one kind only
	snap.Incomes = without(snap.Incomes, id)
	snap.FixedExpenses = without(snap.FixedExpenses, id)
	snap.VariablePlans = without(snap.VariablePlans, id)
	snap.Investments = without(snap.Investments, id)
	snap.CreditCards = without(snap.CreditCards, id)
	snap.FutureBombs = without(snap.FutureBombs, id)

	var list *[]records.Raw
	switch kind {
	case KindIncome:
		list = &snap.Incomes
	case KindFixedExpense:
		list = &snap.FixedExpenses
	case KindVariablePlan:
		list = &snap.VariablePlans
	case KindInvestment:
		list = &snap.Investments
	case KindCreditCard:
		list = &snap.CreditCards
	case KindFutureBomb:
		list = &snap.FutureBombs
	default:
		return fmt.Errorf("unknown record kind %q", kind)
	}

	cp := make(records.Raw, len(raw)+1)
	for k, v := range raw {
		cp[k] = v
	}
	cp["id"] = id

	*list = append(*list, cp)
	r.snapshots[userID] = snap
	return nil
}

// SharedAggregates returns the published totals of members sharing with userID
func (r *InMemoryRepository) SharedAggregates(ctx context.Context, userID string) ([]models.SharedAggregate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.SharedAggregate
	for _, member := range r.sharing[userID] {
		if agg, ok := r.aggregates[member]; ok {
			out = append(out, agg)
		}
	}
	return out, nil
}

// PublishAggregate stores a user's own totals
func (r *InMemoryRepository) PublishAggregate(ctx context.Context, agg models.SharedAggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggregates[agg.UserID] = agg
	return nil
}

// Aggregate returns what userID last published
func (r *InMemoryRepository) Aggregate(userID string) (models.SharedAggregate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agg, ok := r.aggregates[userID]
	return agg, ok
}

// Thresholds returns the user's thresholds or the defaults
func (r *InMemoryRepository) Thresholds(ctx context.Context, userID string) (health.Thresholds, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.thresholds[userID]; ok {
		return t, nil
	}
	return health.DefaultThresholds(), nil
}

// SaveThresholds stores the user's thresholds
func (r *InMemoryRepository) SaveThresholds(ctx context.Context, userID string, t health.Thresholds) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thresholds[userID] = t
	return nil
}

// SavePrice stores the last known price of a ticker
func (r *InMemoryRepository) SavePrice(ctx context.Context, ticker string, value float64, currency string) error {
	r.SetPrice(ticker, value, currency)
	return nil
}

// LastPrice returns the last known price of a ticker
func (r *InMemoryRepository) LastPrice(ctx context.Context, ticker string) (float64, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prices[ticker]
	if !ok {
		return 0, "", fmt.Errorf("price for %s: %w", ticker, ErrNotFound)
	}
	return p.value, p.currency, nil
}

func without(in []records.Raw, id string) []records.Raw {
	var out []records.Raw
	for _, raw := range in {
		if raw["id"] != id {
			out = append(out, raw)
		}
	}
	return out
}

func owned(in []records.Raw, userID string) []records.Raw {
	out := make([]records.Raw, 0, len(in))
	for _, raw := range in {
		cp := make(records.Raw, len(raw)+1)
		for k, v := range raw {
			cp[k] = v
		}
		cp["ownerId"] = userID
		out = append(out, cp)
	}
	return out
}
