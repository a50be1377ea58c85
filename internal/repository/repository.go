package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dan9191/finhealth/internal/health"
	"github.com/Dan9191/finhealth/internal/models"
	"github.com/Dan9191/finhealth/internal/records"
	"github.com/Dan9191/finhealth/internal/utils"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist
	ErrNotFound = errors.New("not found")
	// ErrNotSaved is returned when a write touched no row
	ErrNotSaved = errors.New("record not saved")
)

// Record kinds stored in finance.records
const (
	KindIncome       = "income"
	KindFixedExpense = "fixed_expense"
	KindVariablePlan = "variable_plan"
	KindInvestment   = "investment"
	KindCreditCard   = "credit_card"
	KindFutureBomb   = "future_bomb"
)

var snapshotKinds = []string{KindIncome, KindFixedExpense, KindVariablePlan, KindInvestment, KindCreditCard, KindFutureBomb}

// ValidKind reports whether kind is a stored record kind
func ValidKind(kind string) bool {
	for _, k := range snapshotKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Repository provides database operations
type Repository struct {
	db     *sql.DB
	cipher *utils.PayloadCipher
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB, cipher *utils.PayloadCipher) *Repository {
	return &Repository{db: db, cipher: cipher}
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, currency, created_at
		FROM finance.users
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&user.ID, &user.Username, &user.Email, &user.Currency, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ListUserIDs returns every user id
func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM finance.users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return ids, nil
}

// LoadSnapshot decrypts every record owned by userID. The row owner always
// overrides whatever owner the payload claims.
func (r *Repository) LoadSnapshot(ctx context.Context, userID string) (records.RawSnapshot, error) {
	var snap records.RawSnapshot
	query := `
		SELECT id, kind, payload
		FROM finance.records
		WHERE user_id = $1 AND kind = ANY($2)
		ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, userID, pq.Array(snapshotKinds))
	if err != nil {
		return snap, fmt.Errorf("failed to load records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, kind string
		var payload []byte
		if err := rows.Scan(&id, &kind, &payload); err != nil {
			return snap, fmt.Errorf("failed to scan record: %w", err)
		}
		plain, err := r.cipher.Open(payload, userID)
		if err != nil {
			return snap, fmt.Errorf("failed to open record %s: %w", id, err)
		}
		raw := records.Raw{}
		if err := json.Unmarshal(plain, &raw); err != nil {
			return snap, fmt.Errorf("failed to decode record %s: %w", id, err)
		}
		if _, ok := raw["id"]; !ok {
			raw["id"] = id
		}
		raw["ownerId"] = userID

		switch kind {
		case KindIncome:
			snap.Incomes = append(snap.Incomes, raw)
		case KindFixedExpense:
			snap.FixedExpenses = append(snap.FixedExpenses, raw)
		case KindVariablePlan:
			snap.VariablePlans = append(snap.VariablePlans, raw)
		case KindInvestment:
			snap.Investments = append(snap.Investments, raw)
		case KindCreditCard:
			snap.CreditCards = append(snap.CreditCards, raw)
		case KindFutureBomb:
			snap.FutureBombs = append(snap.FutureBombs, raw)
		}
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("failed to load records: %w", err)
	}
	return snap, nil
}

// SaveRecord encrypts and upserts a record payload owned by userID.
// Records are keyed by (user_id, id); saving an id under another kind moves it.
func (r *Repository) SaveRecord(ctx context.Context, userID, kind, id string, raw records.Raw) error {
	plain, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	sealed, err := r.cipher.Seal(plain, userID)
	if err != nil {
		return fmt.Errorf("failed to seal record: %w", err)
	}
	query := `
		INSERT INTO finance.records (id, user_id, kind, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, id) DO UPDATE SET
			kind = EXCLUDED.kind,
			payload = EXCLUDED.payload,
			updated_at = CURRENT_TIMESTAMP`
	res, err := r.db.ExecContext(ctx, query, id, userID, kind, sealed)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("record %s: %w", id, ErrNotSaved)
	}
	return nil
}

// SharedAggregates returns the published totals of every member sharing with userID
func (r *Repository) SharedAggregates(ctx context.Context, userID string) ([]models.SharedAggregate, error) {
	query := `
		SELECT a.user_id, a.total_income_monthly, a.total_fixed_monthly, a.total_investments_monthly,
		       a.total_variable_planned, a.total_variable_actual, a.total_credit_card_dues
		FROM finance.shared_aggregates a
		JOIN finance.sharing_members m ON m.member_id = a.user_id
		WHERE m.owner_id = $1
		ORDER BY a.user_id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shared aggregates: %w", err)
	}
	defer rows.Close()

	var out []models.SharedAggregate
	for rows.Next() {
		var a models.SharedAggregate
		var income, fixed, investments, planned, actual, dues sql.NullFloat64
		if err := rows.Scan(&a.UserID, &income, &fixed, &investments, &planned, &actual, &dues); err != nil {
			return nil, fmt.Errorf("failed to scan shared aggregate: %w", err)
		}
		// NULL totals read as zero
		a.TotalIncomeMonthly = income.Float64
		a.TotalFixedMonthly = fixed.Float64
		a.TotalInvestmentsMonthly = investments.Float64
		a.TotalVariablePlanned = planned.Float64
		a.TotalVariableActual = actual.Float64
		a.TotalCreditCardDues = dues.Float64
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load shared aggregates: %w", err)
	}
	return out, nil
}

// PublishAggregate stores a user's own totals verbatim. Last write wins.
func (r *Repository) PublishAggregate(ctx context.Context, agg models.SharedAggregate) error {
	query := `
		INSERT INTO finance.shared_aggregates (user_id, total_income_monthly, total_fixed_monthly,
			total_investments_monthly, total_variable_planned, total_variable_actual, total_credit_card_dues, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET
			total_income_monthly = EXCLUDED.total_income_monthly,
			total_fixed_monthly = EXCLUDED.total_fixed_monthly,
			total_investments_monthly = EXCLUDED.total_investments_monthly,
			total_variable_planned = EXCLUDED.total_variable_planned,
			total_variable_actual = EXCLUDED.total_variable_actual,
			total_credit_card_dues = EXCLUDED.total_credit_card_dues,
			updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.ExecContext(ctx, query, agg.UserID, agg.TotalIncomeMonthly, agg.TotalFixedMonthly,
		agg.TotalInvestmentsMonthly, agg.TotalVariablePlanned, agg.TotalVariableActual, agg.TotalCreditCardDues)
	if err != nil {
		return fmt.Errorf("failed to publish aggregate: %w", err)
	}
	return nil
}

// Thresholds returns the user's health thresholds, or the defaults when unset
func (r *Repository) Thresholds(ctx context.Context, userID string) (health.Thresholds, error) {
	var t health.Thresholds
	query := `
		SELECT good_min, ok_min, ok_max, not_well_max
		FROM finance.health_thresholds
		WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&t.GoodMin, &t.OkMin, &t.OkMax, &t.NotWellMax)
	if err == sql.ErrNoRows {
		return health.DefaultThresholds(), nil
	}
	if err != nil {
		return t, fmt.Errorf("failed to load thresholds: %w", err)
	}
	return t, nil
}

// SaveThresholds stores the user's health thresholds
func (r *Repository) SaveThresholds(ctx context.Context, userID string, t health.Thresholds) error {
	query := `
		INSERT INTO finance.health_thresholds (user_id, good_min, ok_min, ok_max, not_well_max)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			good_min = EXCLUDED.good_min,
			ok_min = EXCLUDED.ok_min,
			ok_max = EXCLUDED.ok_max,
			not_well_max = EXCLUDED.not_well_max`
	if _, err := r.db.ExecContext(ctx, query, userID, t.GoodMin, t.OkMin, t.OkMax, t.NotWellMax); err != nil {
		return fmt.Errorf("failed to save thresholds: %w", err)
	}
	return nil
}

// LastPrice returns the last known stock price for ticker and its currency
func (r *Repository) LastPrice(ctx context.Context, ticker string) (float64, string, error) {
	var price float64
	var currency string
	query := `
		SELECT price, currency
		FROM finance.stock_prices
		WHERE ticker = $1`
	err := r.db.QueryRowContext(ctx, query, ticker).Scan(&price, &currency)
	if err == sql.ErrNoRows {
		return 0, "", fmt.Errorf("price for %s: %w", ticker, ErrNotFound)
	}
	if err != nil {
		return 0, "", fmt.Errorf("failed to load price: %w", err)
	}
	return price, currency, nil
}

// SavePrice upserts the last known price of ticker
func (r *Repository) SavePrice(ctx context.Context, ticker string, price float64, currency string) error {
	query := `
		INSERT INTO finance.stock_prices (ticker, price, currency, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (ticker) DO UPDATE SET
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			updated_at = CURRENT_TIMESTAMP`
	if _, err := r.db.ExecContext(ctx, query, ticker, price, currency); err != nil {
		return fmt.Errorf("failed to save price: %w", err)
	}
	return nil
}
