package health

import (
	"math"
	"testing"
	"time"

	"github.com/Dan9191/finhealth/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const me = "user-1"

// June has 30 days, so the 15th leaves exactly half the month.
var midJune = time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

func baseSnapshot(actual float64) models.Snapshot {
	return models.Snapshot{
		Incomes: []models.Income{
			{ID: "inc-1", OwnerID: me, Amount: 100000, Frequency: models.FrequencyMonthly, IncludeInHealth: true},
		},
		FixedExpenses: []models.FixedExpense{
			{ID: "fx-1", OwnerID: me, Amount: 20000, Frequency: models.FrequencyMonthly},
			{ID: "fx-2", OwnerID: me, Amount: 12000, Frequency: models.FrequencyYearly, Paid: true},
		},
		VariablePlans: []models.VariablePlan{
			{ID: "vp-1", OwnerID: me, Planned: 5000, Actuals: []models.Actual{
				{Amount: actual, PaymentMode: models.PaymentModeUPI},
			}},
		},
		Investments: []models.Investment{
			{ID: "inv-1", OwnerID: me, MonthlyAmount: 10000, Status: models.InvestmentActive},
		},
	}
}

func selfInput(s models.Snapshot) Input {
	return Input{
		UserID:     me,
		Records:    s,
		Thresholds: DefaultThresholds(),
		View:       Self(),
		Today:      midJune,
	}
}

func TestCompute_ProratedBudgetScenario(t *testing.T) {
	report := Compute(selfInput(baseSnapshot(2000)))

	require.True(t, report.Available())
	assert.InDelta(t, 100000, report.Breakdown.Income, 1e-9)
	assert.InDelta(t, 21000, report.Breakdown.Fixed, 1e-9)
	assert.InDelta(t, 2500, report.Breakdown.Variable, 1e-9)
	assert.InDelta(t, 10000, report.Breakdown.Investments, 1e-9)
	assert.InDelta(t, 33500, report.Breakdown.Outflow, 1e-9)
	assert.InDelta(t, 66500, *report.Remaining, 1e-9)
	assert.InDelta(t, 66.5, report.HealthScorePct, 1e-9)
	assert.Equal(t, CategoryGood, report.Category)
}

func TestCompute_OverspentBudgetUsesActual(t *testing.T) {
	report := Compute(selfInput(baseSnapshot(6000)))

	assert.InDelta(t, 6000, report.Breakdown.Variable, 1e-9)
	assert.InDelta(t, 37000, report.Breakdown.Outflow, 1e-9)
	assert.InDelta(t, 63000, *report.Remaining, 1e-9)
}

func TestCompute_NonDeductingPaymentModesIgnored(t *testing.T) {
	s := baseSnapshot(1000)
	s.VariablePlans[0].Actuals = append(s.VariablePlans[0].Actuals,
		models.Actual{Amount: 50000, PaymentMode: models.PaymentModeCreditCard},
		models.Actual{Amount: 50000, PaymentMode: models.PaymentModeExtraCash},
		models.Actual{Amount: 500, PaymentMode: models.PaymentModeCash},
	)

	report := Compute(selfInput(s))

	// actual = 1500, prorated = 2500
	assert.InDelta(t, 2500, report.Breakdown.Variable, 1e-9)
	assert.InDelta(t, 1500, report.OwnAggregates.TotalVariableActual, 1e-9)
}

func TestCompute_ActualsFromOtherMonthsIgnored(t *testing.T) {
	s := baseSnapshot(1000)
	s.VariablePlans[0].Actuals = append(s.VariablePlans[0].Actuals,
		models.Actual{Amount: 9000, PaymentMode: models.PaymentModeUPI, IncurredAt: time.Date(2026, time.May, 31, 0, 0, 0, 0, time.UTC)},
		models.Actual{Amount: 700, PaymentMode: models.PaymentModeUPI, IncurredAt: time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC)},
	)

	report := Compute(selfInput(s))

	assert.InDelta(t, 2500, report.Breakdown.Variable, 1e-9)
	assert.InDelta(t, 1700, report.OwnAggregates.TotalVariableActual, 1e-9)
}

func TestCompute_ZeroIncomeScoresZero(t *testing.T) {
	s := baseSnapshot(0)
	s.Incomes = nil

	report := Compute(selfInput(s))

	assert.Equal(t, 0.0, report.HealthScorePct)
	assert.False(t, math.IsNaN(report.HealthScorePct))
	assert.Less(t, *report.Remaining, 0.0)
	assert.Equal(t, CategoryWorrisome, report.Category)
}

func TestCompute_EmptyRecords(t *testing.T) {
	report := Compute(selfInput(models.Snapshot{}))

	assert.Equal(t, 0.0, *report.Remaining)
	assert.Equal(t, 0.0, report.HealthScorePct)
	assert.Equal(t, CategoryNotWell, report.Category)
}

func TestCompute_ExcludedIncomeAndPausedInvestment(t *testing.T) {
	s := baseSnapshot(2000)
	s.Incomes = append(s.Incomes, models.Income{OwnerID: me, Amount: 50000, Frequency: models.FrequencyMonthly, IncludeInHealth: false})
	s.Investments = append(s.Investments, models.Investment{OwnerID: me, MonthlyAmount: 7000, Status: models.InvestmentPaused})

	report := Compute(selfInput(s))

	assert.InDelta(t, 100000, report.Breakdown.Income, 1e-9)
	assert.InDelta(t, 10000, report.Breakdown.Investments, 1e-9)
}

func TestCompute_CreditCardsDueThisMonthOnly(t *testing.T) {
	s := baseSnapshot(2000)
	s.CreditCards = []models.CreditCard{
		{OwnerID: me, BillAmount: 8000, PaidAmount: 3000, DueDate: time.Date(2026, time.June, 25, 0, 0, 0, 0, time.UTC)},
		{OwnerID: me, BillAmount: 1000, PaidAmount: 1500, DueDate: time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC)},
		{OwnerID: me, BillAmount: 9000, DueDate: time.Date(2026, time.July, 5, 0, 0, 0, 0, time.UTC)},
		{OwnerID: me, BillAmount: 9000, DueDate: time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC)},
	}

	report := Compute(selfInput(s))

	assert.InDelta(t, 5000, report.Breakdown.CreditCardDues, 1e-9)
	assert.InDelta(t, 5000, report.OwnAggregates.TotalCreditCardDues, 1e-9)
}

func TestCompute_FutureBombSIP(t *testing.T) {
	today := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	s := models.Snapshot{
		Incomes: []models.Income{{OwnerID: me, Amount: 100000, IncludeInHealth: true, Frequency: models.FrequencyMonthly}},
		FutureBombs: []models.FutureBomb{
			{OwnerID: me, TotalAmount: 500000, SavedAmount: 400000, DueDate: time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)},
			{OwnerID: me, TotalAmount: 10000, SavedAmount: 12000, DueDate: time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	in := selfInput(s)
	in.Today = today

	report := Compute(in)

	assert.InDelta(t, 20000, report.Breakdown.BombSIP, 1e-9)
	assert.InDelta(t, 80000, *report.Remaining, 1e-9)
	assert.InDelta(t, 100000, report.FundsBeforeBombs(), 1e-9)
}

func TestCompute_IgnoresRecordsOwnedByOthers(t *testing.T) {
	s := baseSnapshot(2000)
	s.Incomes = append(s.Incomes, models.Income{OwnerID: "partner", Amount: 90000, IncludeInHealth: true})
	s.FixedExpenses = append(s.FixedExpenses, models.FixedExpense{OwnerID: "partner", Amount: 40000})

	for _, view := range []ViewMode{Self(), Merged()} {
		in := selfInput(s)
		in.View = view
		report := Compute(in)
		assert.InDelta(t, 100000, report.Breakdown.Income, 1e-9, view.String())
		assert.InDelta(t, 21000, report.Breakdown.Fixed, 1e-9, view.String())
	}
}

func TestCompute_MergedAddsPartnersAndSkipsOwnRow(t *testing.T) {
	in := selfInput(baseSnapshot(2000))
	in.View = Merged()
	in.Shared = []models.SharedAggregate{
		{UserID: me, TotalIncomeMonthly: 100000, TotalFixedMonthly: 21000},
		{
			UserID:                  "partner",
			TotalIncomeMonthly:      50000,
			TotalFixedMonthly:       10000,
			TotalInvestmentsMonthly: 5000,
			TotalVariablePlanned:    4000,
			TotalVariableActual:     1000,
			TotalCreditCardDues:     3000,
		},
	}

	report := Compute(in)

	assert.InDelta(t, 150000, report.Breakdown.Income, 1e-9)
	assert.InDelta(t, 31000, report.Breakdown.Fixed, 1e-9)
	assert.InDelta(t, 15000, report.Breakdown.Investments, 1e-9)
	// own 2500 + partner max(1000, 4000*0.5)
	assert.InDelta(t, 4500, report.Breakdown.Variable, 1e-9)
	assert.InDelta(t, 3000, report.Breakdown.CreditCardDues, 1e-9)
	assert.InDelta(t, 150000-31000-15000-4500-3000, *report.Remaining, 1e-9)
}

func TestCompute_SpecificMemberUsesOnlyTheirAggregate(t *testing.T) {
	in := selfInput(baseSnapshot(2000))
	in.View = Specific("partner")
	in.Shared = []models.SharedAggregate{
		{UserID: "partner", TotalIncomeMonthly: 50000, TotalFixedMonthly: 10000, TotalVariablePlanned: 4000, TotalVariableActual: 3000},
	}

	report := Compute(in)

	require.True(t, report.Available())
	assert.InDelta(t, 50000, report.Breakdown.Income, 1e-9)
	assert.InDelta(t, 3000, report.Breakdown.Variable, 1e-9)
	assert.InDelta(t, 37000, *report.Remaining, 1e-9)
	assert.Equal(t, "specific:partner", report.View)
	// Own aggregates never depend on the view.
	assert.InDelta(t, 100000, report.OwnAggregates.TotalIncomeMonthly, 1e-9)
}

func TestCompute_SpecificMemberWithoutAggregateIsUnavailable(t *testing.T) {
	in := selfInput(baseSnapshot(2000))
	in.View = Specific("stranger")

	report := Compute(in)

	assert.Nil(t, report.Remaining)
	assert.False(t, report.Available())
	assert.Equal(t, CategoryUnavailable, report.Category)
	assert.Equal(t, 0.0, report.FundsBeforeBombs())
	assert.Equal(t, me, report.OwnAggregates.UserID)
}

func TestAggregates(t *testing.T) {
	agg := Aggregates(me, baseSnapshot(2000), midJune)

	assert.Equal(t, models.SharedAggregate{
		UserID:                  me,
		TotalIncomeMonthly:      100000,
		TotalFixedMonthly:       21000,
		TotalInvestmentsMonthly: 10000,
		TotalVariablePlanned:    5000,
		TotalVariableActual:     2000,
	}, agg)
}

func TestAggregates_RoundsToCents(t *testing.T) {
	s := models.Snapshot{FixedExpenses: []models.FixedExpense{{OwnerID: me, Amount: 100, Frequency: models.FrequencyQuarterly}}}

	agg := Aggregates(me, s, midJune)

	assert.Equal(t, 33.33, agg.TotalFixedMonthly)
}

func TestMonthly_FrequencyInvariant(t *testing.T) {
	for _, amount := range []float64{0, 1, 1200, 12345.67, 999999} {
		assert.InDelta(t, Monthly(amount/12, models.FrequencyMonthly), Monthly(amount, models.FrequencyYearly), 1e-9)
		assert.InDelta(t, Monthly(amount/3, models.FrequencyMonthly), Monthly(amount, models.FrequencyQuarterly), 1e-9)
	}
	assert.Equal(t, 0.0, Monthly(math.NaN(), models.FrequencyMonthly))
	assert.Equal(t, 50.0, Monthly(50, ""))
}

func TestRemainingDaysRatio(t *testing.T) {
	assert.InDelta(t, 0.5, RemainingDaysRatio(midJune), 1e-12)
	assert.InDelta(t, 0.0, RemainingDaysRatio(time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)), 1e-12)
	assert.InDelta(t, 1-1.0/31, RemainingDaysRatio(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)), 1e-12)
}

func TestEffectiveVariable_Monotonic(t *testing.T) {
	ratio := 0.4
	prev := EffectiveVariable(0, 1000, ratio)
	for actual := 0.0; actual <= 2000; actual += 100 {
		got := EffectiveVariable(actual, 1000, ratio)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}

	assert.InDelta(t, 400, EffectiveVariable(0, 1000, ratio), 1e-9)
	assert.InDelta(t, 800, EffectiveVariable(0, 2000, ratio), 1e-9)
}

func TestClassify_Boundaries(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		pct  float64
		want Category
	}{
		{100, CategoryGood},
		{th.GoodMin, CategoryGood},
		{19.995, CategoryOK}, // between ok_max and good_min
		{th.OkMax, CategoryOK},
		{th.OkMin, CategoryOK},
		{9.995, CategoryNotWell}, // between not_well_max and ok_min
		{th.NotWellMax, CategoryNotWell},
		{0, CategoryNotWell},
		{-0.01, CategoryWorrisome},
		{math.Inf(-1), CategoryWorrisome},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.pct, th), "pct=%v", tt.pct)
	}
}

func TestThresholds_Validate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())
	require.NoError(t, Thresholds{GoodMin: 30, OkMin: 15, OkMax: 15, NotWellMax: 5}.Validate())

	invalid := []Thresholds{
		{GoodMin: 20, OkMin: 10, OkMax: 19.99, NotWellMax: 10},
		{GoodMin: 20, OkMin: 12, OkMax: 11, NotWellMax: 5},
		{GoodMin: 20, OkMin: 10, OkMax: 20, NotWellMax: 5},
	}
	for _, th := range invalid {
		assert.ErrorIs(t, th.Validate(), ErrInvalidThresholds)
	}
}

func TestParseViewMode(t *testing.T) {
	v, err := ParseViewMode("")
	require.NoError(t, err)
	assert.Equal(t, Self(), v)

	v, err = ParseViewMode("merged")
	require.NoError(t, err)
	assert.Equal(t, ViewMerged, v.Kind)

	v, err = ParseViewMode("specific:abc")
	require.NoError(t, err)
	assert.Equal(t, Specific("abc"), v)
	assert.Equal(t, "specific:abc", v.String())

	_, err = ParseViewMode("specific:")
	assert.ErrorIs(t, err, ErrInvalidViewMode)
	_, err = ParseViewMode("everyone")
	assert.ErrorIs(t, err, ErrInvalidViewMode)
}
