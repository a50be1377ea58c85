package health

import (
	"math"
	"time"

	"github.com/Dan9191/finhealth/internal/models"
	"github.com/shopspring/decimal"
)

// Input is everything one health computation looks at
type Input struct {
	UserID     string
	Records    models.Snapshot
	Shared     []models.SharedAggregate
	Thresholds Thresholds
	View       ViewMode
	Today      time.Time
}

// Breakdown holds the monthly totals behind a report
type Breakdown struct {
	Income         float64 `json:"income"`
	Fixed          float64 `json:"fixed"`
	Variable       float64 `json:"variable"`
	Investments    float64 `json:"investments"`
	CreditCardDues float64 `json:"credit_card_dues"`
	BombSIP        float64 `json:"bomb_sip"`
	Outflow        float64 `json:"outflow"`
}

// Report is the result of a health computation.
// Remaining is nil when the requested member has published no totals.
type Report struct {
	View           string                 `json:"view"`
	Remaining      *float64               `json:"remaining"`
	Category       Category               `json:"category"`
	HealthScorePct float64                `json:"health_score_pct"`
	Breakdown      Breakdown              `json:"breakdown"`
	OwnAggregates  models.SharedAggregate `json:"own_aggregates"`
}

// Available reports whether the report carries figures
func (r Report) Available() bool {
	return r.Remaining != nil
}

// FundsBeforeBombs is what is left each month before any future bomb saving
func (r Report) FundsBeforeBombs() float64 {
	if r.Remaining == nil {
		return 0
	}
	return *r.Remaining + r.Breakdown.BombSIP
}

// Compute runs the health aggregation for in.UserID
func Compute(in Input) Report {
	own := in.Records.OwnedBy(in.UserID)
	ratio := RemainingDaysRatio(in.Today)

	report := Report{
		View:          in.View.String(),
		OwnAggregates: Aggregates(in.UserID, own, in.Today),
	}

	var b Breakdown
	switch in.View.Kind {
	case ViewSpecific:
		agg, ok := findAggregate(in.Shared, in.View.MemberID)
		if !ok {
			report.Category = CategoryUnavailable
			return report
		}
		b = mergeAggregate(b, agg, ratio)
	default:
		b = ownBreakdown(own, in.Today, ratio)
		if in.View.Kind == ViewMerged {
			for _, agg := range in.Shared {
				// The caller's own row would count their records twice
				if agg.UserID == in.UserID {
					continue
				}
				b = mergeAggregate(b, agg, ratio)
			}
		}
	}

	b.Outflow = b.Fixed + b.Variable + b.Investments + b.CreditCardDues + b.BombSIP
	remaining := b.Income - b.Outflow

	report.Breakdown = b
	report.Remaining = &remaining
	report.HealthScorePct = score(remaining, b.Income)
	report.Category = Classify(classificationPct(remaining, b.Income), in.Thresholds)
	return report
}

// Aggregates computes the monthly totals userID publishes for other members to merge
func Aggregates(userID string, own models.Snapshot, today time.Time) models.SharedAggregate {
	agg := models.SharedAggregate{UserID: userID}
	for _, inc := range own.Incomes {
		if inc.IncludeInHealth {
			agg.TotalIncomeMonthly += Monthly(inc.Amount, inc.Frequency)
		}
	}
	for _, e := range own.FixedExpenses {
		agg.TotalFixedMonthly += Monthly(e.Amount, e.Frequency)
	}
	for _, inv := range own.Investments {
		if inv.Active() {
			agg.TotalInvestmentsMonthly += finite(inv.MonthlyAmount)
		}
	}
	for _, p := range own.VariablePlans {
		agg.TotalVariablePlanned += finite(p.Planned)
		agg.TotalVariableActual += finite(p.ActualSpent(today))
	}
	agg.TotalCreditCardDues = creditCardDues(own.CreditCards, today)
	return roundAggregate(agg)
}

func ownBreakdown(own models.Snapshot, today time.Time, ratio float64) Breakdown {
	var b Breakdown
	for _, inc := range own.Incomes {
		if inc.IncludeInHealth {
			b.Income += Monthly(inc.Amount, inc.Frequency)
		}
	}
	for _, e := range own.FixedExpenses {
		b.Fixed += Monthly(e.Amount, e.Frequency)
	}
	for _, inv := range own.Investments {
		if inv.Active() {
			b.Investments += finite(inv.MonthlyAmount)
		}
	}
	for _, p := range own.VariablePlans {
		b.Variable += EffectiveVariable(p.ActualSpent(today), p.Planned, ratio)
	}
	b.CreditCardDues = creditCardDues(own.CreditCards, today)
	for _, bomb := range own.FutureBombs {
		if !bomb.Defused() {
			b.BombSIP += finite(bomb.MonthlySIP(today))
		}
	}
	return b
}

func creditCardDues(cards []models.CreditCard, today time.Time) float64 {
	var total float64
	for _, c := range cards {
		if c.DueInMonthOf(today) {
			total += finite(c.Unpaid())
		}
	}
	return total
}

func mergeAggregate(b Breakdown, agg models.SharedAggregate, ratio float64) Breakdown {
	b.Income += finite(agg.TotalIncomeMonthly)
	b.Fixed += finite(agg.TotalFixedMonthly)
	b.Investments += finite(agg.TotalInvestmentsMonthly)
	b.Variable += EffectiveVariable(agg.TotalVariableActual, agg.TotalVariablePlanned, ratio)
	b.CreditCardDues += finite(agg.TotalCreditCardDues)
	return b
}

func findAggregate(shared []models.SharedAggregate, memberID string) (models.SharedAggregate, bool) {
	for _, agg := range shared {
		if agg.UserID == memberID {
			return agg, true
		}
	}
	return models.SharedAggregate{}, false
}

func score(remaining, income float64) float64 {
	if income <= 0 {
		return 0
	}
	return math.Min(100, math.Max(0, remaining/income*100))
}

// classificationPct keeps the sign of remaining so that a deficit is never
// mistaken for a zero score.
func classificationPct(remaining, income float64) float64 {
	if remaining < 0 {
		return math.Inf(-1)
	}
	return score(remaining, income)
}

func roundAggregate(agg models.SharedAggregate) models.SharedAggregate {
	agg.TotalIncomeMonthly = roundMoney(agg.TotalIncomeMonthly)
	agg.TotalFixedMonthly = roundMoney(agg.TotalFixedMonthly)
	agg.TotalInvestmentsMonthly = roundMoney(agg.TotalInvestmentsMonthly)
	agg.TotalVariablePlanned = roundMoney(agg.TotalVariablePlanned)
	agg.TotalVariableActual = roundMoney(agg.TotalVariableActual)
	agg.TotalCreditCardDues = roundMoney(agg.TotalCreditCardDues)
	return agg
}

func roundMoney(v float64) float64 {
	return decimal.NewFromFloat(finite(v)).Round(2).InexactFloat64()
}
