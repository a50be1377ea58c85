package records

import (
	"strings"

	"github.com/Dan9191/finhealth/internal/models"
)

// RawSnapshot is a snapshot as it arrives from storage, before normalization
type RawSnapshot struct {
	Incomes       []Raw `json:"incomes"`
	FixedExpenses []Raw `json:"fixed_expenses"`
	VariablePlans []Raw `json:"variable_plans"`
	Investments   []Raw `json:"investments"`
	CreditCards   []Raw `json:"credit_cards"`
	FutureBombs   []Raw `json:"future_bombs"`
}

// Normalize converts every raw record into its strict form
func Normalize(raw RawSnapshot) models.Snapshot {
	var s models.Snapshot
	for _, r := range raw.Incomes {
		s.Incomes = append(s.Incomes, Income(r))
	}
	for _, r := range raw.FixedExpenses {
		s.FixedExpenses = append(s.FixedExpenses, FixedExpense(r))
	}
	for _, r := range raw.VariablePlans {
		s.VariablePlans = append(s.VariablePlans, VariablePlan(r))
	}
	for _, r := range raw.Investments {
		s.Investments = append(s.Investments, Investment(r))
	}
	for _, r := range raw.CreditCards {
		s.CreditCards = append(s.CreditCards, CreditCard(r))
	}
	for _, r := range raw.FutureBombs {
		s.FutureBombs = append(s.FutureBombs, FutureBomb(r))
	}
	return s
}

// SharedAggregate reads one member's published totals
func SharedAggregate(r Raw) models.SharedAggregate {
	return models.SharedAggregate{
		UserID:                  r.str("userId"),
		TotalIncomeMonthly:      r.float("totalIncomeMonthly"),
		TotalFixedMonthly:       r.float("totalFixedMonthly"),
		TotalInvestmentsMonthly: r.float("totalInvestmentsMonthly"),
		TotalVariablePlanned:    r.float("totalVariablePlanned"),
		TotalVariableActual:     r.float("totalVariableActual"),
		TotalCreditCardDues:     r.float("totalCreditCardDues"),
	}
}

// Income reads an income. An income carrying an RSU grant is always monthly and
// its amount is recomputed from the grant.
func Income(r Raw) models.Income {
	inc := models.Income{
		ID:              r.str("id"),
		OwnerID:         owner(r),
		Source:          r.str("source", "name"),
		Amount:          r.float("amount"),
		Frequency:       Frequency(r.str("frequency")),
		IncludeInHealth: r.boolean(true, "includeInHealth"),
	}
	if g, ok := r.object("rsu", "rsuDetails"); ok {
		grant := RSUGrant(g)
		inc.RSU = &grant
		inc.Frequency = models.FrequencyMonthly
		inc.Amount = grant.MaxMonthlyIncome()
	}
	return inc
}

// RSUGrant reads a grant. Tax rate and expected decline arrive as percentages.
func RSUGrant(r Raw) models.RSUGrant {
	conversion := r.float("conversionRate")
	if _, ok := r.lookup("conversionRate"); !ok {
		conversion = 1
	}
	return models.RSUGrant{
		Ticker:          strings.ToUpper(r.str("ticker")),
		GrantCount:      r.float("grantCount", "grantCountPerYear"),
		VestingSchedule: r.str("vestingSchedule"),
		TaxRate:         r.float("taxRate") / 100,
		ExpectedDecline: r.float("expectedDecline") / 100,
		StockPrice:      r.float("stockPrice"),
		Currency:        strings.ToUpper(r.str("currency")),
		ConversionRate:  conversion,
	}
}

// FixedExpense reads a fixed expense
func FixedExpense(r Raw) models.FixedExpense {
	return models.FixedExpense{
		ID:        r.str("id"),
		OwnerID:   owner(r),
		Name:      r.str("name"),
		Amount:    r.float("amount"),
		Frequency: Frequency(r.str("frequency")),
		Category:  r.str("category"),
		IsSIP:     r.boolean(false, "isSipFlag", "isSip"),
		Paid:      r.boolean(false, "paid", "isPaid"),
	}
}

// VariablePlan reads a variable plan with its actuals
func VariablePlan(r Raw) models.VariablePlan {
	p := models.VariablePlan{
		ID:      r.str("id"),
		OwnerID: owner(r),
		Name:    r.str("name"),
		Planned: r.float("planned"),
	}
	for _, a := range r.list("actuals") {
		p.Actuals = append(p.Actuals, models.Actual{
			ID:          a.str("id"),
			Amount:      a.float("amount"),
			IncurredAt:  a.date("incurredAt"),
			PaymentMode: PaymentMode(a.str("paymentMode")),
		})
	}
	return p
}

// Investment reads an investment. A missing status means active.
func Investment(r Raw) models.Investment {
	status := models.InvestmentActive
	if s := strings.ToLower(r.str("status")); s != "" && s != string(models.InvestmentActive) {
		status = models.InvestmentPaused
	}
	return models.Investment{
		ID:               r.str("id"),
		OwnerID:          owner(r),
		Name:             r.str("name"),
		MonthlyAmount:    r.float("monthlyAmount"),
		Status:           status,
		IsPriority:       r.boolean(false, "isPriority"),
		AccumulatedFunds: r.float("accumulatedFunds"),
	}
}

// CreditCard reads a credit card bill
func CreditCard(r Raw) models.CreditCard {
	return models.CreditCard{
		ID:         r.str("id"),
		OwnerID:    owner(r),
		Name:       r.str("name", "cardName"),
		BillAmount: r.float("billAmount"),
		PaidAmount: r.float("paidAmount"),
		DueDate:    r.date("dueDate"),
	}
}

// FutureBomb reads a future bomb
func FutureBomb(r Raw) models.FutureBomb {
	return models.FutureBomb{
		ID:          r.str("id"),
		OwnerID:     owner(r),
		Name:        r.str("name"),
		TotalAmount: r.float("totalAmount"),
		SavedAmount: r.float("savedAmount"),
		DueDate:     r.date("dueDate"),
	}
}

// Frequency maps a frequency label, defaulting to monthly
func Frequency(s string) models.Frequency {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quarterly":
		return models.FrequencyQuarterly
	case "yearly", "annual", "annually":
		return models.FrequencyYearly
	default:
		return models.FrequencyMonthly
	}
}

// PaymentMode maps the spellings clients use for a payment mode
func PaymentMode(s string) models.PaymentMode {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	switch key {
	case "upi":
		return models.PaymentModeUPI
	case "cash":
		return models.PaymentModeCash
	case "extracash":
		return models.PaymentModeExtraCash
	case "creditcard", "card":
		return models.PaymentModeCreditCard
	default:
		return models.PaymentMode(s)
	}
}

func owner(r Raw) string {
	return r.str("ownerId", "userId")
}
