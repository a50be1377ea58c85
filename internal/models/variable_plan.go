package models

import "time"

// PaymentMode is how a variable expense was settled
type PaymentMode string

const (
	PaymentModeUPI        PaymentMode = "UPI"
	PaymentModeCash       PaymentMode = "Cash"
	PaymentModeExtraCash  PaymentMode = "ExtraCash"
	PaymentModeCreditCard PaymentMode = "CreditCard"
)

// DeductsFunds reports whether a payment in this mode is settled from this month's checking balance.
// ExtraCash and CreditCard spends are not.
func (m PaymentMode) DeductsFunds() bool {
	return m != PaymentModeExtraCash && m != PaymentModeCreditCard
}

// Actual is a single spend recorded against a variable plan
type Actual struct {
	ID          string      `json:"id"`
	Amount      float64     `json:"amount"`
	IncurredAt  time.Time   `json:"incurred_at"`
	PaymentMode PaymentMode `json:"payment_mode"`
}

// VariablePlan is a monthly budget ceiling with the spends recorded against it
type VariablePlan struct {
	ID      string   `json:"id"`
	OwnerID string   `json:"owner_id"`
	Name    string   `json:"name"`
	Planned float64  `json:"planned"`
	Actuals []Actual `json:"actuals"`
}

// ActualSpent sums the actuals incurred in the calendar month of t that reduce
// available funds. Actuals without a date count toward the current month.
func (p VariablePlan) ActualSpent(t time.Time) float64 {
	var total float64
	for _, a := range p.Actuals {
		if !a.PaymentMode.DeductsFunds() {
			continue
		}
		if !a.IncurredAt.IsZero() && (a.IncurredAt.Year() != t.Year() || a.IncurredAt.Month() != t.Month()) {
			continue
		}
		total += a.Amount
	}
	return total
}
