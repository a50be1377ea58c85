package models

// InvestmentStatus is whether an investment's monthly contribution is running
type InvestmentStatus string

const (
	InvestmentActive InvestmentStatus = "active"
	InvestmentPaused InvestmentStatus = "paused"
)

// Investment represents a recurring monthly investment
type Investment struct {
	ID               string           `json:"id"`
	OwnerID          string           `json:"owner_id"`
	Name             string           `json:"name"`
	MonthlyAmount    float64          `json:"monthly_amount"`
	Status           InvestmentStatus `json:"status"`
	IsPriority       bool             `json:"is_priority"`
	AccumulatedFunds float64          `json:"accumulated_funds"`
}

// Active reports whether the investment currently draws its monthly amount
func (i Investment) Active() bool {
	return i.Status == InvestmentActive
}
