package models

// Frequency is how often an income or expense recurs
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Income represents a recurring income source
type Income struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Source          string    `json:"source"`
	Amount          float64   `json:"amount"`
	Frequency       Frequency `json:"frequency"`
	IncludeInHealth bool      `json:"include_in_health"`
	RSU             *RSUGrant `json:"rsu,omitempty"`
}

// RSUGrant describes vesting equity attached to an income.
// TaxRate and ExpectedDecline are fractions in [0, 1].
type RSUGrant struct {
	Ticker          string  `json:"ticker"`
	GrantCount      float64 `json:"grant_count"` // shares per year
	VestingSchedule string  `json:"vesting_schedule"`
	TaxRate         float64 `json:"tax_rate"`
	ExpectedDecline float64 `json:"expected_decline"`
	StockPrice      float64 `json:"stock_price"`
	Currency        string  `json:"currency"`
	ConversionRate  float64 `json:"conversion_rate"` // stock currency -> user currency
}

// MonthlyNetShares is the number of post-tax shares vesting per month
func (g RSUGrant) MonthlyNetShares() float64 {
	return g.GrantCount * (1 - g.TaxRate) / 12
}

// ConservativePriceLocal is the share price after the expected decline, in the user's currency
func (g RSUGrant) ConservativePriceLocal() float64 {
	return g.StockPrice * (1 - g.ExpectedDecline) * g.ConversionRate
}

// MaxMonthlyIncome is the value of one month of net vested shares at the conservative price
func (g RSUGrant) MaxMonthlyIncome() float64 {
	return g.MonthlyNetShares() * g.ConservativePriceLocal()
}
