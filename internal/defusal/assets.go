package defusal

import (
	"math"
	"sort"

	"github.com/Dan9191/finhealth/internal/models"
)

// SellableAsset is the monthly vesting of an RSU grant that could be sold
type SellableAsset struct {
	ID                     string  `json:"id"`
	Ticker                 string  `json:"ticker"`
	MonthlyNetShares       float64 `json:"monthly_net_shares"`
	ConservativePriceLocal float64 `json:"conservative_price_local"`
	MaxMonthlyIncome       float64 `json:"max_monthly_income"`
}

// WholeShares is the number of shares that can be sold each month
func (a SellableAsset) WholeShares() int {
	if a.MonthlyNetShares <= 0 || math.IsNaN(a.MonthlyNetShares) || math.IsInf(a.MonthlyNetShares, 0) {
		return 0
	}
	return int(math.Floor(a.MonthlyNetShares))
}

// SellableValue is what selling every whole vested share raises in a month
func (a SellableAsset) SellableValue() float64 {
	if a.ConservativePriceLocal <= 0 {
		return 0
	}
	return float64(a.WholeShares()) * a.ConservativePriceLocal
}

// SellableAssets derives one asset per RSU-bearing income, keeping income order
func SellableAssets(incomes []models.Income) []SellableAsset {
	var assets []SellableAsset
	for _, inc := range incomes {
		if inc.RSU == nil {
			continue
		}
		assets = append(assets, SellableAsset{
			ID:                     inc.ID,
			Ticker:                 inc.RSU.Ticker,
			MonthlyNetShares:       inc.RSU.MonthlyNetShares(),
			ConservativePriceLocal: inc.RSU.ConservativePriceLocal(),
			MaxMonthlyIncome:       inc.RSU.MaxMonthlyIncome(),
		})
	}
	return assets
}

// PausableInvestments returns the active, non-priority investments ordered by
// monthly amount, largest first. Equal amounts keep their input order.
func PausableInvestments(investments []models.Investment) []models.Investment {
	var out []models.Investment
	for _, inv := range investments {
		if inv.Active() && !inv.IsPriority {
			out = append(out, inv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MonthlyAmount > out[j].MonthlyAmount
	})
	return out
}
