package defusal

import (
	"math"

	"github.com/Dan9191/finhealth/internal/models"
)

// MixSelection is a user's hand-picked combination of pauses and share sales
type MixSelection struct {
	PauseIDs []string       `json:"pause_ids"`
	Shares   map[string]int `json:"shares"`
}

// MixResult is the feedback for a MixSelection
type MixResult struct {
	Paused         []PauseSuggestion `json:"paused"`
	Sold           []SellSuggestion  `json:"sold"`
	FreedFromPause float64           `json:"freed_from_pause"`
	FreedFromSell  float64           `json:"freed_from_sell"`
	Freed          float64           `json:"freed"`
	Remaining      float64           `json:"remaining"`
	Covered        bool              `json:"covered"`
}

// CustomMix sums what a selection frees against shortfall. It does no search:
// ids that are not pausable are ignored and share counts are clamped to what
// vests in a month.
func CustomMix(shortfall float64, investments []models.Investment, assets []SellableAsset, sel MixSelection) MixResult {
	var r MixResult

	chosen := make(map[string]bool, len(sel.PauseIDs))
	for _, id := range sel.PauseIDs {
		chosen[id] = true
	}
	for _, inv := range PausableInvestments(investments) {
		if !chosen[inv.ID] || inv.MonthlyAmount <= 0 {
			continue
		}
		r.Paused = append(r.Paused, PauseSuggestion{
			InvestmentID:  inv.ID,
			Name:          inv.Name,
			MonthlyAmount: inv.MonthlyAmount,
		})
		r.FreedFromPause += inv.MonthlyAmount
	}

	for _, a := range assets {
		shares := sel.Shares[a.ID]
		if shares > a.WholeShares() {
			shares = a.WholeShares()
		}
		if shares <= 0 || a.ConservativePriceLocal <= 0 {
			continue
		}
		amount := float64(shares) * a.ConservativePriceLocal
		r.Sold = append(r.Sold, SellSuggestion{
			AssetID:       a.ID,
			Ticker:        a.Ticker,
			Shares:        shares,
			PricePerShare: a.ConservativePriceLocal,
			Amount:        amount,
		})
		r.FreedFromSell += amount
	}

	r.Freed = r.FreedFromPause + r.FreedFromSell
	r.Remaining = math.Max(0, shortfall-r.Freed)
	r.Covered = shortfall-r.Freed <= epsilon
	return r
}
