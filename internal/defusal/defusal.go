// Package defusal plans how to fund the monthly saving for a future bomb when
// the money left after regular obligations is not enough.
//
// Two greedy strategies are computed side by side: pause investments first and
// then sell vested RSU shares, or the other way round. CustomMix scores a
// hand-picked combination instead. Nothing here applies a plan; callers decide.
package defusal

import (
	"math"
	"sort"
	"time"

	"github.com/Dan9191/finhealth/internal/models"
)

// Severity says whether a shortfall can be closed
type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityWarn     Severity = "warn"
	SeverityCritical Severity = "critical"
)

// epsilon absorbs float noise below a hundredth of a cent
const epsilon = 1e-6

// PauseSuggestion is an investment proposed for pausing
type PauseSuggestion struct {
	InvestmentID  string  `json:"investment_id"`
	Name          string  `json:"name"`
	MonthlyAmount float64 `json:"monthly_amount"`
}

// SellSuggestion is a number of vested shares proposed for selling this month
type SellSuggestion struct {
	AssetID       string  `json:"asset_id"`
	Ticker        string  `json:"ticker"`
	Shares        int     `json:"shares"`
	PricePerShare float64 `json:"price_per_share"`
	Amount        float64 `json:"amount"`
}

// Path is the outcome of one greedy strategy
type Path struct {
	PauseSuggestions []PauseSuggestion `json:"pause_suggestions"`
	SellSuggestions  []SellSuggestion  `json:"sell_suggestions"`
	PauseFreed       float64           `json:"pause_freed"`
	SellFreed        float64           `json:"sell_freed"`
	Remainder        float64           `json:"remainder"`
	Covered          bool              `json:"covered"`
}

// Plan is the defusal proposal for a single bomb
type Plan struct {
	BombID         string    `json:"bomb_id"`
	BombName       string    `json:"bomb_name"`
	Remaining      float64   `json:"remaining"`
	DefuseBy       time.Time `json:"defuse_by"`
	MonthsLeft     int       `json:"months_left"`
	SIPAmount      float64   `json:"sip_amount"`
	AvailableFunds float64   `json:"available_funds"`
	Shortfall      float64   `json:"shortfall"`
	CanAfford      bool      `json:"can_afford"`
	PauseFirst     Path      `json:"pause_first"`
	SellFirst      Path      `json:"sell_first"`
	Severity       Severity  `json:"severity"`
}

// PlanDefusal builds the plan for bomb given the monthly funds available to it.
// Investments are filtered to the pausable ones internally. A bomb that is
// already fully saved gets no plan and ok is false.
func PlanDefusal(bomb models.FutureBomb, today time.Time, availableFunds float64, investments []models.Investment, assets []SellableAsset) (plan Plan, ok bool) {
	if bomb.Defused() {
		return Plan{}, false
	}

	sip := bomb.MonthlySIP(today)
	shortfall := math.Max(0, sip-math.Max(0, availableFunds))
	pausable := PausableInvestments(investments)

	plan = Plan{
		BombID:         bomb.ID,
		BombName:       bomb.Name,
		Remaining:      bomb.Remaining(),
		DefuseBy:       bomb.DefuseBy(),
		MonthsLeft:     bomb.MonthsLeft(today),
		SIPAmount:      sip,
		AvailableFunds: availableFunds,
		Shortfall:      shortfall,
		CanAfford:      shortfall <= epsilon,
		PauseFirst:     pauseFirst(shortfall, pausable, assets),
		SellFirst:      sellFirst(shortfall, pausable, assets),
	}
	plan.Severity = severity(plan)
	return plan, true
}

// PlanAll plans every bomb still being saved for, earliest due date first.
// Each bomb is offered what is left of funds after the SIPs of earlier bombs.
func PlanAll(bombs []models.FutureBomb, today time.Time, funds float64, investments []models.Investment, assets []SellableAsset) []Plan {
	active := make([]models.FutureBomb, 0, len(bombs))
	for _, b := range bombs {
		if !b.Defused() {
			active = append(active, b)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].DueDate.Before(active[j].DueDate)
	})

	plans := make([]Plan, 0, len(active))
	pool := funds
	for _, b := range active {
		plan, ok := PlanDefusal(b, today, pool, investments, assets)
		if !ok {
			continue
		}
		plans = append(plans, plan)
		pool -= plan.SIPAmount
	}
	return plans
}

func pauseFirst(shortfall float64, pausable []models.Investment, assets []SellableAsset) Path {
	var p Path
	remainder := shortfall
	p.PauseSuggestions, p.PauseFreed, remainder = pause(remainder, pausable)
	p.SellSuggestions, p.SellFreed, remainder = sell(remainder, assets)
	p.Remainder = math.Max(0, remainder)
	p.Covered = remainder <= epsilon
	return p
}

func sellFirst(shortfall float64, pausable []models.Investment, assets []SellableAsset) Path {
	var p Path
	remainder := shortfall
	p.SellSuggestions, p.SellFreed, remainder = sell(remainder, assets)
	p.PauseSuggestions, p.PauseFreed, remainder = pause(remainder, pausable)
	p.Remainder = math.Max(0, remainder)
	p.Covered = remainder <= epsilon
	return p
}

func pause(remainder float64, pausable []models.Investment) ([]PauseSuggestion, float64, float64) {
	var suggestions []PauseSuggestion
	var freed float64
	for _, inv := range pausable {
		if remainder <= epsilon {
			break
		}
		if inv.MonthlyAmount <= 0 {
			continue
		}
		suggestions = append(suggestions, PauseSuggestion{
			InvestmentID:  inv.ID,
			Name:          inv.Name,
			MonthlyAmount: inv.MonthlyAmount,
		})
		freed += inv.MonthlyAmount
		remainder -= inv.MonthlyAmount
	}
	return suggestions, freed, remainder
}

// sell never proposes more shares than vest in a month, and only whole shares
func sell(remainder float64, assets []SellableAsset) ([]SellSuggestion, float64, float64) {
	var suggestions []SellSuggestion
	var freed float64
	for _, a := range assets {
		if remainder <= epsilon {
			break
		}
		price := a.ConservativePriceLocal
		maxShares := a.WholeShares()
		if price <= 0 || maxShares < 1 {
			continue
		}
		shares := int(math.Min(math.Ceil(remainder/price), float64(maxShares)))
		amount := float64(shares) * price
		suggestions = append(suggestions, SellSuggestion{
			AssetID:       a.ID,
			Ticker:        a.Ticker,
			Shares:        shares,
			PricePerShare: price,
			Amount:        amount,
		})
		freed += amount
		remainder -= amount
	}
	return suggestions, freed, remainder
}

func severity(p Plan) Severity {
	switch {
	case p.CanAfford:
		return SeverityOK
	case p.PauseFirst.Covered || p.SellFirst.Covered:
		return SeverityWarn
	default:
		return SeverityCritical
	}
}
