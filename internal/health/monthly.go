package health

import (
	"math"
	"time"

	"github.com/Dan9191/finhealth/internal/models"
)

// Monthly converts an amount paid at the given frequency into its monthly equivalent.
// Unknown frequencies are treated as monthly.
func Monthly(amount float64, freq models.Frequency) float64 {
	amount = finite(amount)
	switch freq {
	case models.FrequencyQuarterly:
		return amount / 3
	case models.FrequencyYearly:
		return amount / 12
	default:
		return amount
	}
}

// RemainingDaysRatio is the fraction of the month still ahead of today
func RemainingDaysRatio(today time.Time) float64 {
	days := models.DaysIn(today.Year(), today.Month())
	return 1 - float64(today.Day())/float64(days)
}

// EffectiveVariable is the larger of what was actually spent and the prorated
// budget for the rest of the month.
func EffectiveVariable(actual, planned, ratio float64) float64 {
	return math.Max(finite(actual), finite(planned)*ratio)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
