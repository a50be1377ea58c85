package health

import (
	"errors"
	"fmt"
)

// ErrInvalidThresholds is returned when the bands overlap or are out of order
var ErrInvalidThresholds = errors.New("invalid health thresholds")

// Category is the health classification of a remaining-income percentage
type Category string

const (
	CategoryGood        Category = "good"
	CategoryOK          Category = "ok"
	CategoryNotWell     Category = "not_well"
	CategoryWorrisome   Category = "worrisome"
	CategoryUnavailable Category = "unavailable"
)

// Thresholds are percentages of income bounding each category
type Thresholds struct {
	GoodMin    float64 `json:"good_min"`
	OkMin      float64 `json:"ok_min"`
	OkMax      float64 `json:"ok_max"`
	NotWellMax float64 `json:"not_well_max"`
}

// DefaultThresholds are used when the user never configured any
func DefaultThresholds() Thresholds {
	return Thresholds{
		GoodMin:    20,
		OkMin:      10,
		OkMax:      19.99,
		NotWellMax: 9.99,
	}
}

// Validate enforces not_well_max < ok_min <= ok_max < good_min
func (t Thresholds) Validate() error {
	if !(t.NotWellMax < t.OkMin) {
		return fmt.Errorf("%w: not_well_max (%.2f) must be below ok_min (%.2f)", ErrInvalidThresholds, t.NotWellMax, t.OkMin)
	}
	if !(t.OkMin <= t.OkMax) {
		return fmt.Errorf("%w: ok_min (%.2f) must not exceed ok_max (%.2f)", ErrInvalidThresholds, t.OkMin, t.OkMax)
	}
	if !(t.OkMax < t.GoodMin) {
		return fmt.Errorf("%w: ok_max (%.2f) must be below good_min (%.2f)", ErrInvalidThresholds, t.OkMax, t.GoodMin)
	}
	return nil
}

// Classify maps a remaining-income percentage to a category.
//
// Bands are closed: good from good_min up, ok on [ok_min, ok_max], not_well on
// [0, not_well_max]. A value falling between two configured bands takes the more
// severe neighbour, and anything below zero is worrisome.
func Classify(pct float64, t Thresholds) Category {
	switch {
	case pct >= t.GoodMin:
		return CategoryGood
	case pct >= t.OkMin:
		return CategoryOK
	case pct >= 0:
		return CategoryNotWell
	default:
		return CategoryWorrisome
	}
}
