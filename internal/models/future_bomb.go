package models

import (
	"math"
	"time"
)

// DaysPerMonth is the average month length used to count months until a deadline
const DaysPerMonth = 30.44

// FutureBomb represents a large upcoming expense saved for ahead of time
type FutureBomb struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	TotalAmount float64   `json:"total_amount"`
	SavedAmount float64   `json:"saved_amount"`
	DueDate     time.Time `json:"due_date"`
}

// Remaining is the amount still to be saved, never negative
func (b FutureBomb) Remaining() float64 {
	return math.Max(0, b.TotalAmount-b.SavedAmount)
}

// Defused reports whether the bomb is already fully saved for
func (b FutureBomb) Defused() bool {
	return b.Remaining() <= 0
}

// DefuseBy is the due date moved back one calendar month. The day is clamped
// to the end of the target month, so March 31 becomes February 28/29.
func (b FutureBomb) DefuseBy() time.Time {
	d := b.DueDate
	year, month := d.Year(), d.Month()-1
	if month < time.January {
		month = time.December
		year--
	}
	day := d.Day()
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
}

// MonthsLeft counts whole average-length months from today until DefuseBy, at least 1
func (b FutureBomb) MonthsLeft(today time.Time) int {
	days := b.DefuseBy().Sub(today).Hours() / 24
	months := int(math.Floor(days / DaysPerMonth))
	if months < 1 {
		return 1
	}
	return months
}

// MonthlySIP is the saving needed each month to cover Remaining by DefuseBy
func (b FutureBomb) MonthlySIP(today time.Time) float64 {
	return b.Remaining() / float64(b.MonthsLeft(today))
}

// DaysIn returns the number of days in the given month
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
