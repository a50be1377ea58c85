package models

import (
	"math"
	"time"
)

// CreditCard represents a credit card bill
type CreditCard struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Name       string    `json:"name"`
	BillAmount float64   `json:"bill_amount"`
	PaidAmount float64   `json:"paid_amount"`
	DueDate    time.Time `json:"due_date"`
}

// Unpaid is the outstanding part of the bill, never negative
func (c CreditCard) Unpaid() float64 {
	return math.Max(0, c.BillAmount-c.PaidAmount)
}

// DueInMonthOf reports whether the card is due in the same calendar month as t
func (c CreditCard) DueInMonthOf(t time.Time) bool {
	if c.DueDate.IsZero() {
		return false
	}
	return c.DueDate.Year() == t.Year() && c.DueDate.Month() == t.Month()
}
