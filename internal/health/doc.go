// Package health turns a user's financial records, and optionally their sharing
// partners' published totals, into a remaining-funds figure and a health category.
//
// Every amount is normalized to a monthly figure first. Income is compared against
// the sum of fixed expenses, prorated variable budgets, active investments, credit
// card dues for the current month and the monthly savings needed for future bombs.
// The remaining share of income is classified against user-configurable thresholds.
//
// Compute is a pure function of its Input: the current date is passed in, nothing is
// read from ambient state and no record is mutated.
package health
