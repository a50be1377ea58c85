package models

// SharedAggregate holds one sharing member's self-published monthly totals.
// Members cannot decrypt each other's records, so these totals are all that can be merged.
type SharedAggregate struct {
	UserID                  string  `json:"user_id"`
	TotalIncomeMonthly      float64 `json:"total_income_monthly"`
	TotalFixedMonthly       float64 `json:"total_fixed_monthly"`
	TotalInvestmentsMonthly float64 `json:"total_investments_monthly"`
	TotalVariablePlanned    float64 `json:"total_variable_planned"`
	TotalVariableActual     float64 `json:"total_variable_actual"`
	TotalCreditCardDues     float64 `json:"total_credit_card_dues"`
}

// Snapshot bundles the decrypted records of one computation call
type Snapshot struct {
	Incomes       []Income       `json:"incomes"`
	FixedExpenses []FixedExpense `json:"fixed_expenses"`
	VariablePlans []VariablePlan `json:"variable_plans"`
	Investments   []Investment   `json:"investments"`
	CreditCards   []CreditCard   `json:"credit_cards"`
	FutureBombs   []FutureBomb   `json:"future_bombs"`
}

// OwnedBy returns a copy of the snapshot holding only records owned by userID
func (s Snapshot) OwnedBy(userID string) Snapshot {
	var out Snapshot
	for _, r := range s.Incomes {
		if r.OwnerID == userID {
			out.Incomes = append(out.Incomes, r)
		}
	}
	for _, r := range s.FixedExpenses {
		if r.OwnerID == userID {
			out.FixedExpenses = append(out.FixedExpenses, r)
		}
	}
	for _, r := range s.VariablePlans {
		if r.OwnerID == userID {
			out.VariablePlans = append(out.VariablePlans, r)
		}
	}
	for _, r := range s.Investments {
		if r.OwnerID == userID {
			out.Investments = append(out.Investments, r)
		}
	}
	for _, r := range s.CreditCards {
		if r.OwnerID == userID {
			out.CreditCards = append(out.CreditCards, r)
		}
	}
	for _, r := range s.FutureBombs {
		if r.OwnerID == userID {
			out.FutureBombs = append(out.FutureBombs, r)
		}
	}
	return out
}
