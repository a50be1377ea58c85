package models

// FixedExpense represents a recurring committed expense.
// Paid is informational; the commitment counts toward health either way.
type FixedExpense struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Amount    float64   `json:"amount"`
	Frequency Frequency `json:"frequency"`
	Category  string    `json:"category"`
	IsSIP     bool      `json:"is_sip_flag"`
	Paid      bool      `json:"paid"`
}
